package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

var (
	ErrNotFound      = errors.New("application not found")
	ErrDuplicate     = errors.New("application already exists")
	ErrInvalidStatus = errors.New("invalid application status")
)

var validStatuses = map[Status]struct{}{
	StatusPending:  {},
	StatusAccepted: {},
	StatusRejected: {},
}

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := validStatuses[st]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

type Application struct {
	ID             uuid.UUID
	ListingID      uuid.UUID
	ApplicantID    uuid.UUID
	Status         Status
	Message        string
	Availability   []string
	PreferredRoles []string
	Experience     string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Read-side joins; not persisted on the application row.
	ListingTitle  string
	ApplicantName string
}

type Repository interface {
	Create(ctx context.Context, a Application) error
	GetByID(ctx context.Context, id uuid.UUID) (Application, error)
	Exists(ctx context.Context, listingID, applicantID uuid.UUID) (bool, error)
	ListByApplicant(ctx context.Context, applicantID uuid.UUID) ([]Application, error)
	ListByListing(ctx context.Context, listingID uuid.UUID) ([]Application, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, st Status, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}
