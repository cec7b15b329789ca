package listing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Listing struct {
	ID               uuid.UUID
	Title            string
	Description      string
	OwnerID          uuid.UUID
	ContentType      string
	ContentName      string
	DataCenter       string
	Server           string
	RolesNeeded      map[string]int
	Schedule         []string
	Requirements     map[string]any
	VoiceChat        string
	AdditionalInfo   string
	State            State
	ApplicationCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (l Listing) IsOwnedBy(userID uuid.UUID) bool {
	return userID != uuid.Nil && l.OwnerID == userID
}

// NeededRoles returns the roles with a positive open count.
func (l Listing) NeededRoles() []string {
	out := make([]string, 0, len(l.RolesNeeded))
	for role, n := range l.RolesNeeded {
		if n > 0 {
			out = append(out, role)
		}
	}
	return out
}

func (l Listing) validate() error {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(l.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(l.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(l.ContentType) == "" {
		missing = append(missing, "content_type")
	}
	if strings.TrimSpace(l.DataCenter) == "" {
		missing = append(missing, "data_center")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidListing, strings.Join(missing, ", "))
	}
	for role, n := range l.RolesNeeded {
		if n < 0 {
			return fmt.Errorf("%w: negative count for role %s", ErrInvalidListing, role)
		}
	}
	return nil
}

// Patch carries a partial edit. Nil fields are left unchanged; a non-nil empty
// map or slice clears the field.
type Patch struct {
	Title          *string
	Description    *string
	ContentType    *string
	ContentName    *string
	DataCenter     *string
	Server         *string
	RolesNeeded    map[string]int
	Schedule       []string
	Requirements   map[string]any
	VoiceChat      *string
	AdditionalInfo *string
	State          *string
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ContentType == nil && p.ContentName == nil &&
		p.DataCenter == nil && p.Server == nil && p.RolesNeeded == nil && p.Schedule == nil &&
		p.Requirements == nil && p.VoiceChat == nil && p.AdditionalInfo == nil && p.State == nil
}

type Filter struct {
	DataCenter  string
	Server      string
	ContentType string
	State       State

	// Viewer is nil for anonymous requests. Private listings only match
	// when Viewer is their owner.
	Viewer *uuid.UUID

	Page    int
	PerPage int
}

type Repository interface {
	Create(ctx context.Context, l Listing) error
	GetByID(ctx context.Context, id uuid.UUID) (Listing, error)
	List(ctx context.Context, f Filter) ([]Listing, int, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Listing, error)
	// Update stores an edit only if the row still carries prevUpdatedAt and
	// is not filled. Otherwise it fails with ErrConflict.
	Update(ctx context.Context, l Listing, prevUpdatedAt time.Time) error
	UpdateState(ctx context.Context, id uuid.UUID, st State, updatedAt time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListRecruiting(ctx context.Context, excludeOwner uuid.UUID, limit int) ([]Listing, error)
}
