package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"raid-recruit/internal/domain/application"
	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

type ApplyInput struct {
	ListingID      uuid.UUID
	Message        string
	Availability   []string
	PreferredRoles []string
	Experience     string
}

type ApplicationUsecase interface {
	Apply(ctx context.Context, applicantID uuid.UUID, in ApplyInput) (application.Application, error)
	ListMine(ctx context.Context, applicantID uuid.UUID) ([]application.Application, error)
	ListForListing(ctx context.Context, listingID, requester uuid.UUID) ([]application.Application, error)
	UpdateStatus(ctx context.Context, id, requester uuid.UUID, status string) (application.Application, error)
	Withdraw(ctx context.Context, id, requester uuid.UUID) error
}

type Applications struct {
	apps     application.Repository
	listings listing.Repository
	manager  *listing.Manager
	cache    SearchCache
	notifier ListingNotifier
	logger   *log.Logger
	now      func() time.Time
}

func NewApplicationUsecase(apps application.Repository, listings listing.Repository, manager *listing.Manager, cache SearchCache, notifier ListingNotifier, logger *log.Logger) *Applications {
	if manager == nil {
		manager = listing.NewManager()
	}
	return &Applications{
		apps:     apps,
		listings: listings,
		manager:  manager,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Apply creates a pending application. The listing must be visible to the
// applicant and accepting applications; the unique (listing, applicant)
// constraint backs up the duplicate check under concurrency.
func (u *Applications) Apply(ctx context.Context, applicantID uuid.UUID, in ApplyInput) (application.Application, error) {
	if in.ListingID == uuid.Nil {
		return application.Application{}, ErrInvalidInput
	}

	l, err := u.loadListing(ctx, in.ListingID)
	if err != nil {
		return application.Application{}, err
	}
	if err := u.manager.CheckView(l, &applicantID); err != nil {
		return application.Application{}, err
	}

	exists, err := u.apps.Exists(ctx, l.ID, applicantID)
	if err != nil {
		return application.Application{}, ErrInternal
	}
	if err := u.manager.AuthorizeApply(l, applicantID, exists); err != nil {
		return application.Application{}, err
	}

	now := u.now().UTC()
	a := application.Application{
		ID:             uuid.New(),
		ListingID:      l.ID,
		ApplicantID:    applicantID,
		Status:         application.StatusPending,
		Message:        strings.TrimSpace(in.Message),
		Availability:   in.Availability,
		PreferredRoles: in.PreferredRoles,
		Experience:     strings.TrimSpace(in.Experience),
		CreatedAt:      now,
		UpdatedAt:      now,
		ListingTitle:   l.Title,
	}
	if err := u.apps.Create(ctx, a); err != nil {
		if errors.Is(err, application.ErrDuplicate) {
			return application.Application{}, fmt.Errorf("%w: already applied to this listing", listing.ErrConflict)
		}
		if errors.Is(err, listing.ErrInvalidState) {
			return application.Application{}, err
		}
		u.logf("[Applications] Create failed listing=%s applicant=%s err=%v", l.ID, applicantID, err)
		return application.Application{}, ErrInternal
	}
	u.logf("[Applications] Created id=%s listing=%s applicant=%s", a.ID, l.ID, applicantID)

	u.listingChanged(ctx, l)
	return a, nil
}

func (u *Applications) ListMine(ctx context.Context, applicantID uuid.UUID) ([]application.Application, error) {
	items, err := u.apps.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func (u *Applications) ListForListing(ctx context.Context, listingID, requester uuid.UUID) ([]application.Application, error) {
	l, err := u.loadListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := u.manager.CheckView(l, &requester); err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(requester) {
		return nil, listing.ErrUnauthorized
	}

	items, err := u.apps.ListByListing(ctx, listingID)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

// UpdateStatus lets the listing owner accept or reject an application.
func (u *Applications) UpdateStatus(ctx context.Context, id, requester uuid.UUID, status string) (application.Application, error) {
	st, err := application.ParseStatus(status)
	if err != nil {
		return application.Application{}, err
	}

	a, err := u.load(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	l, err := u.loadListing(ctx, a.ListingID)
	if err != nil {
		return application.Application{}, err
	}
	if !l.IsOwnedBy(requester) {
		return application.Application{}, listing.ErrUnauthorized
	}

	now := u.now().UTC()
	if err := u.apps.UpdateStatus(ctx, id, st, now); err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, ErrInternal
	}
	u.logf("[Applications] Status changed id=%s from=%s to=%s", id, a.Status, st)

	a.Status = st
	a.UpdatedAt = now
	return a, nil
}

// Withdraw deletes an application. Only the applicant may withdraw.
func (u *Applications) Withdraw(ctx context.Context, id, requester uuid.UUID) error {
	a, err := u.load(ctx, id)
	if err != nil {
		return err
	}
	if a.ApplicantID != requester {
		return listing.ErrUnauthorized
	}
	if err := u.apps.Delete(ctx, id); err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.ErrNotFound
		}
		return ErrInternal
	}
	u.logf("[Applications] Withdrawn id=%s listing=%s", id, a.ListingID)

	if l, err := u.listings.GetByID(ctx, a.ListingID); err == nil {
		u.listingChanged(ctx, l)
	}
	return nil
}

func (u *Applications) load(ctx context.Context, id uuid.UUID) (application.Application, error) {
	a, err := u.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			return application.Application{}, application.ErrNotFound
		}
		return application.Application{}, ErrInternal
	}
	return a, nil
}

func (u *Applications) loadListing(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	l, err := u.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, ErrInternal
	}
	return l, nil
}

// listingChanged refreshes readers of the listing after its
// application_count moved.
func (u *Applications) listingChanged(ctx context.Context, l listing.Listing) {
	if u.cache != nil {
		if err := u.cache.InvalidateListings(ctx); err != nil {
			u.logf("[Applications] Cache invalidate failed err=%v", err)
		}
	}
	if u.notifier != nil && listing.CanView(l.State, false) {
		u.notifier.ListingUpdated(l.ID, l.State)
	}
}

func (u *Applications) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}
