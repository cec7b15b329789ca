package usecase

import (
	"context"
	"errors"
	"testing"

	"raid-recruit/internal/domain/application"
	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

func newApplicationsUC(listings *memListingRepo) (*Applications, *memApplicationRepo, *recordingNotifier) {
	apps := newMemApplicationRepo(listings)
	n := &recordingNotifier{}
	return NewApplicationUsecase(apps, listings, listing.NewManager(), newMemCache(), n, nil), apps, n
}

func TestApplications_ApplyHappyPath(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	listings := newMemListingRepo(l)
	uc, _, n := newApplicationsUC(listings)

	applicant := uuid.New()
	a, err := uc.Apply(context.Background(), applicant, ApplyInput{ListingID: l.ID, Message: "  hi  "})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Status != application.StatusPending || a.Message != "hi" {
		t.Fatalf("unexpected application %+v", a)
	}
	stored, _ := listings.get(l.ID)
	if stored.ApplicationCount != 1 {
		t.Fatalf("expected application_count 1, got %d", stored.ApplicationCount)
	}
	if len(n.events) != 1 || n.events[0].kind != "updated" {
		t.Fatalf("expected update event, got %+v", n.events)
	}
}

func TestApplications_ApplyRules(t *testing.T) {
	owner := uuid.New()
	recruiting := seededListing(owner, "r", listing.StateRecruiting)
	filled := seededListing(owner, "f", listing.StateFilled)
	private := seededListing(owner, "p", listing.StatePrivate)
	uc, _, _ := newApplicationsUC(newMemListingRepo(recruiting, filled, private))
	applicant := uuid.New()

	tests := []struct {
		name      string
		requester uuid.UUID
		listingID uuid.UUID
		want      error
	}{
		{name: "filled listing", requester: applicant, listingID: filled.ID, want: listing.ErrInvalidState},
		{name: "private listing hidden", requester: applicant, listingID: private.ID, want: listing.ErrNotFound},
		{name: "owner on private listing", requester: owner, listingID: private.ID, want: listing.ErrInvalidState},
		{name: "owner on own listing", requester: owner, listingID: recruiting.ID, want: listing.ErrConflict},
		{name: "missing listing", requester: applicant, listingID: uuid.New(), want: listing.ErrNotFound},
		{name: "no listing id", requester: applicant, listingID: uuid.Nil, want: ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Apply(context.Background(), tt.requester, ApplyInput{ListingID: tt.listingID})
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplications_ApplyTwiceConflicts(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	listings := newMemListingRepo(l)
	uc, _, _ := newApplicationsUC(listings)
	applicant := uuid.New()

	if _, err := uc.Apply(context.Background(), applicant, ApplyInput{ListingID: l.ID}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := uc.Apply(context.Background(), applicant, ApplyInput{ListingID: l.ID}); !errors.Is(err, listing.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	stored, _ := listings.get(l.ID)
	if stored.ApplicationCount != 1 {
		t.Fatalf("duplicate must not bump the counter, got %d", stored.ApplicationCount)
	}
}

func TestApplications_ApplyRacingFill(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	listings := newMemListingRepo(l)
	apps := newMemApplicationRepo(listings)
	uc := NewApplicationUsecase(apps, fillAfterRead{listings}, listing.NewManager(), nil, nil, nil)

	_, err := uc.Apply(context.Background(), uuid.New(), ApplyInput{ListingID: l.ID})
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	stored, _ := listings.get(l.ID)
	if stored.ApplicationCount != 0 || len(apps.items) != 0 {
		t.Fatalf("apply to a filled listing must not be stored: count=%d apps=%d", stored.ApplicationCount, len(apps.items))
	}
}

func TestApplications_OwnerManagesStatus(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	uc, _, _ := newApplicationsUC(newMemListingRepo(l))
	applicant := uuid.New()

	a, err := uc.Apply(context.Background(), applicant, ApplyInput{ListingID: l.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if _, err := uc.UpdateStatus(context.Background(), a.ID, applicant, "accepted"); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("applicant must not accept own application, got %v", err)
	}
	if _, err := uc.UpdateStatus(context.Background(), a.ID, owner, "maybe"); !errors.Is(err, application.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	got, err := uc.UpdateStatus(context.Background(), a.ID, owner, "Accepted")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != application.StatusAccepted {
		t.Fatalf("expected accepted, got %s", got.Status)
	}

	items, err := uc.ListForListing(context.Background(), l.ID, owner)
	if err != nil || len(items) != 1 {
		t.Fatalf("owner should list 1 application, got %d err=%v", len(items), err)
	}
	if _, err := uc.ListForListing(context.Background(), l.ID, applicant); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("non-owner listing applications: expected ErrUnauthorized, got %v", err)
	}
}

func TestApplications_Withdraw(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	listings := newMemListingRepo(l)
	uc, _, _ := newApplicationsUC(listings)
	applicant := uuid.New()

	a, err := uc.Apply(context.Background(), applicant, ApplyInput{ListingID: l.ID})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := uc.Withdraw(context.Background(), a.ID, owner); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("owner cannot withdraw for applicant, got %v", err)
	}
	if err := uc.Withdraw(context.Background(), a.ID, applicant); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	stored, _ := listings.get(l.ID)
	if stored.ApplicationCount != 0 {
		t.Fatalf("expected counter back to 0, got %d", stored.ApplicationCount)
	}
	if err := uc.Withdraw(context.Background(), a.ID, applicant); !errors.Is(err, application.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	mine, err := uc.ListMine(context.Background(), applicant)
	if err != nil || len(mine) != 0 {
		t.Fatalf("expected no applications left, got %d err=%v", len(mine), err)
	}
}
