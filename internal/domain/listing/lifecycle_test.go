package listing_test

import (
	"errors"
	"testing"
	"time"

	"raid-recruit/internal/domain/listing"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newManager() *listing.Manager {
	return listing.NewManagerWithClock(func() time.Time { return fixedNow })
}

func sampleListing(owner uuid.UUID, st listing.State) listing.Listing {
	return listing.Listing{
		ID:          uuid.New(),
		Title:       "Static LF healer",
		Description: "Weekly savage clears",
		OwnerID:     owner,
		ContentType: "savage",
		DataCenter:  "Aether",
		Server:      "Gilgamesh",
		RolesNeeded: map[string]int{"Healer": 1},
		State:       st,
		CreatedAt:   fixedNow.Add(-time.Hour),
		UpdatedAt:   fixedNow.Add(-time.Hour),
	}
}

func ptr(s string) *string { return &s }

// ── Create ─────────────────────────────────────────────────────────────────

func TestCreate_DefaultsToPrivate(t *testing.T) {
	owner := uuid.New()
	l, err := newManager().Create(owner, sampleListing(uuid.Nil, ""), "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.State != listing.StatePrivate {
		t.Fatalf("expected private, got %s", l.State)
	}
	if l.OwnerID != owner || l.ID == uuid.Nil {
		t.Fatalf("owner/id not assigned")
	}
	if !l.CreatedAt.Equal(fixedNow) || !l.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps not set from clock")
	}
	if l.ApplicationCount != 0 {
		t.Fatalf("application count must start at 0")
	}
}

func TestCreate_ExplicitState(t *testing.T) {
	l, err := newManager().Create(uuid.New(), sampleListing(uuid.Nil, ""), "recruiting")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.State != listing.StateRecruiting {
		t.Fatalf("expected recruiting, got %s", l.State)
	}

	_, err = newManager().Create(uuid.New(), sampleListing(uuid.Nil, ""), "archived")
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestCreate_RequiredFields(t *testing.T) {
	in := sampleListing(uuid.Nil, "")
	in.Title = "  "
	in.DataCenter = ""
	_, err := newManager().Create(uuid.New(), in, "")
	if !errors.Is(err, listing.ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}

	in = sampleListing(uuid.Nil, "")
	in.RolesNeeded = map[string]int{"Tank": -1}
	_, err = newManager().Create(uuid.New(), in, "")
	if !errors.Is(err, listing.ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing for negative role count, got %v", err)
	}
}

// ── CheckView ──────────────────────────────────────────────────────────────

func TestCheckView(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	m := newManager()

	cases := []struct {
		name      string
		state     listing.State
		requester *uuid.UUID
		wantErr   error
	}{
		{"private owner", listing.StatePrivate, &owner, nil},
		{"private stranger", listing.StatePrivate, &stranger, listing.ErrNotFound},
		{"private anonymous", listing.StatePrivate, nil, listing.ErrNotFound},
		{"recruiting anonymous", listing.StateRecruiting, nil, nil},
		{"filled stranger", listing.StateFilled, &stranger, nil},
	}
	for _, tc := range cases {
		err := m.CheckView(sampleListing(owner, tc.state), tc.requester)
		if !errors.Is(err, tc.wantErr) && !(err == nil && tc.wantErr == nil) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

// ── ChangeState ────────────────────────────────────────────────────────────

func TestChangeState_OwnerAnyToAny(t *testing.T) {
	owner := uuid.New()
	m := newManager()
	for _, from := range listing.AllStates() {
		for _, to := range listing.AllStates() {
			got, err := m.ChangeState(sampleListing(owner, from), owner, string(to))
			if err != nil {
				t.Fatalf("%s -> %s: unexpected err: %v", from, to, err)
			}
			if got.State != to {
				t.Fatalf("%s -> %s: got %s", from, to, got.State)
			}
			if !got.UpdatedAt.Equal(fixedNow) {
				t.Fatalf("%s -> %s: updated_at not refreshed", from, to)
			}
		}
	}
}

func TestChangeState_PrivateToRecruitingBecomesVisible(t *testing.T) {
	owner := uuid.New()
	l := sampleListing(owner, listing.StatePrivate)
	if listing.CanView(l.State, false) {
		t.Fatalf("private listing visible before change")
	}
	l, err := newManager().ChangeState(l, owner, "recruiting")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !listing.CanView(l.State, false) {
		t.Fatalf("recruiting listing must be visible to non-owners")
	}
}

func TestChangeState_NonOwnerAlwaysUnauthorized(t *testing.T) {
	owner := uuid.New()
	m := newManager()
	for _, to := range []string{"private", "recruiting", "filled", "bogus"} {
		_, err := m.ChangeState(sampleListing(owner, listing.StateRecruiting), uuid.New(), to)
		if !errors.Is(err, listing.ErrUnauthorized) {
			t.Fatalf("target %q: expected ErrUnauthorized, got %v", to, err)
		}
	}
}

func TestChangeState_UnknownTarget(t *testing.T) {
	owner := uuid.New()
	_, err := newManager().ChangeState(sampleListing(owner, listing.StatePrivate), owner, "archived")
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

// ── AuthorizeEdit / ApplyEdit ──────────────────────────────────────────────

func TestAuthorizeEdit(t *testing.T) {
	owner := uuid.New()
	m := newManager()

	if err := m.AuthorizeEdit(sampleListing(owner, listing.StateRecruiting), uuid.New()); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("non-owner: expected ErrUnauthorized, got %v", err)
	}
	if err := m.AuthorizeEdit(sampleListing(owner, listing.StatePrivate), owner); err != nil {
		t.Fatalf("private owner edit: unexpected err %v", err)
	}
	if err := m.AuthorizeEdit(sampleListing(owner, listing.StateFilled), owner); !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("filled edit: expected ErrInvalidState, got %v", err)
	}
}

func TestApplyEdit_UpdatesWhitelistedFields(t *testing.T) {
	owner := uuid.New()
	orig := sampleListing(owner, listing.StateRecruiting)
	got, err := newManager().ApplyEdit(orig, owner, listing.Patch{
		Title:       ptr("  New title "),
		RolesNeeded: map[string]int{"Tank": 2},
		Schedule:    []string{"Tue 8pm"},
		State:       ptr("private"),
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Title != "New title" {
		t.Fatalf("title not trimmed/applied: %q", got.Title)
	}
	if got.RolesNeeded["Tank"] != 2 || len(got.Schedule) != 1 {
		t.Fatalf("collections not applied")
	}
	if got.State != listing.StatePrivate {
		t.Fatalf("state not applied")
	}
	if got.ID != orig.ID || got.OwnerID != owner || !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Fatalf("immutable fields changed")
	}
	if got.Description != orig.Description {
		t.Fatalf("untouched field changed")
	}
}

func TestApplyEdit_RejectsBadStateAndFilled(t *testing.T) {
	owner := uuid.New()
	m := newManager()

	_, err := m.ApplyEdit(sampleListing(owner, listing.StateRecruiting), owner, listing.Patch{State: ptr("archived")})
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	_, err = m.ApplyEdit(sampleListing(owner, listing.StateFilled), owner, listing.Patch{Title: ptr("x")})
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("filled: expected ErrInvalidState, got %v", err)
	}

	_, err = m.ApplyEdit(sampleListing(owner, listing.StateRecruiting), owner, listing.Patch{Title: ptr("")})
	if !errors.Is(err, listing.ErrInvalidListing) {
		t.Fatalf("blank title: expected ErrInvalidListing, got %v", err)
	}
}

// ── AuthorizeApply ─────────────────────────────────────────────────────────

func TestAuthorizeApply(t *testing.T) {
	owner := uuid.New()
	applicant := uuid.New()
	m := newManager()

	cases := []struct {
		name      string
		state     listing.State
		requester uuid.UUID
		applied   bool
		wantErr   error
	}{
		{"recruiting fresh", listing.StateRecruiting, applicant, false, nil},
		{"recruiting duplicate", listing.StateRecruiting, applicant, true, listing.ErrConflict},
		{"recruiting owner", listing.StateRecruiting, owner, false, listing.ErrConflict},
		{"filled", listing.StateFilled, applicant, false, listing.ErrInvalidState},
		{"private", listing.StatePrivate, applicant, false, listing.ErrInvalidState},
		{"unknown", listing.State("archived"), applicant, false, listing.ErrInvalidState},
	}
	for _, tc := range cases {
		err := m.AuthorizeApply(sampleListing(owner, tc.state), tc.requester, tc.applied)
		if tc.wantErr == nil {
			if err != nil {
				t.Fatalf("%s: unexpected err %v", tc.name, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestAuthorizeDelete(t *testing.T) {
	owner := uuid.New()
	m := newManager()
	if err := m.AuthorizeDelete(sampleListing(owner, listing.StateFilled), owner); err != nil {
		t.Fatalf("owner delete: unexpected err %v", err)
	}
	if err := m.AuthorizeDelete(sampleListing(owner, listing.StateFilled), uuid.New()); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
