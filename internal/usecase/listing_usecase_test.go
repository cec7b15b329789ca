package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

func seededListing(owner uuid.UUID, title string, st listing.State) listing.Listing {
	now := time.Now().UTC()
	return listing.Listing{
		ID:           uuid.New(),
		Title:        title,
		Description:  "weekly static",
		OwnerID:      owner,
		ContentType:  "savage",
		DataCenter:   "Aether",
		Server:       "Gilgamesh",
		RolesNeeded:  map[string]int{"Healer": 1, "Tank": 0},
		Schedule:     []string{"Tue 8pm"},
		Requirements: map[string]any{},
		State:        st,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newListingsUC(repo *memListingRepo, users *memUserRepo, cache SearchCache, n ListingNotifier) *Listings {
	if users == nil {
		users = newMemUserRepo()
	}
	uc := NewListingUsecase(repo, users, listing.NewManager(), cache, n, nil)
	uc.lockWait = time.Millisecond
	return uc
}

func TestListings_CreateDefaultsToPrivate(t *testing.T) {
	repo := newMemListingRepo()
	n := &recordingNotifier{}
	cache := newMemCache()
	uc := newListingsUC(repo, nil, cache, n)

	owner := uuid.New()
	l, err := uc.Create(context.Background(), owner, ListingInput{
		Title:       "M1S-M4S reclear",
		Description: "Need a healer",
		ContentType: "savage",
		DataCenter:  "aether",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if l.State != listing.StatePrivate {
		t.Fatalf("expected private, got %s", l.State)
	}
	if l.DataCenter != "Aether" {
		t.Fatalf("expected canonical data center, got %q", l.DataCenter)
	}
	if _, ok := repo.get(l.ID); !ok {
		t.Fatalf("listing not stored")
	}
	if len(n.events) != 0 {
		t.Fatalf("private listing must not be broadcast, got %+v", n.events)
	}
	if cache.invalidated != 1 {
		t.Fatalf("expected cache invalidation, got %d", cache.invalidated)
	}
}

func TestListings_CreateValidation(t *testing.T) {
	uc := newListingsUC(newMemListingRepo(), nil, nil, nil)

	_, err := uc.Create(context.Background(), uuid.New(), ListingInput{Title: "x"})
	if !errors.Is(err, listing.ErrInvalidListing) {
		t.Fatalf("expected ErrInvalidListing, got %v", err)
	}

	_, err = uc.Create(context.Background(), uuid.New(), ListingInput{
		Title: "x", Description: "y", ContentType: "savage", DataCenter: "Aether", State: "archived",
	})
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestListings_GetHidesPrivateFromOthers(t *testing.T) {
	owner := uuid.New()
	priv := seededListing(owner, "secret", listing.StatePrivate)
	uc := newListingsUC(newMemListingRepo(priv), nil, nil, nil)

	other := uuid.New()
	if _, err := uc.Get(context.Background(), priv.ID, &other); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("non-owner should get ErrNotFound, got %v", err)
	}
	if _, err := uc.Get(context.Background(), priv.ID, nil); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("anonymous should get ErrNotFound, got %v", err)
	}
	if _, err := uc.Get(context.Background(), priv.ID, &owner); err != nil {
		t.Fatalf("owner should see own listing, got %v", err)
	}
	if _, err := uc.Get(context.Background(), uuid.New(), &owner); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("missing listing should be ErrNotFound, got %v", err)
	}
}

func TestListings_ListAnonymousIsCached(t *testing.T) {
	owner := uuid.New()
	repo := newMemListingRepo(
		seededListing(owner, "a", listing.StateRecruiting),
		seededListing(owner, "b", listing.StatePrivate),
		seededListing(owner, "c", listing.StateFilled),
	)
	cache := newMemCache()
	uc := newListingsUC(repo, nil, cache, nil)

	page, err := uc.List(context.Background(), ListingListParams{}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("anonymous should see 2 public listings, got %d", page.Total)
	}
	if page.Page != 1 || page.PerPage != 20 {
		t.Fatalf("unexpected paging %d/%d", page.Page, page.PerPage)
	}

	if _, err := uc.List(context.Background(), ListingListParams{}, nil); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if repo.lists != 1 {
		t.Fatalf("second anonymous list should be served from cache, repo hit %d times", repo.lists)
	}
	if len(cache.locks) != 0 {
		t.Fatalf("stampede lock must be released")
	}
}

func TestListings_ListWithViewerBypassesCache(t *testing.T) {
	owner := uuid.New()
	repo := newMemListingRepo(
		seededListing(owner, "a", listing.StateRecruiting),
		seededListing(owner, "b", listing.StatePrivate),
	)
	cache := newMemCache()
	uc := newListingsUC(repo, nil, cache, nil)

	page, err := uc.List(context.Background(), ListingListParams{}, &owner)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("owner should see own private listing, got %d", page.Total)
	}
	if len(cache.data) != 0 {
		t.Fatalf("viewer-specific pages must not be cached")
	}
}

func TestListings_ListRejectsBadParams(t *testing.T) {
	uc := newListingsUC(newMemListingRepo(), nil, nil, nil)
	if _, err := uc.List(context.Background(), ListingListParams{PerPage: 500}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := uc.List(context.Background(), ListingListParams{State: "archived"}, nil); !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestListings_ListLockedWaitsThenFallsBack(t *testing.T) {
	owner := uuid.New()
	repo := newMemListingRepo(seededListing(owner, "a", listing.StateRecruiting))
	cache := newMemCache()
	uc := newListingsUC(repo, nil, cache, nil)

	key := ListingsSearchCacheKey(ListingListParams{Page: 1, PerPage: 20})
	cache.locks[ListingsSearchLockKey(key)] = true

	page, err := uc.List(context.Background(), ListingListParams{}, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if page.Total != 1 || repo.lists != 1 {
		t.Fatalf("expected fallback to repository, total=%d lists=%d", page.Total, repo.lists)
	}
}

func TestListings_ChangeState(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StatePrivate)
	repo := newMemListingRepo(l)
	n := &recordingNotifier{}
	uc := newListingsUC(repo, nil, newMemCache(), n)

	got, err := uc.ChangeState(context.Background(), l.ID, owner, "Recruiting")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.State != listing.StateRecruiting {
		t.Fatalf("expected recruiting, got %s", got.State)
	}
	stored, _ := repo.get(l.ID)
	if stored.State != listing.StateRecruiting {
		t.Fatalf("state not persisted")
	}
	if len(n.events) != 1 || n.events[0].kind != "updated" || n.events[0].state != listing.StateRecruiting {
		t.Fatalf("expected one update event, got %+v", n.events)
	}

	if _, err := uc.ChangeState(context.Background(), l.ID, owner, "bogus"); !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	if _, err := uc.ChangeState(context.Background(), l.ID, owner, "private"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(n.events) != 2 || n.events[1].kind != "deleted" {
		t.Fatalf("expected hidden listing reported as deleted, got %+v", n.events)
	}
}

func TestListings_ChangeStateByNonOwner(t *testing.T) {
	owner := uuid.New()
	pub := seededListing(owner, "pub", listing.StateRecruiting)
	priv := seededListing(owner, "priv", listing.StatePrivate)
	uc := newListingsUC(newMemListingRepo(pub, priv), nil, nil, nil)

	other := uuid.New()
	if _, err := uc.ChangeState(context.Background(), pub.ID, other, "filled"); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized on visible listing, got %v", err)
	}
	if _, err := uc.ChangeState(context.Background(), priv.ID, other, "filled"); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on hidden listing, got %v", err)
	}
}

func TestListings_UpdateRejectedWhenFilled(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateFilled)
	uc := newListingsUC(newMemListingRepo(l), nil, nil, nil)

	title := "new title"
	_, err := uc.Update(context.Background(), l.ID, owner, listing.Patch{Title: &title})
	if !errors.Is(err, listing.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, err := uc.Update(context.Background(), l.ID, owner, listing.Patch{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty patch should be ErrInvalidInput, got %v", err)
	}
}

func TestListings_Update(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	repo := newMemListingRepo(l)
	uc := newListingsUC(repo, nil, nil, nil)

	title := "  Reclear group  "
	dc := "crystal"
	got, err := uc.Update(context.Background(), l.ID, owner, listing.Patch{Title: &title, DataCenter: &dc})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Title != "Reclear group" || got.DataCenter != "Crystal" {
		t.Fatalf("unexpected edit result %q %q", got.Title, got.DataCenter)
	}
	stored, _ := repo.get(l.ID)
	if stored.Title != "Reclear group" {
		t.Fatalf("edit not persisted")
	}
}

// fillAfterRead hands out the current row and then fills the listing, as if
// the owner's state change landed between an edit's read and its write.
type fillAfterRead struct {
	*memListingRepo
}

func (r fillAfterRead) GetByID(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	l, err := r.memListingRepo.GetByID(ctx, id)
	if err != nil {
		return l, err
	}
	_ = r.memListingRepo.UpdateState(ctx, id, listing.StateFilled, l.UpdatedAt.Add(time.Second))
	return l, nil
}

func TestListings_UpdateDoesNotOverwriteConcurrentFill(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)
	repo := newMemListingRepo(l)
	uc := NewListingUsecase(fillAfterRead{repo}, newMemUserRepo(), listing.NewManager(), nil, nil, nil)

	title := "new title"
	_, err := uc.Update(context.Background(), l.ID, owner, listing.Patch{Title: &title})
	if !errors.Is(err, listing.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	stored, _ := repo.get(l.ID)
	if stored.State != listing.StateFilled || stored.Title != "a" {
		t.Fatalf("concurrent fill lost: state=%s title=%q", stored.State, stored.Title)
	}
}

func TestListings_DeleteNotifiesOnlyForPublic(t *testing.T) {
	owner := uuid.New()
	pub := seededListing(owner, "pub", listing.StateRecruiting)
	priv := seededListing(owner, "priv", listing.StatePrivate)
	repo := newMemListingRepo(pub, priv)
	n := &recordingNotifier{}
	uc := newListingsUC(repo, nil, newMemCache(), n)

	if err := uc.Delete(context.Background(), priv.ID, owner); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := uc.Delete(context.Background(), pub.ID, owner); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(n.events) != 1 || n.events[0].kind != "deleted" || n.events[0].id != pub.ID {
		t.Fatalf("expected exactly one delete event for the public listing, got %+v", n.events)
	}
	if err := uc.Delete(context.Background(), pub.ID, owner); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
}

func TestListings_DeleteByNonOwner(t *testing.T) {
	owner := uuid.New()
	pub := seededListing(owner, "pub", listing.StateFilled)
	uc := newListingsUC(newMemListingRepo(pub), nil, nil, nil)
	if err := uc.Delete(context.Background(), pub.ID, uuid.New()); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestListings_SuggestedPlayers(t *testing.T) {
	owner := uuid.New()
	l := seededListing(owner, "a", listing.StateRecruiting)

	healer := user.User{ID: uuid.New(), Username: "healer", DataCenter: "Aether", Server: "Gilgamesh", Roles: []string{"Healer"}, PasswordHash: "x", Email: "h@example.com"}
	tank := user.User{ID: uuid.New(), Username: "tank", DataCenter: "Aether", Roles: []string{"Tank"}}
	away := user.User{ID: uuid.New(), Username: "away", DataCenter: "Primal", Roles: []string{"Healer"}}
	me := user.User{ID: owner, Username: "owner", DataCenter: "Aether"}

	uc := newListingsUC(newMemListingRepo(l), newMemUserRepo(healer, tank, away, me), nil, nil)

	got, err := uc.SuggestedPlayers(context.Background(), l.ID, owner, 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
	if got[0].Player.ID != healer.ID || got[0].Score != 75 {
		t.Fatalf("expected healer first with 75, got %s %d", got[0].Player.Username, got[0].Score)
	}
	if got[1].Player.ID != tank.ID || got[1].Score != 50 {
		t.Fatalf("expected tank second with 50, got %s %d", got[1].Player.Username, got[1].Score)
	}
	if got[0].Player.PasswordHash != "" || got[0].Player.Email != "" {
		t.Fatalf("suggestions must not expose credentials")
	}

	if _, err := uc.SuggestedPlayers(context.Background(), l.ID, uuid.New(), 0); !errors.Is(err, listing.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-owner, got %v", err)
	}
}
