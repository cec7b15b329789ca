package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"raid-recruit/internal/domain/application"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

type memListingRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]listing.Listing
	lists int
	err   error
}

func newMemListingRepo(items ...listing.Listing) *memListingRepo {
	r := &memListingRepo{items: map[uuid.UUID]listing.Listing{}}
	for _, l := range items {
		r.items[l.ID] = l
	}
	return r
}

func (r *memListingRepo) Create(_ context.Context, l listing.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.items[l.ID] = l
	return nil
}

func (r *memListingRepo) GetByID(_ context.Context, id uuid.UUID) (listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}
	return l, nil
}

func (r *memListingRepo) List(_ context.Context, f listing.Filter) ([]listing.Listing, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lists++
	if r.err != nil {
		return nil, 0, r.err
	}
	out := make([]listing.Listing, 0)
	for _, l := range r.items {
		isOwner := f.Viewer != nil && l.IsOwnedBy(*f.Viewer)
		if !listing.CanView(l.State, isOwner) {
			continue
		}
		if f.DataCenter != "" && !strings.EqualFold(f.DataCenter, l.DataCenter) {
			continue
		}
		if f.State != "" && f.State != l.State {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, len(out), nil
}

func (r *memListingRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]listing.Listing, 0)
	for _, l := range r.items {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memListingRepo) Update(_ context.Context, l listing.Listing, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.items[l.ID]
	if !ok {
		return listing.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(prevUpdatedAt) || cur.State == listing.StateFilled {
		return fmt.Errorf("%w: listing changed since it was read", listing.ErrConflict)
	}
	r.items[l.ID] = l
	return nil
}

func (r *memListingRepo) UpdateState(_ context.Context, id uuid.UUID, st listing.State, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return listing.ErrNotFound
	}
	l.State = st
	l.UpdatedAt = updatedAt
	r.items[id] = l
	return nil
}

func (r *memListingRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return listing.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memListingRepo) ListRecruiting(_ context.Context, excludeOwner uuid.UUID, limit int) ([]listing.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]listing.Listing, 0)
	for _, l := range r.items {
		if l.State == listing.StateRecruiting && l.OwnerID != excludeOwner {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memListingRepo) get(id uuid.UUID) (listing.Listing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	return l, ok
}

type memApplicationRepo struct {
	mu       sync.Mutex
	items    map[uuid.UUID]application.Application
	listings *memListingRepo
}

func newMemApplicationRepo(listings *memListingRepo) *memApplicationRepo {
	return &memApplicationRepo{items: map[uuid.UUID]application.Application{}, listings: listings}
}

func (r *memApplicationRepo) Create(_ context.Context, a application.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ListingID == a.ListingID && it.ApplicantID == a.ApplicantID {
			return application.ErrDuplicate
		}
	}
	if r.listings != nil {
		r.listings.mu.Lock()
		st := r.listings.items[a.ListingID].State
		r.listings.mu.Unlock()
		if st != listing.StateRecruiting {
			return fmt.Errorf("%w: listing stopped recruiting", listing.ErrInvalidState)
		}
	}
	r.items[a.ID] = a
	r.bump(a.ListingID, 1)
	return nil
}

func (r *memApplicationRepo) bump(listingID uuid.UUID, delta int) {
	if r.listings == nil {
		return
	}
	r.listings.mu.Lock()
	defer r.listings.mu.Unlock()
	l := r.listings.items[listingID]
	l.ApplicationCount += delta
	if l.ApplicationCount < 0 {
		l.ApplicationCount = 0
	}
	r.listings.items[listingID] = l
}

func (r *memApplicationRepo) GetByID(_ context.Context, id uuid.UUID) (application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return application.Application{}, application.ErrNotFound
	}
	return a, nil
}

func (r *memApplicationRepo) Exists(_ context.Context, listingID, applicantID uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.ListingID == listingID && it.ApplicantID == applicantID {
			return true, nil
		}
	}
	return false, nil
}

func (r *memApplicationRepo) ListByApplicant(_ context.Context, applicantID uuid.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, it := range r.items {
		if it.ApplicantID == applicantID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memApplicationRepo) ListByListing(_ context.Context, listingID uuid.UUID) ([]application.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]application.Application, 0)
	for _, it := range r.items {
		if it.ListingID == listingID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *memApplicationRepo) UpdateStatus(_ context.Context, id uuid.UUID, st application.Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return application.ErrNotFound
	}
	a.Status = st
	a.UpdatedAt = updatedAt
	r.items[id] = a
	return nil
}

func (r *memApplicationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.items[id]
	if !ok {
		return application.ErrNotFound
	}
	delete(r.items, id)
	r.bump(a.ListingID, -1)
	return nil
}

type memUserRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]user.User
	err   error
}

func newMemUserRepo(users ...user.User) *memUserRepo {
	r := &memUserRepo{items: map[uuid.UUID]user.User{}}
	for _, u := range users {
		r.items[u.ID] = u
	}
	return r
}

func (r *memUserRepo) CreateUser(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, it := range r.items {
		if it.Email == u.Email || strings.EqualFold(it.Username, u.Username) {
			return user.ErrAlreadyExists
		}
	}
	r.items[u.ID] = u
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id uuid.UUID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return user.User{}, r.err
	}
	u, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *memUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.items {
		if strings.EqualFold(u.Username, username) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) UpdateProfile(context.Context, uuid.UUID, user.ProfileUpdate) error {
	return nil
}

func (r *memUserRepo) SearchPlayers(_ context.Context, f user.PlayerFilter) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]user.User, 0)
	for _, u := range r.items {
		if u.ID == f.ExcludeID {
			continue
		}
		if f.DataCenter != "" && !strings.EqualFold(u.DataCenter, f.DataCenter) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *memUserRepo) SetLodestone(context.Context, uuid.UUID, user.LodestoneCharacter) error {
	return nil
}

func (r *memUserRepo) ClearLodestone(context.Context, uuid.UUID) error {
	return nil
}

func (r *memUserRepo) ListLinkedLodestone(context.Context, int, int) ([]user.User, error) {
	return nil, nil
}

type memCache struct {
	mu          sync.Mutex
	data        map[string][]byte
	locks       map[string]bool
	invalidated int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, locks: map[string]bool{}}
}

func (c *memCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = b
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	delete(c.locks, key)
	return nil
}

func (c *memCache) SetIfNotExists(_ context.Context, key string, _ string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func (c *memCache) InvalidateListings(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	for k := range c.data {
		if strings.HasPrefix(k, listingSearchPrefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type notification struct {
	kind  string
	id    uuid.UUID
	state listing.State
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) ListingUpdated(id uuid.UUID, state listing.State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: "updated", id: id, state: state})
}

func (n *recordingNotifier) ListingDeleted(id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{kind: "deleted", id: id})
}
