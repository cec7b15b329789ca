package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"raid-recruit/internal/domain/game"
	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/domain/matching"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
)

const (
	defaultListingPerPage = 20
	maxListingPerPage     = 100

	defaultSuggestionLimit = 20
	maxSuggestionLimit     = 100
	suggestionPoolSize     = 200

	listingLockTTL = 30 * time.Second
)

type ListingInput struct {
	Title          string
	Description    string
	ContentType    string
	ContentName    string
	DataCenter     string
	Server         string
	RolesNeeded    map[string]int
	Schedule       []string
	Requirements   map[string]any
	VoiceChat      string
	AdditionalInfo string
	State          string
}

type ListingListParams struct {
	DataCenter  string
	Server      string
	ContentType string
	State       string
	Page        int
	PerPage     int
}

type ListingPage struct {
	Items   []listing.Listing `json:"items"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
}

type PlayerSuggestion struct {
	Player  user.User
	Score   int
	Reasons []string
}

// ListingNotifier receives listing changes after they are stored. Only
// public listings are reported.
type ListingNotifier interface {
	ListingUpdated(id uuid.UUID, state listing.State)
	ListingDeleted(id uuid.UUID)
}

type ListingUsecase interface {
	Create(ctx context.Context, ownerID uuid.UUID, in ListingInput) (listing.Listing, error)
	Get(ctx context.Context, id uuid.UUID, requester *uuid.UUID) (listing.Listing, error)
	List(ctx context.Context, params ListingListParams, requester *uuid.UUID) (ListingPage, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]listing.Listing, error)
	Update(ctx context.Context, id, requester uuid.UUID, patch listing.Patch) (listing.Listing, error)
	ChangeState(ctx context.Context, id, requester uuid.UUID, state string) (listing.Listing, error)
	Delete(ctx context.Context, id, requester uuid.UUID) error
	SuggestedPlayers(ctx context.Context, id, requester uuid.UUID, limit int) ([]PlayerSuggestion, error)
}

type Listings struct {
	listings listing.Repository
	users    user.Repository
	manager  *listing.Manager
	cache    SearchCache
	notifier ListingNotifier
	logger   *log.Logger

	lockWait time.Duration
}

func NewListingUsecase(listings listing.Repository, users user.Repository, manager *listing.Manager, cache SearchCache, notifier ListingNotifier, logger *log.Logger) *Listings {
	if manager == nil {
		manager = listing.NewManager()
	}
	return &Listings{
		listings: listings,
		users:    users,
		manager:  manager,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
		lockWait: 300 * time.Millisecond,
	}
}

func (u *Listings) Create(ctx context.Context, ownerID uuid.UUID, in ListingInput) (listing.Listing, error) {
	l, err := u.manager.Create(ownerID, listing.Listing{
		Title:          in.Title,
		Description:    in.Description,
		ContentType:    in.ContentType,
		ContentName:    in.ContentName,
		DataCenter:     canonicalDataCenter(in.DataCenter),
		Server:         in.Server,
		RolesNeeded:    in.RolesNeeded,
		Schedule:       in.Schedule,
		Requirements:   in.Requirements,
		VoiceChat:      in.VoiceChat,
		AdditionalInfo: in.AdditionalInfo,
	}, in.State)
	if err != nil {
		return listing.Listing{}, err
	}

	if err := u.listings.Create(ctx, l); err != nil {
		u.logf("[Listings] Create failed owner=%s err=%v", ownerID, err)
		return listing.Listing{}, ErrInternal
	}
	u.logf("[Listings] Created id=%s owner=%s state=%s", l.ID, ownerID, l.State)

	u.afterWrite(ctx, listing.Listing{}, l)
	return l, nil
}

// Get returns ErrNotFound both for missing listings and for private listings
// the requester does not own.
func (u *Listings) Get(ctx context.Context, id uuid.UUID, requester *uuid.UUID) (listing.Listing, error) {
	l, err := u.load(ctx, id)
	if err != nil {
		return listing.Listing{}, err
	}
	if err := u.manager.CheckView(l, requester); err != nil {
		return listing.Listing{}, err
	}
	return l, nil
}

func (u *Listings) List(ctx context.Context, params ListingListParams, requester *uuid.UUID) (ListingPage, error) {
	if params.Page == 0 {
		params.Page = 1
	}
	if params.PerPage == 0 {
		params.PerPage = defaultListingPerPage
	}
	if params.Page < 0 || params.PerPage < 0 || params.PerPage > maxListingPerPage {
		return ListingPage{}, ErrInvalidInput
	}

	var st listing.State
	if strings.TrimSpace(params.State) != "" {
		parsed, err := listing.ParseState(params.State)
		if err != nil {
			return ListingPage{}, err
		}
		st = parsed
	}

	f := listing.Filter{
		DataCenter:  params.DataCenter,
		Server:      params.Server,
		ContentType: params.ContentType,
		State:       st,
		Viewer:      requester,
		Page:        params.Page,
		PerPage:     params.PerPage,
	}

	// Only anonymous pages are shared between requesters, so only those are cached.
	if requester != nil || u.cache == nil {
		return u.fetchPage(ctx, f)
	}

	cacheKey := ListingsSearchCacheKey(params)
	lockKey := ListingsSearchLockKey(cacheKey)

	if page, ok := u.cachedPage(ctx, cacheKey); ok {
		return page, nil
	}
	u.logf("[Listings] Cache MISS key=%s", cacheKey)

	lockAcquired := false
	ok, err := u.cache.SetIfNotExists(ctx, lockKey, "1", listingLockTTL)
	if err == nil && ok {
		lockAcquired = true
	} else if err == nil && !ok {
		jitter := time.Duration(time.Now().UnixNano()%201) * time.Millisecond
		select {
		case <-ctx.Done():
			return ListingPage{}, ctx.Err()
		case <-time.After(u.lockWait + jitter):
		}
		if page, ok := u.cachedPage(ctx, cacheKey); ok {
			return page, nil
		}
		u.logf("[Listings] Lock wait fallback key=%s", lockKey)
	}

	page, err := u.fetchPage(ctx, f)
	if err != nil {
		if lockAcquired {
			_ = u.cache.Delete(ctx, lockKey)
		}
		return ListingPage{}, err
	}

	if err := u.cache.SetJSON(ctx, cacheKey, page, 0); err == nil {
		u.logf("[Listings] Cache SET key=%s", cacheKey)
	}
	if lockAcquired {
		_ = u.cache.Delete(ctx, lockKey)
	}
	return page, nil
}

func (u *Listings) ListMine(ctx context.Context, ownerID uuid.UUID) ([]listing.Listing, error) {
	items, err := u.listings.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, ErrInternal
	}
	return items, nil
}

func (u *Listings) Update(ctx context.Context, id, requester uuid.UUID, patch listing.Patch) (listing.Listing, error) {
	if patch.IsEmpty() {
		return listing.Listing{}, ErrInvalidInput
	}
	l, err := u.Get(ctx, id, &requester)
	if err != nil {
		return listing.Listing{}, err
	}
	if patch.DataCenter != nil {
		dc := canonicalDataCenter(*patch.DataCenter)
		patch.DataCenter = &dc
	}

	updated, err := u.manager.ApplyEdit(l, requester, patch)
	if err != nil {
		return listing.Listing{}, err
	}
	if err := u.listings.Update(ctx, updated, l.UpdatedAt); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return listing.Listing{}, listing.ErrNotFound
		}
		if errors.Is(err, listing.ErrConflict) {
			u.logf("[Listings] Update lost a race id=%s err=%v", id, err)
			return listing.Listing{}, err
		}
		u.logf("[Listings] Update failed id=%s err=%v", id, err)
		return listing.Listing{}, ErrInternal
	}

	u.afterWrite(ctx, l, updated)
	return updated, nil
}

func (u *Listings) ChangeState(ctx context.Context, id, requester uuid.UUID, state string) (listing.Listing, error) {
	l, err := u.Get(ctx, id, &requester)
	if err != nil {
		return listing.Listing{}, err
	}

	changed, err := u.manager.ChangeState(l, requester, state)
	if err != nil {
		return listing.Listing{}, err
	}
	if err := u.listings.UpdateState(ctx, changed.ID, changed.State, changed.UpdatedAt); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return listing.Listing{}, listing.ErrNotFound
		}
		u.logf("[Listings] State change failed id=%s err=%v", id, err)
		return listing.Listing{}, ErrInternal
	}
	u.logf("[Listings] State changed id=%s from=%s to=%s", id, l.State, changed.State)

	u.afterWrite(ctx, l, changed)
	return changed, nil
}

func (u *Listings) Delete(ctx context.Context, id, requester uuid.UUID) error {
	l, err := u.Get(ctx, id, &requester)
	if err != nil {
		return err
	}
	if err := u.manager.AuthorizeDelete(l, requester); err != nil {
		return err
	}
	if err := u.listings.Delete(ctx, id); err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return listing.ErrNotFound
		}
		u.logf("[Listings] Delete failed id=%s err=%v", id, err)
		return ErrInternal
	}
	u.logf("[Listings] Deleted id=%s", id)

	u.invalidate(ctx)
	if u.notifier != nil && listing.CanView(l.State, false) {
		u.notifier.ListingDeleted(id)
	}
	return nil
}

// SuggestedPlayers ranks players on the listing's data center for its owner.
func (u *Listings) SuggestedPlayers(ctx context.Context, id, requester uuid.UUID, limit int) ([]PlayerSuggestion, error) {
	if limit == 0 {
		limit = defaultSuggestionLimit
	}
	if limit < 0 || limit > maxSuggestionLimit {
		return nil, ErrInvalidInput
	}

	l, err := u.Get(ctx, id, &requester)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(requester) {
		return nil, listing.ErrUnauthorized
	}

	players, err := u.users.SearchPlayers(ctx, user.PlayerFilter{
		DataCenter: l.DataCenter,
		ExcludeID:  l.OwnerID,
		Limit:      suggestionPoolSize,
	})
	if err != nil {
		return nil, ErrInternal
	}

	profiles := make([]matching.Profile, 0, len(players))
	for _, p := range players {
		profiles = append(profiles, profileFromUser(p))
	}

	ranked := matching.RankPlayers(matchListing(l), profiles)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]PlayerSuggestion, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, PlayerSuggestion{
			Player:  sanitizeUser(players[r.Index]),
			Score:   r.Score,
			Reasons: r.Reasons,
		})
	}
	return out, nil
}

func (u *Listings) load(ctx context.Context, id uuid.UUID) (listing.Listing, error) {
	l, err := u.listings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return listing.Listing{}, listing.ErrNotFound
		}
		return listing.Listing{}, ErrInternal
	}
	return l, nil
}

func (u *Listings) fetchPage(ctx context.Context, f listing.Filter) (ListingPage, error) {
	items, total, err := u.listings.List(ctx, f)
	if err != nil {
		u.logf("[Listings] List failed err=%v", err)
		return ListingPage{}, ErrInternal
	}
	return ListingPage{Items: items, Total: total, Page: f.Page, PerPage: f.PerPage}, nil
}

func (u *Listings) cachedPage(ctx context.Context, key string) (ListingPage, bool) {
	var cached ListingPage
	hit, err := u.cache.GetJSON(ctx, key, &cached)
	if err != nil || !hit {
		return ListingPage{}, false
	}
	u.logf("[Listings] Cache HIT key=%s", key)
	return cached, true
}

// afterWrite invalidates cached pages and reports the change. A listing that
// went from public to private is reported as deleted so feeds drop it.
func (u *Listings) afterWrite(ctx context.Context, prev, l listing.Listing) {
	u.invalidate(ctx)
	if u.notifier == nil {
		return
	}
	switch {
	case listing.CanView(l.State, false):
		u.notifier.ListingUpdated(l.ID, l.State)
	case listing.CanView(prev.State, false):
		u.notifier.ListingDeleted(l.ID)
	}
}

func (u *Listings) invalidate(ctx context.Context) {
	if u.cache == nil {
		return
	}
	if err := u.cache.InvalidateListings(ctx); err != nil {
		u.logf("[Listings] Cache invalidate failed err=%v", err)
	}
}

func (u *Listings) logf(format string, args ...any) {
	if u.logger != nil {
		u.logger.Printf(format, args...)
	}
}

func canonicalDataCenter(dc string) string {
	if c, ok := game.CanonicalDataCenter(dc); ok {
		return c
	}
	return strings.TrimSpace(dc)
}

func profileFromUser(u user.User) matching.Profile {
	return matching.Profile{
		UserID:             u.ID,
		DataCenter:         u.DataCenter,
		Server:             u.Server,
		Roles:              u.Roles,
		Bio:                u.Bio,
		ProgressionEntries: len(u.Progression),
		Availability:       u.Availability,
	}
}

func matchListing(l listing.Listing) matching.Listing {
	return matching.Listing{
		ID:          l.ID,
		DataCenter:  l.DataCenter,
		Server:      l.Server,
		RolesNeeded: l.RolesNeeded,
		ContentType: l.ContentType,
		Schedule:    l.Schedule,
	}
}

func sanitizeUser(u user.User) user.User {
	u.PasswordHash = ""
	u.Email = ""
	return u
}
