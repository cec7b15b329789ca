package usecase

import (
	"context"
	"errors"
	"log"

	"raid-recruit/internal/domain/listing"
	"raid-recruit/internal/domain/matching"
	"raid-recruit/internal/domain/user"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const recommendationPoolSize = 500

type RecommendationParams struct {
	Limit    int
	MinScore int
}

type Recommendation struct {
	Listing listing.Listing
	Score   int
	Reasons []string
}

type RecommendationUsecase interface {
	Recommend(ctx context.Context, userID uuid.UUID, params RecommendationParams) ([]Recommendation, error)
}

type Recommendations struct {
	users    user.Repository
	listings listing.Repository
	logger   *log.Logger
}

func NewRecommendationUsecase(users user.Repository, listings listing.Repository, logger *log.Logger) *Recommendations {
	return &Recommendations{users: users, listings: listings, logger: logger}
}

// Recommend ranks recruiting listings for the user. Results are computed on
// every call; they depend on both the profile and the live listings.
func (u *Recommendations) Recommend(ctx context.Context, userID uuid.UUID, params RecommendationParams) ([]Recommendation, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	minScore := params.MinScore
	if minScore < 0 {
		minScore = 0
	}
	if minScore > 100 {
		return nil, ErrInvalidInput
	}

	var (
		me         user.User
		candidates []listing.Listing
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		me, err = u.users.GetUserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		candidates, err = u.listings.ListRecruiting(gctx, userID, recommendationPoolSize)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		if u.logger != nil {
			u.logger.Printf("[Recommend] Load failed user=%s err=%v", userID, err)
		}
		return nil, ErrInternal
	}

	targets := make([]matching.Listing, 0, len(candidates))
	for _, l := range candidates {
		targets = append(targets, matchListing(l))
	}

	ranked := matching.Rank(profileFromUser(me), targets)
	out := make([]Recommendation, 0, limit)
	for _, r := range ranked {
		if r.Score < minScore {
			break
		}
		out = append(out, Recommendation{
			Listing: candidates[r.Index],
			Score:   r.Score,
			Reasons: r.Reasons,
		})
		if len(out) == limit {
			break
		}
	}

	if u.logger != nil {
		u.logger.Printf("[Recommend] user=%s candidates=%d ranked=%d returned=%d", userID, len(candidates), len(ranked), len(out))
	}
	return out, nil
}
