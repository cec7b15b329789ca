package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"raid-recruit/internal/domain/user"
	"raid-recruit/internal/worker"

	"github.com/google/uuid"
)

const (
	refreshLockPrefix = "lodestone:refresh:"
	defaultPageSize   = 100
	defaultLockTTL    = 2 * time.Minute
	defaultRPS        = 2
)

var errLocked = errors.New("character locked by another worker")

type LinkedCharacters interface {
	ListLinkedLodestone(ctx context.Context, limit, offset int) ([]user.User, error)
}

type CharacterRefresher interface {
	RefreshCharacter(ctx context.Context, usr user.User) error
}

// Locker is the subset of the Redis cache used for per-character locks.
type Locker interface {
	Ping(ctx context.Context) error
	SetIfNotExists(ctx context.Context, key string, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}

type Summary struct {
	Total     int `json:"total"`
	Refreshed int `json:"refreshed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// Refresher re-reads every linked Lodestone character through a bounded
// worker pool.
type Refresher struct {
	users    LinkedCharacters
	svc      CharacterRefresher
	locker   Locker
	workers  int
	rps      int
	pageSize int
	lockTTL  time.Duration
	instance string
	logger   *log.Logger
}

func NewRefresher(users LinkedCharacters, svc CharacterRefresher, locker Locker, workers int, logger *log.Logger) *Refresher {
	if workers <= 0 {
		workers = 1
	}
	return &Refresher{
		users:    users,
		svc:      svc,
		locker:   locker,
		workers:  workers,
		rps:      defaultRPS,
		pageSize: defaultPageSize,
		lockTTL:  defaultLockTTL,
		instance: uuid.NewString(),
		logger:   logger,
	}
}

func (r *Refresher) RunOnce(ctx context.Context) (Summary, error) {
	start := time.Now()

	var linked []user.User
	for offset := 0; ; offset += r.pageSize {
		page, err := r.users.ListLinkedLodestone(ctx, r.pageSize, offset)
		if err != nil {
			return Summary{}, fmt.Errorf("list linked characters: %w", err)
		}
		linked = append(linked, page...)
		if len(page) < r.pageSize {
			break
		}
	}

	sum := Summary{Total: len(linked)}
	if len(linked) == 0 {
		r.logf("[Refresh] nothing to refresh")
		return sum, nil
	}

	locking := r.locker != nil && r.locker.Ping(ctx) == nil
	if !locking {
		r.logf("[Refresh] running without locks")
	}

	tasks := make([]worker.Task, 0, len(linked))
	for _, u := range linked {
		tasks = append(tasks, worker.Task{
			Key: u.ID.String(),
			Do: func(ctx context.Context) error {
				return r.refreshOne(ctx, u, locking)
			},
		})
	}

	pool := worker.NewPool(r.workers)
	pool.SetRateLimit(r.rps)
	for res := range pool.Run(ctx, worker.Feed(ctx, tasks)) {
		switch {
		case res.Err == nil:
			sum.Refreshed++
		case errors.Is(res.Err, errLocked):
			sum.Skipped++
		default:
			sum.Failed++
			r.logf("[Refresh] failed user_id=%s err=%v", res.Key, res.Err)
		}
	}

	r.logf("[Refresh] done total=%d refreshed=%d skipped=%d failed=%d duration_ms=%d",
		sum.Total, sum.Refreshed, sum.Skipped, sum.Failed, time.Since(start).Milliseconds())
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (r *Refresher) refreshOne(ctx context.Context, u user.User, locking bool) error {
	if locking {
		key := refreshLockPrefix + u.LodestoneID
		ok, err := r.locker.SetIfNotExists(ctx, key, r.instance, r.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errLocked
		}
		defer func() {
			_ = r.locker.Delete(context.WithoutCancel(ctx), key)
		}()
	}
	return r.svc.RefreshCharacter(ctx, u)
}

func (r *Refresher) logf(format string, args ...any) {
	if r.logger == nil {
		return
	}
	r.logger.Printf(format, args...)
}
