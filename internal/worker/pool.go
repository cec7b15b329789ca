package worker

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of work. Key identifies it in the matching Result.
type Task struct {
	Key string
	Do  func(ctx context.Context) error
}

type Result struct {
	Key string
	Err error
}

// Pool runs tasks on a fixed number of goroutines, optionally spacing task
// starts to a requests-per-second budget shared by all workers.
type Pool struct {
	workers  int
	interval time.Duration
}

func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// SetRateLimit caps task starts per second across the pool. rps <= 0
// removes the cap.
func (p *Pool) SetRateLimit(rps int) {
	if p == nil {
		return
	}
	if rps <= 0 {
		p.interval = 0
		return
	}
	p.interval = time.Second / time.Duration(rps)
}

// Run consumes tasks until the channel is closed or ctx is done. The result
// channel is closed once every worker has returned.
func (p *Pool) Run(ctx context.Context, tasks <-chan Task) <-chan Result {
	out := make(chan Result, p.workers)

	var rate <-chan time.Time
	var ticker *time.Ticker
	if p.interval > 0 {
		ticker = time.NewTicker(p.interval)
		rate = ticker.C
	}

	var wg sync.WaitGroup
	wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-tasks:
					if !ok {
						return
					}
					if t.Do == nil {
						continue
					}
					if rate != nil {
						select {
						case <-ctx.Done():
							return
						case <-rate:
						}
					}
					err := t.Do(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Key: t.Key, Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		if ticker != nil {
			ticker.Stop()
		}
		close(out)
	}()

	return out
}

// Feed sends tasks on a fresh channel and closes it when done or when ctx
// is canceled.
func Feed(ctx context.Context, tasks []Task) <-chan Task {
	ch := make(chan Task)
	go func() {
		defer close(ch)
		for _, t := range tasks {
			select {
			case <-ctx.Done():
				return
			case ch <- t:
			}
		}
	}()
	return ch
}
