// Package progress drives staged background jobs. A job is a fixed series
// of steps applied one timer at a time; the step table is data, so scan
// and try-on pipelines share one driver with different schedules.
package progress

import (
	"context"
	"sync"
	"time"
)

// Step is one stage of a job: after Delay, progress jumps to Progress with
// the given status message. A Progress of 100 is the completing step.
type Step struct {
	Progress int
	Message  string
	Delay    time.Duration
}

// ApplyFunc applies one fired step to the job's state. It must re-read the
// current state and return false to stop the run, either because the job
// is already terminal (cancelled under the timer) or because applying
// failed. Returning true arms the next step's timer.
type ApplyFunc func(ctx context.Context, step Step) bool

// Runner tracks one cancellable goroutine per job id.
type Runner struct {
	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

func NewRunner() *Runner {
	return &Runner{active: make(map[string]context.CancelFunc)}
}

// Launch starts the job's driver goroutine. The id must not have a live
// run; jobs are launched exactly once at creation.
func (r *Runner) Launch(id string, steps []Step, apply ApplyFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.active[id] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.release(id)
		for _, step := range steps {
			timer := time.NewTimer(step.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if !apply(ctx, step) {
				return
			}
		}
	}()
}

// Cancel stops the job's pending timers. Already-fired steps are the
// caller's business; ApplyFunc's state re-read covers that window.
func (r *Runner) Cancel(id string) {
	r.mu.Lock()
	cancel, ok := r.active[id]
	delete(r.active, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	cancel, ok := r.active[id]
	delete(r.active, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// Active reports how many jobs currently have a live driver.
func (r *Runner) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// Wait blocks until every launched driver has returned. Used on shutdown
// and by tests that need the schedule drained.
func (r *Runner) Wait() {
	r.wg.Wait()
}
