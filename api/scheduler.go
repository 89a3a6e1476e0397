/*
scheduler.go - Automated expiry sweep scheduler

PURPOSE:
  Periodically runs the expiry sweeper so employees whose approved leave
  has elapsed return to Working without manual intervention.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each run processes expired records independently; a failure on one
    record does not block the others
  - Records sweep runs for audit and UI display
  - Safe to run alongside manual sweeps: the sweep itself is idempotent

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSweepScheduler(store, handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerSweep endpoint (manual sweep)
  - generic/sweeper.go: the sweep mechanics
*/
package api

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/warp/lifecycle-engine/generic"
	"github.com/warp/lifecycle-engine/store/sqlite"
)

// SweepScheduler runs the expiry sweeper on a timer.
type SweepScheduler struct {
	Store         *sqlite.Store
	Handler       *Handler
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSweepScheduler creates a new scheduler.
func NewSweepScheduler(store *sqlite.Store, handler *Handler) *SweepScheduler {
	return &SweepScheduler{
		Store:         store,
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SweepScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler.
func (ss *SweepScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SweepScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.sweep()

	for {
		select {
		case <-ss.ticker.C:
			ss.sweep()
		case <-ss.stop:
			return
		}
	}
}

func (ss *SweepScheduler) sweep() {
	ctx := context.Background()
	asOf := generic.Today()
	startedAt := time.Now().UTC()

	run := sqlite.SweepRun{
		ID:        fmt.Sprintf("sweep-%d", startedAt.UnixNano()),
		AsOf:      asOf,
		StartedAt: startedAt,
	}
	if err := ss.Store.SaveSweepRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Error recording sweep run: %v", err)
		return
	}

	reverted, err := ss.Handler.Leave.SweepExpired(ctx, asOf)
	run.Reverted = reverted
	if err != nil {
		run.Error = err.Error()
		log.Printf("[Scheduler] Sweep error: %v", err)
	}

	completedAt := time.Now().UTC()
	run.CompletedAt = &completedAt
	if err := ss.Store.SaveSweepRun(ctx, run); err != nil {
		log.Printf("[Scheduler] Error updating sweep run: %v", err)
	}

	if reverted > 0 {
		log.Printf("[Scheduler] Sweep completed: %d employees reverted to working", reverted)
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ss *SweepScheduler) RunNow() {
	ss.sweep()
}

// GetNextRunTime returns when the next scheduled sweep will occur.
func (ss *SweepScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ss.CheckInterval)
}
