/*
scheduler.go - Automated expiry sweep

PURPOSE:
  Periodically expires ACTIVE assignments whose end date has elapsed and
  closes projects the sweep drains. Assignments contested by a pending
  extend request are left alone until the request resolves.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass is a single transaction in the engine (ExpireDue)
  - Idempotent: a pass that finds nothing due writes nothing

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewExpirySweeper(engine)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - staffing/sweep.go: ExpireDue, the transactional pass itself
  - cmd/server/main.go: wiring and interval flag
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/warp/staffing-engine/staffing"
)

// ExpirySweeper runs the assignment expiry pass on a timer.
type ExpirySweeper struct {
	Engine        *staffing.Engine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewExpirySweeper creates a new sweeper.
func NewExpirySweeper(engine *staffing.Engine) *ExpirySweeper {
	return &ExpirySweeper{
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the sweeper.
func (es *ExpirySweeper) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.wg.Add(1)

	go es.run()

	log.Printf("[Sweeper] Started with check interval: %v", es.CheckInterval)
}

// Stop stops the sweeper.
func (es *ExpirySweeper) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		log.Println("[Sweeper] Stopped")
	}
}

func (es *ExpirySweeper) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep()

	for {
		select {
		case <-es.ticker.C:
			es.sweep()
		case <-es.stop:
			return
		}
	}
}

func (es *ExpirySweeper) sweep() {
	ctx := context.Background()
	today := staffing.Today()

	result, err := es.Engine.ExpireDue(ctx, today)
	if err != nil {
		log.Printf("[Sweeper] Error expiring assignments: %v", err)
		return
	}

	if len(result.Expired) > 0 || result.Skipped > 0 {
		log.Printf("[Sweeper] Completed: %d expired, %d projects closed, %d skipped (pending extend)",
			len(result.Expired), len(result.ProjectsClosed), result.Skipped)
	}
}

// RunNow triggers an immediate pass (for testing/admin).
func (es *ExpirySweeper) RunNow() {
	es.sweep()
}
