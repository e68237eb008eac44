package monitor

import (
	"context"
	"log"
	"sync/atomic"
	"time"
)

// Scheduler fires monitoring cycles on a fixed wall-clock interval and a
// retention pass once a day. Only one cycle runs at a time: a tick that
// arrives while the previous cycle is still in flight is skipped, not queued.
type Scheduler struct {
	svc            *Service
	interval       time.Duration
	cycleTimeout   time.Duration
	retentionEvery time.Duration
	inFlight       atomic.Bool
}

func NewScheduler(svc *Service, interval, cycleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		svc:            svc,
		interval:       interval,
		cycleTimeout:   cycleTimeout,
		retentionEvery: 24 * time.Hour,
	}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	retention := time.NewTicker(s.retentionEvery)
	defer retention.Stop()

	log.Printf("monitor: scheduler started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("monitor: scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		case <-retention.C:
			if err := s.svc.RunRetention(ctx); err != nil {
				log.Printf("monitor: retention: %v", err)
			}
		}
	}
}

// tick starts one cycle in the background, guarded so cycles never overlap
// even when a cycle overruns the interval.
func (s *Scheduler) tick(ctx context.Context) {
	if !s.inFlight.CompareAndSwap(false, true) {
		log.Printf("monitor: previous cycle still running, skipping tick")
		return
	}
	go func() {
		defer s.inFlight.Store(false)
		cctx, cancel := context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()

		start := time.Now()
		if err := s.svc.RunCycle(cctx); err != nil {
			log.Printf("monitor: cycle failed: %v", err)
			return
		}
		log.Printf("monitor: cycle finished in %s", time.Since(start).Round(time.Millisecond))
	}()
}
