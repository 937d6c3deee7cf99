package sweeper

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gotyolo/tripbooking/internal/domain"
)

// Expirer is the slice of the booking service the sweeper needs.
type Expirer interface {
	ExpirePending(ctx context.Context) ([]domain.ExpiredHold, error)
}

// Sweeper reclaims abandoned holds on a fixed tick. It never propagates
// errors: expired rows stay PENDING_PAYMENT on failure and the next tick
// retries them naturally.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration

	busy atomic.Bool
	stop chan struct{}
	wg   sync.WaitGroup
}

func New(expirer Expirer, interval time.Duration) *Sweeper {
	return &Sweeper{
		expirer:  expirer,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the tick loop. One run fires immediately to catch backlog
// from downtime. The loop stops on Stop or when ctx is cancelled; a tick in
// flight finishes, it is not interrupted mid-sweep.
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.RunOnce(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()
	log.Printf("[sweeper] started, sweeping every %v", s.interval)
}

func (s *Sweeper) Stop() {
	close(s.stop)
	s.wg.Wait()
	log.Println("[sweeper] stopped")
}

// RunOnce performs a single sweep. The busy flag drops overlapping ticks
// within this process; across processes SKIP LOCKED partitions the work.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if !s.busy.CompareAndSwap(false, true) {
		log.Println("[sweeper] previous run still in progress, skipping tick")
		return
	}
	defer s.busy.Store(false)

	expired, err := s.expirer.ExpirePending(ctx)
	if err != nil {
		log.Printf("[sweeper] expiry run failed: %v", err)
		return
	}
	if len(expired) > 0 {
		log.Printf("[sweeper] expired %d booking(s)", len(expired))
	}
}
