package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gotyolo/tripbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

// fakeExpirer counts runs and can block until released to simulate a
// long-running sweep.
type fakeExpirer struct {
	runs    atomic.Int64
	err     error
	blockOn chan struct{}
}

func (f *fakeExpirer) ExpirePending(ctx context.Context) ([]domain.ExpiredHold, error) {
	f.runs.Add(1)
	if f.blockOn != nil {
		<-f.blockOn
	}
	if f.err != nil {
		return nil, f.err
	}
	return []domain.ExpiredHold{{BookingID: "b-1", TripID: "trip-1", NumSeats: 1}}, nil
}

func TestSweeper_RunOnce(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Minute)

	s.RunOnce(context.Background())

	assert.Equal(t, int64(1), expirer.runs.Load())
}

func TestSweeper_RunOnce_SwallowsErrors(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("database unavailable")}
	s := New(expirer, time.Minute)

	// Must not panic and must leave the sweeper usable for the next tick.
	s.RunOnce(context.Background())
	expirer.err = nil
	s.RunOnce(context.Background())

	assert.Equal(t, int64(2), expirer.runs.Load())
}

func TestSweeper_SkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	expirer := &fakeExpirer{blockOn: release}
	s := New(expirer, time.Minute)

	firstStarted := make(chan struct{})
	go func() {
		close(firstStarted)
		s.RunOnce(context.Background())
	}()

	<-firstStarted
	// Wait for the first run to take the busy flag.
	for !s.busy.Load() {
		time.Sleep(time.Millisecond)
	}

	// Overlapping call returns immediately without invoking the expirer.
	s.RunOnce(context.Background())
	assert.Equal(t, int64(1), expirer.runs.Load())

	close(release)

	// Flag is released once the first run finishes.
	for s.busy.Load() {
		time.Sleep(time.Millisecond)
	}
	s.RunOnce(context.Background())
	assert.Equal(t, int64(2), expirer.runs.Load())
}

func TestSweeper_StartRunsImmediately(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Hour)

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(time.Second)
	for expirer.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected an immediate sweep on start")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSweeper_StopWaitsForLoop(t *testing.T) {
	expirer := &fakeExpirer{}
	s := New(expirer, time.Hour)

	s.Start(context.Background())

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}
}
