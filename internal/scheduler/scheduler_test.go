package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"scorebook/pipeline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(interval time.Duration) *config.Config {
	return &config.Config{
		NightlyRebuildCron: "0 2 * * *",
		RefreshInterval:    interval,
	}
}

func TestScheduler_RunNow(t *testing.T) {
	var calls atomic.Int32
	var gotTrigger atomic.Value

	s := NewScheduler(testConfig(time.Hour), func(ctx context.Context, trigger string) error {
		calls.Add(1)
		gotTrigger.Store(trigger)
		return nil
	})

	err := s.RunNow(context.Background(), "initial")
	require.NoError(t, err, "Run should succeed")
	assert.Equal(t, int32(1), calls.Load(), "Run function should be called once")
	assert.Equal(t, "initial", gotTrigger.Load(), "Trigger should be passed through")
}

func TestScheduler_RunNow_PropagatesError(t *testing.T) {
	wantErr := errors.New("feed unavailable")

	s := NewScheduler(testConfig(time.Hour), func(ctx context.Context, trigger string) error {
		return wantErr
	})

	err := s.RunNow(context.Background(), "nightly")
	assert.ErrorIs(t, err, wantErr, "Run errors should propagate to the caller")
}

func TestScheduler_RunNow_RejectsOverlap(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	s := NewScheduler(testConfig(time.Hour), func(ctx context.Context, trigger string) error {
		close(started)
		<-release
		return nil
	})

	done := make(chan error, 1)
	go func() {
		done <- s.RunNow(context.Background(), "nightly")
	}()

	<-started

	err := s.RunNow(context.Background(), "refresh")
	assert.ErrorIs(t, err, ErrRunInProgress, "Overlapping trigger should be rejected")

	close(release)
	require.NoError(t, <-done, "First run should still complete")

	// The guard resets once the run finishes
	err = s.RunNow(context.Background(), "refresh")
	assert.NoError(t, err, "Next trigger should run after the first completes")
}

func TestScheduler_StartStop(t *testing.T) {
	ran := make(chan string, 8)

	s := NewScheduler(testConfig(10*time.Millisecond), func(ctx context.Context, trigger string) error {
		select {
		case ran <- trigger:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Start(ctx), "Scheduler should start")

	select {
	case trigger := <-ran:
		assert.Equal(t, "refresh", trigger, "Ticker should fire refresh runs")
	case <-time.After(2 * time.Second):
		t.Fatal("Refresh tick never fired")
	}

	s.Stop()
}

func TestScheduler_Start_InvalidCron(t *testing.T) {
	cfg := testConfig(time.Hour)
	cfg.NightlyRebuildCron = "not a cron spec"

	s := NewScheduler(cfg, func(ctx context.Context, trigger string) error { return nil })

	err := s.Start(context.Background())
	require.Error(t, err, "Invalid cron spec should fail startup")
	assert.Contains(t, err.Error(), "failed to schedule nightly rebuild")
}
