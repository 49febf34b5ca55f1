package core

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestMemoryStore_PruneDetections(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	now := time.Now()

	ages := []time.Duration{72 * time.Hour, 48 * time.Hour, time.Hour, 0}
	for _, age := range ages {
		store.InsertDetection(ctx, HistoryRecord{ID: uuid.New(), CreatedAt: now.Add(-age)})
	}

	n, err := store.PruneDetections(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneDetections() error = %v", err)
	}
	if n != 2 {
		t.Errorf("pruned = %d, want 2", n)
	}

	left, _ := store.ListDetections(ctx, 10)
	if len(left) != 2 {
		t.Fatalf("remaining = %d, want 2", len(left))
	}
	for _, rec := range left {
		if now.Sub(rec.CreatedAt) > 24*time.Hour {
			t.Errorf("old record survived: %v", rec.CreatedAt)
		}
	}
}

func TestRunRetentionJob(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()

	store.InsertDetection(ctx, HistoryRecord{ID: uuid.New(), CreatedAt: time.Now().AddDate(0, 0, -40)})
	store.InsertDetection(ctx, HistoryRecord{ID: uuid.New(), CreatedAt: time.Now()})

	if n := svc.runRetentionJob(ctx, 30); n != 1 {
		t.Errorf("runRetentionJob() = %d, want 1", n)
	}
}

func TestStartRetentionScheduler_StopsOnCancel(t *testing.T) {
	svc, _ := newTestService(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartRetentionScheduler(ctx, RetentionConfig{RetentionDays: 1, Interval: 10 * time.Millisecond})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestStartRetentionScheduler_Disabled(t *testing.T) {
	svc, _ := newTestService(t, nil)

	done := make(chan struct{})
	go func() {
		svc.StartRetentionScheduler(context.Background(), RetentionConfig{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled scheduler should return immediately")
	}
}
