package worker

import (
	"context"
	"testing"
	"time"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/repository"
)

func TestRetentionSweepRemovesLongArchivedTasks(t *testing.T) {
	tasks := repository.NewMemoryTaskRepository()

	archived, err := tasks.Create("old", "d", "user-1", domain.StatusArchived)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	active, err := tasks.Create("active", "d", "user-1", domain.StatusTodo)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Zero retention makes anything archived before the sweep eligible
	w := NewRetentionWorker(tasks, nil, 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		got, err := tasks.FindByID(archived.ID)
		if err != nil {
			t.Fatalf("lookup failed: %v", err)
		}
		if got == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("archived task was never purged")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("worker did not stop on cancel")
	}

	// Non-archived tasks are untouched regardless of age
	got, err := tasks.FindByID(active.ID)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got == nil {
		t.Fatalf("active task was purged")
	}
}

func TestPurgeArchivedBeforeHonorsCutoff(t *testing.T) {
	tasks := repository.NewMemoryTaskRepository()

	recent, err := tasks.Create("recent", "d", "user-1", domain.StatusArchived)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A cutoff in the past matches nothing created just now
	purged, err := tasks.PurgeArchivedBefore(time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 0 {
		t.Fatalf("expected nothing purged, got %d", purged)
	}

	purged, err = tasks.PurgeArchivedBefore(time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	if got, _ := tasks.FindByID(recent.ID); got != nil {
		t.Fatalf("expected archived task to be gone")
	}
}
