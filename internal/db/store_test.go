package db

import (
	"context"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/tasks/taskstest"
)

func TestStoreContract(t *testing.T) {
	taskstest.RunContract(t, func(t *testing.T, now func() time.Time) tasks.Repository {
		store, cleanup := newTestStore(t, WithClock(now))
		t.Cleanup(cleanup)
		return store
	})
}

func TestAddRoundTripsTimestamps(t *testing.T) {
	created := time.Date(2024, 3, 4, 5, 6, 7, 890, time.UTC)
	store, cleanup := newTestStore(t, WithClock(func() time.Time { return created }))
	defer cleanup()

	task, err := store.Add(context.Background(), model.NewTask{Title: "Write tests", Description: "Add coverage"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.ID == 0 {
		t.Fatalf("expected task ID to be set")
	}
	if !task.CreatedAt.Equal(created) {
		t.Fatalf("expected createdAt %v, got %v", created, task.CreatedAt)
	}
	if task.UpdatedAt != nil {
		t.Fatalf("expected updatedAt to be nil")
	}

	reloaded, ok, err := store.Get(context.Background(), task.ID)
	if err != nil || !ok {
		t.Fatalf("get task: ok=%v err=%v", ok, err)
	}
	if reloaded.Description != "Add coverage" {
		t.Fatalf("expected description to persist, got %q", reloaded.Description)
	}
}

func TestIDsAreNotReusedAfterDelete(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.Add(ctx, model.NewTask{Title: "first"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Delete(ctx, first.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	second, err := store.Add(ctx, model.NewTask{Title: "second"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("expected a fresh id, got %d again", second.ID)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func newTestStore(t *testing.T, opts ...Option) (*Store, func()) {
	t.Helper()
	db, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db, opts...), func() {
		_ = db.Close()
	}
}

func TestOpenKeepsOneMemoryConnection(t *testing.T) {
	sqlDB, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()

	store := NewStore(sqlDB)
	ctx := context.Background()
	for _, title := range []string{"one", "two", "three"} {
		if _, err := store.Add(ctx, model.NewTask{Title: title}); err != nil {
			t.Fatalf("add %q: %v", title, err)
		}
	}

	stats := sqlDB.Stats()
	if stats.MaxOpenConnections != 1 {
		t.Fatalf("expected one open connection max, got %d", stats.MaxOpenConnections)
	}
	if stats.OpenConnections != 1 || stats.Idle != 1 {
		t.Fatalf("expected the single connection to stay open and idle, got %+v", stats)
	}
	if count, err := store.Count(ctx); err != nil || count != 3 {
		t.Fatalf("expected 3 tasks on the same database, got %d (%v)", count, err)
	}
}
