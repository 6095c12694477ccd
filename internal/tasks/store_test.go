package tasks

import (
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func newTestStore() *Store {
	current := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return NewStore(WithClock(func() time.Time {
		current = current.Add(time.Minute)
		return current
	}))
}

func TestAddAppendsWithDefaults(t *testing.T) {
	store := newTestStore()

	first := store.Add(model.NewTask{Title: "Buy milk"})
	second := store.Add(model.NewTask{Title: "Walk dog", Description: "before dinner"})

	if first.ID == second.ID {
		t.Fatalf("expected distinct ids, got %d twice", first.ID)
	}
	if first.Completed || first.Description != "" || first.UpdatedAt != nil {
		t.Fatalf("unexpected defaults %+v", first)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to be set")
	}
	if got := store.All(); len(got) != 2 || got[1].Description != "before dinner" {
		t.Fatalf("unexpected tasks %+v", got)
	}
}

func TestCustomIDGenerator(t *testing.T) {
	next := int64(100)
	store := NewStore(WithIDs(func() int64 {
		next += 10
		return next
	}))

	if task := store.Add(model.NewTask{Title: "a"}); task.ID != 110 {
		t.Fatalf("expected id 110, got %d", task.ID)
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	store := newTestStore()
	task := store.Add(model.NewTask{Title: "Original"})
	store.Toggle(task.ID)

	all := store.All()
	all[0].Title = "Mutated"
	*all[0].UpdatedAt = time.Time{}

	got, ok := store.ByID(task.ID)
	if !ok {
		t.Fatalf("expected task to exist")
	}
	if got.Title != "Original" {
		t.Fatalf("expected stored title untouched, got %q", got.Title)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("expected stored updatedAt untouched")
	}
}

func TestMissingIDIsNoOp(t *testing.T) {
	store := newTestStore()
	store.Add(model.NewTask{Title: "Only"})

	title := "x"
	if store.Update(42, model.Patch{Title: &title}) {
		t.Fatalf("expected update miss")
	}
	if store.Toggle(42) {
		t.Fatalf("expected toggle miss")
	}
	if store.Delete(42) {
		t.Fatalf("expected delete miss")
	}
	if store.Count() != 1 {
		t.Fatalf("expected count 1, got %d", store.Count())
	}
	if _, ok := store.ByID(42); ok {
		t.Fatalf("expected absence")
	}
}

func TestClearCompletedPartitions(t *testing.T) {
	store := newTestStore()
	ids := make([]int64, 0, 5)
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		ids = append(ids, store.Add(model.NewTask{Title: title}).ID)
	}
	store.Toggle(ids[1])
	store.Toggle(ids[4])

	if got := len(store.Completed()); got != 2 {
		t.Fatalf("expected 2 completed, got %d", got)
	}
	if got := len(store.Incomplete()); got != 3 {
		t.Fatalf("expected 3 incomplete, got %d", got)
	}
	if stats := store.Stats(); stats != (model.Stats{Total: 5, Completed: 2, Pending: 3}) {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if removed := store.ClearCompleted(); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	var titles string
	for _, task := range store.All() {
		if task.Completed {
			t.Fatalf("expected no completed tasks, found %q", task.Title)
		}
		titles += task.Title
	}
	if titles != "acd" {
		t.Fatalf("expected order acd, got %q", titles)
	}
}

func TestUpdateLeavesIdentityAlone(t *testing.T) {
	store := newTestStore()
	task := store.Add(model.NewTask{Title: "Before"})

	title := "After"
	if !store.Update(task.ID, model.Patch{Title: &title}) {
		t.Fatalf("expected update hit")
	}
	got, _ := store.ByID(task.ID)
	if got.Title != "After" || got.ID != task.ID || !got.CreatedAt.Equal(task.CreatedAt) || got.Completed {
		t.Fatalf("unexpected task %+v", got)
	}
	if got.UpdatedAt == nil || !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updatedAt after createdAt")
	}
}
