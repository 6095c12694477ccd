// Package taskstest holds the behavior every tasks.Repository must share.
package taskstest

import (
	"context"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

// Factory builds an empty repository whose timestamps come from now.
type Factory func(t *testing.T, now func() time.Time) tasks.Repository

// Clock hands out strictly increasing times, one second apart.
type Clock struct {
	current time.Time
}

func NewClock() *Clock {
	return &Clock{current: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.current = c.current.Add(time.Second)
	return c.current
}

func RunContract(t *testing.T, factory Factory) {
	t.Helper()
	ctx := context.Background()

	newRepo := func(t *testing.T) tasks.Repository {
		return factory(t, NewClock().Now)
	}

	t.Run("add assigns distinct ids in order", func(t *testing.T) {
		repo := newRepo(t)
		titles := []string{"one", "two", "three", "four", "five"}
		seen := map[int64]struct{}{}
		for _, title := range titles {
			task, err := repo.Add(ctx, model.NewTask{Title: title})
			if err != nil {
				t.Fatalf("add %q: %v", title, err)
			}
			if _, dup := seen[task.ID]; dup {
				t.Fatalf("duplicate id %d", task.ID)
			}
			seen[task.ID] = struct{}{}
			if task.Completed {
				t.Fatalf("expected new task to be incomplete")
			}
			if task.UpdatedAt != nil {
				t.Fatalf("expected no updatedAt on creation")
			}
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != len(titles) {
			t.Fatalf("expected %d tasks, got %d", len(titles), count)
		}

		all := mustList(t, repo, model.StatusAll)
		for i, task := range all {
			if task.Title != titles[i] {
				t.Fatalf("expected %q at %d, got %q", titles[i], i, task.Title)
			}
		}
	})

	t.Run("add keeps caller text untouched", func(t *testing.T) {
		repo := newRepo(t)
		task, err := repo.Add(ctx, model.NewTask{Title: "  padded  ", Description: "notes", Completed: true})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if task.Title != "  padded  " || task.Description != "notes" || !task.Completed {
			t.Fatalf("unexpected task %+v", task)
		}
		if _, err := repo.Add(ctx, model.NewTask{}); err != nil {
			t.Fatalf("add empty title: %v", err)
		}
	})

	t.Run("toggle twice restores completion", func(t *testing.T) {
		repo := newRepo(t)
		task := mustAdd(t, repo, "Toggle me")

		if hit, err := repo.Toggle(ctx, task.ID); err != nil || !hit {
			t.Fatalf("toggle: hit=%v err=%v", hit, err)
		}
		first := mustGet(t, repo, task.ID)
		if !first.Completed || first.UpdatedAt == nil {
			t.Fatalf("expected completed task with updatedAt, got %+v", first)
		}

		if _, err := repo.Toggle(ctx, task.ID); err != nil {
			t.Fatalf("toggle again: %v", err)
		}
		second := mustGet(t, repo, task.ID)
		if second.Completed != task.Completed {
			t.Fatalf("expected completion restored")
		}
		if !second.UpdatedAt.After(*first.UpdatedAt) {
			t.Fatalf("expected updatedAt to advance")
		}
	})

	t.Run("update changes only title and updatedAt", func(t *testing.T) {
		repo := newRepo(t)
		task := mustAdd(t, repo, "Old")
		title := "x"
		if hit, err := repo.Update(ctx, task.ID, model.Patch{Title: &title}); err != nil || !hit {
			t.Fatalf("update: hit=%v err=%v", hit, err)
		}

		updated := mustGet(t, repo, task.ID)
		if updated.Title != "x" {
			t.Fatalf("expected title x, got %q", updated.Title)
		}
		if updated.ID != task.ID || !updated.CreatedAt.Equal(task.CreatedAt) || updated.Completed != task.Completed || updated.Description != task.Description {
			t.Fatalf("unexpected field change: before %+v after %+v", task, updated)
		}
		if updated.UpdatedAt == nil {
			t.Fatalf("expected updatedAt to be set")
		}
	})

	t.Run("update merges every supplied field", func(t *testing.T) {
		repo := newRepo(t)
		task := mustAdd(t, repo, "Merge")
		done := true
		description := "details"
		if _, err := repo.Update(ctx, task.ID, model.Patch{Completed: &done, Description: &description}); err != nil {
			t.Fatalf("update: %v", err)
		}
		updated := mustGet(t, repo, task.ID)
		if !updated.Completed || updated.Description != "details" || updated.Title != "Merge" {
			t.Fatalf("unexpected task %+v", updated)
		}
	})

	t.Run("unknown id is a silent no-op", func(t *testing.T) {
		repo := newRepo(t)
		task := mustAdd(t, repo, "Keep")
		before := mustList(t, repo, model.StatusAll)

		title := "nope"
		missing := task.ID + 100
		if hit, err := repo.Update(ctx, missing, model.Patch{Title: &title}); err != nil || hit {
			t.Fatalf("update missing: hit=%v err=%v", hit, err)
		}
		if hit, err := repo.Toggle(ctx, missing); err != nil || hit {
			t.Fatalf("toggle missing: hit=%v err=%v", hit, err)
		}
		if hit, err := repo.Delete(ctx, missing); err != nil || hit {
			t.Fatalf("delete missing: hit=%v err=%v", hit, err)
		}

		after := mustList(t, repo, model.StatusAll)
		if len(after) != len(before) || after[0].Title != before[0].Title || after[0].UpdatedAt != nil {
			t.Fatalf("expected collection unchanged, got %+v", after)
		}
		if _, ok, err := repo.Get(ctx, missing); err != nil || ok {
			t.Fatalf("get missing: ok=%v err=%v", ok, err)
		}
	})

	t.Run("delete removes only the match", func(t *testing.T) {
		repo := newRepo(t)
		first := mustAdd(t, repo, "first")
		second := mustAdd(t, repo, "second")

		if hit, err := repo.Delete(ctx, first.ID); err != nil || !hit {
			t.Fatalf("delete: hit=%v err=%v", hit, err)
		}
		if _, ok, _ := repo.Get(ctx, first.ID); ok {
			t.Fatalf("expected deleted task to be absent")
		}
		remaining := mustList(t, repo, model.StatusAll)
		if len(remaining) != 1 || remaining[0].ID != second.ID {
			t.Fatalf("unexpected remaining tasks %+v", remaining)
		}
	})

	t.Run("clear completed keeps incomplete order", func(t *testing.T) {
		repo := newRepo(t)
		a := mustAdd(t, repo, "a")
		b := mustAdd(t, repo, "b")
		c := mustAdd(t, repo, "c")
		d := mustAdd(t, repo, "d")
		for _, id := range []int64{a.ID, c.ID} {
			if _, err := repo.Toggle(ctx, id); err != nil {
				t.Fatalf("toggle: %v", err)
			}
		}

		removed, err := repo.ClearCompleted(ctx)
		if err != nil {
			t.Fatalf("clear completed: %v", err)
		}
		if removed != 2 {
			t.Fatalf("expected 2 removed, got %d", removed)
		}
		remaining := mustList(t, repo, model.StatusAll)
		if len(remaining) != 2 || remaining[0].ID != b.ID || remaining[1].ID != d.ID {
			t.Fatalf("unexpected remaining tasks %+v", remaining)
		}
		if remaining[0].UpdatedAt != nil || remaining[1].UpdatedAt != nil {
			t.Fatalf("expected incomplete tasks untouched")
		}

		removed, err = repo.ClearCompleted(ctx)
		if err != nil || removed != 0 {
			t.Fatalf("second clear: removed=%d err=%v", removed, err)
		}
	})

	t.Run("partitions and stats", func(t *testing.T) {
		repo := newRepo(t)
		a := mustAdd(t, repo, "a")
		mustAdd(t, repo, "b")
		if _, err := repo.Toggle(ctx, a.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}

		completed := mustList(t, repo, model.StatusCompleted)
		incomplete := mustList(t, repo, model.StatusIncomplete)
		if len(completed) != 1 || completed[0].Title != "a" {
			t.Fatalf("unexpected completed %+v", completed)
		}
		if len(incomplete) != 1 || incomplete[0].Title != "b" {
			t.Fatalf("unexpected incomplete %+v", incomplete)
		}

		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats != (model.Stats{Total: 2, Completed: 1, Pending: 1}) {
			t.Fatalf("unexpected stats %+v", stats)
		}
	})

	t.Run("buy milk scenario", func(t *testing.T) {
		repo := newRepo(t)
		milk := mustAdd(t, repo, "Buy milk")
		if all := mustList(t, repo, model.StatusAll); len(all) != 1 || all[0].Completed {
			t.Fatalf("unexpected tasks %+v", all)
		}
		if _, err := repo.Toggle(ctx, milk.ID); err != nil {
			t.Fatalf("toggle: %v", err)
		}
		if !mustGet(t, repo, milk.ID).Completed {
			t.Fatalf("expected Buy milk completed")
		}
		mustAdd(t, repo, "Walk dog")
		if count, _ := repo.Count(ctx); count != 2 {
			t.Fatalf("expected 2 tasks, got %d", count)
		}
		if _, err := repo.ClearCompleted(ctx); err != nil {
			t.Fatalf("clear completed: %v", err)
		}
		all := mustList(t, repo, model.StatusAll)
		if len(all) != 1 || all[0].Title != "Walk dog" {
			t.Fatalf("expected only Walk dog, got %+v", all)
		}
	})
}

func mustAdd(t *testing.T, repo tasks.Repository, title string) model.Task {
	t.Helper()
	task, err := repo.Add(context.Background(), model.NewTask{Title: title})
	if err != nil {
		t.Fatalf("add %q: %v", title, err)
	}
	return task
}

func mustGet(t *testing.T, repo tasks.Repository, id int64) model.Task {
	t.Helper()
	task, ok, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get %d: %v", id, err)
	}
	if !ok {
		t.Fatalf("expected task %d to exist", id)
	}
	return task
}

func mustList(t *testing.T, repo tasks.Repository, status model.Status) []model.Task {
	t.Helper()
	list, err := repo.List(context.Background(), status)
	if err != nil {
		t.Fatalf("list %q: %v", status, err)
	}
	return list
}
