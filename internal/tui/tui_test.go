package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
)

func TestAddIgnoresBlankInput(t *testing.T) {
	ui, repo := newTestUI(t)

	for _, raw := range []string{"", "   ", "\n\t"} {
		if err := ui.add(raw); err != nil {
			t.Fatalf("add %q: %v", raw, err)
		}
	}
	if count := taskCount(t, repo); count != 0 {
		t.Fatalf("expected no tasks, got %d", count)
	}
}

func TestAddTrimsAndSelectsNewTask(t *testing.T) {
	ui, repo := newTestUI(t)

	if err := ui.add("  Buy milk \n"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ui.add("Walk dog"); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := repo.List(context.Background(), model.StatusAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Title != "Buy milk" {
		t.Fatalf("unexpected tasks %+v", list)
	}
	if ui.selected != 1 {
		t.Fatalf("expected newest task selected, got %d", ui.selected)
	}
}

func TestDeleteSelected(t *testing.T) {
	ui, repo := newTestUI(t)
	for _, title := range []string{"one", "two", "three"} {
		if err := ui.add(title); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	t.Run("removes the selected row", func(t *testing.T) {
		ui.selected = 0
		if err := ui.moveDown(nil, nil); err != nil {
			t.Fatalf("move down: %v", err)
		}
		if err := ui.deleteSelected(nil, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if len(ui.items) != 2 || ui.items[0].Title != "one" || ui.items[1].Title != "three" {
			t.Fatalf("unexpected items %+v", ui.items)
		}
	})

	t.Run("selection stays in range after deleting the last row", func(t *testing.T) {
		ui.selected = 1
		if err := ui.deleteSelected(nil, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if ui.selected != 0 {
			t.Fatalf("expected selection 0, got %d", ui.selected)
		}
	})

	t.Run("empty list is a no-op", func(t *testing.T) {
		if err := ui.deleteSelected(nil, nil); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := ui.deleteSelected(nil, nil); err != nil {
			t.Fatalf("delete on empty list: %v", err)
		}
		if count := taskCount(t, repo); count != 0 {
			t.Fatalf("expected empty repo, got %d", count)
		}
	})
}

func TestMoveStaysInBounds(t *testing.T) {
	ui, _ := newTestUI(t)
	if err := ui.add("only"); err != nil {
		t.Fatalf("add: %v", err)
	}

	_ = ui.moveUp(nil, nil)
	if ui.selected != 0 {
		t.Fatalf("expected 0 after moving up, got %d", ui.selected)
	}
	_ = ui.moveDown(nil, nil)
	if ui.selected != 0 {
		t.Fatalf("expected 0 after moving down past end, got %d", ui.selected)
	}
}

func TestSwitchFocusWithoutGui(t *testing.T) {
	ui, _ := newTestUI(t)
	if err := ui.switchFocus(nil, nil); err != nil {
		t.Fatalf("switch focus: %v", err)
	}
	if ui.focus != viewList {
		t.Fatalf("expected list focus, got %q", ui.focus)
	}
	_ = ui.switchFocus(nil, nil)
	if ui.focus != viewInput {
		t.Fatalf("expected input focus, got %q", ui.focus)
	}
}

func TestWatchErrorsShowsFailureInFooter(t *testing.T) {
	errs := make(chan error, 2)
	errs <- nil
	errs <- errors.New("web server: listen tcp :8080: bind: address already in use")
	close(errs)

	ui := New(tasks.NewGuarded(tasks.NewStore()), WithErrors(errs))
	updates := 0
	ui.watchErrors(func(apply func()) {
		updates++
		apply()
	})

	if updates != 1 {
		t.Fatalf("expected one status update, got %d", updates)
	}
	if !strings.Contains(ui.status, "address already in use") {
		t.Fatalf("expected listen failure in status, got %q", ui.status)
	}
}

func TestFormatCount(t *testing.T) {
	tests := map[int]string{0: "0 tasks", 1: "1 task", 7: "7 tasks"}
	for count, want := range tests {
		if got := formatCount(count); got != want {
			t.Fatalf("formatCount(%d) = %q, want %q", count, got, want)
		}
	}
}

func newTestUI(t *testing.T) (*UI, tasks.Repository) {
	t.Helper()
	repo := tasks.NewGuarded(tasks.NewStore())
	ui := New(repo)
	if err := ui.loadTasks(); err != nil {
		t.Fatalf("load tasks: %v", err)
	}
	return ui, repo
}

func taskCount(t *testing.T, repo tasks.Repository) int {
	t.Helper()
	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}
