package tasks_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tasks"
	"github.com/Joseda-hg/lazytodo/internal/tasks/taskstest"
)

func TestGuardedContract(t *testing.T) {
	taskstest.RunContract(t, func(t *testing.T, now func() time.Time) tasks.Repository {
		return tasks.NewGuarded(tasks.NewStore(tasks.WithClock(now)))
	})
}

func TestGuardedConcurrentAdds(t *testing.T) {
	repo := tasks.NewGuarded(tasks.NewStore())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Add(context.Background(), model.NewTask{Title: "parallel"}); err != nil {
				t.Errorf("add: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := repo.List(context.Background(), model.StatusAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 50 {
		t.Fatalf("expected 50 tasks, got %d", len(all))
	}
	seen := make(map[int64]struct{}, len(all))
	for _, task := range all {
		if _, dup := seen[task.ID]; dup {
			t.Fatalf("duplicate id %d", task.ID)
		}
		seen[task.ID] = struct{}{}
	}
}

func TestGuardedHonorsCancelledContext(t *testing.T) {
	repo := tasks.NewGuarded(tasks.NewStore())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := repo.Add(ctx, model.NewTask{Title: "late"}); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected nothing added, got %d", count)
	}
}
