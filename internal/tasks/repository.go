package tasks

import (
	"context"
	"sync"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Repository is what the front ends talk to. An unknown id is never an
// error: mutating calls return nil and change nothing.
type Repository interface {
	Add(ctx context.Context, input model.NewTask) (model.Task, error)
	Update(ctx context.Context, id int64, patch model.Patch) (bool, error)
	Toggle(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	ClearCompleted(ctx context.Context) (int, error)

	List(ctx context.Context, status model.Status) ([]model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, bool, error)
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Guarded serializes access to a Store so HTTP handlers and the terminal UI
// can share it.
type Guarded struct {
	mu    sync.Mutex
	store *Store
}

func NewGuarded(store *Store) *Guarded {
	return &Guarded{store: store}
}

func (g *Guarded) Add(ctx context.Context, input model.NewTask) (model.Task, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Add(input), nil
}

func (g *Guarded) Update(ctx context.Context, id int64, patch model.Patch) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Update(id, patch), nil
}

func (g *Guarded) Toggle(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Toggle(id), nil
}

func (g *Guarded) Delete(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Delete(id), nil
}

func (g *Guarded) ClearCompleted(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.ClearCompleted(), nil
}

func (g *Guarded) List(ctx context.Context, status model.Status) ([]model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	switch status {
	case model.StatusCompleted:
		return g.store.Completed(), nil
	case model.StatusIncomplete:
		return g.store.Incomplete(), nil
	default:
		return g.store.All(), nil
	}
}

func (g *Guarded) Get(ctx context.Context, id int64) (model.Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Task{}, false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	task, ok := g.store.ByID(id)
	return task, ok, nil
}

func (g *Guarded) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Count(), nil
}

func (g *Guarded) Stats(ctx context.Context) (model.Stats, error) {
	if err := ctx.Err(); err != nil {
		return model.Stats{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.store.Stats(), nil
}
