package tasks

import (
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Store owns an ordered, in-memory task collection. It is not safe for
// concurrent use; wrap it with Guarded when more than one goroutine calls in.
//
// Commands that reference an unknown id leave the collection unchanged and
// report nothing beyond the returned hit flag.
type Store struct {
	items  []model.Task
	now    func() time.Time
	nextID func() int64
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDs(next func() int64) Option {
	return func(s *Store) { s.nextID = next }
}

func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	var last int64
	s.nextID = func() int64 {
		last++
		return last
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Add(input model.NewTask) model.Task {
	task := model.Task{
		ID:          s.nextID(),
		Title:       input.Title,
		Completed:   input.Completed,
		Description: input.Description,
		CreatedAt:   s.now(),
	}
	s.items = append(s.items, task)
	return task
}

func (s *Store) Update(id int64, patch model.Patch) bool {
	index := s.indexOf(id)
	if index < 0 {
		return false
	}

	task := &s.items[index]
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	s.touch(task)
	return true
}

func (s *Store) Toggle(id int64) bool {
	index := s.indexOf(id)
	if index < 0 {
		return false
	}

	task := &s.items[index]
	task.Completed = !task.Completed
	s.touch(task)
	return true
}

func (s *Store) Delete(id int64) bool {
	index := s.indexOf(id)
	if index < 0 {
		return false
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
	return true
}

// ClearCompleted removes every completed task and returns how many went.
func (s *Store) ClearCompleted() int {
	kept := s.items[:0]
	for _, task := range s.items {
		if !task.Completed {
			kept = append(kept, task)
		}
	}
	removed := len(s.items) - len(kept)
	clear(s.items[len(kept):])
	s.items = kept
	return removed
}

func (s *Store) All() []model.Task {
	return s.filter(model.StatusAll)
}

func (s *Store) ByID(id int64) (model.Task, bool) {
	index := s.indexOf(id)
	if index < 0 {
		return model.Task{}, false
	}
	return copyTask(s.items[index]), true
}

func (s *Store) Completed() []model.Task {
	return s.filter(model.StatusCompleted)
}

func (s *Store) Incomplete() []model.Task {
	return s.filter(model.StatusIncomplete)
}

func (s *Store) Count() int {
	return len(s.items)
}

func (s *Store) Stats() model.Stats {
	return model.StatsOf(s.items)
}

func (s *Store) filter(status model.Status) []model.Task {
	result := make([]model.Task, 0, len(s.items))
	for _, task := range s.items {
		if status.Match(task) {
			result = append(result, copyTask(task))
		}
	}
	return result
}

func (s *Store) indexOf(id int64) int {
	for i, task := range s.items {
		if task.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) touch(task *model.Task) {
	updatedAt := s.now()
	task.UpdatedAt = &updatedAt
}

// copyTask detaches the UpdatedAt pointer from the stored record.
func copyTask(task model.Task) model.Task {
	if task.UpdatedAt != nil {
		updatedAt := *task.UpdatedAt
		task.UpdatedAt = &updatedAt
	}
	return task
}
