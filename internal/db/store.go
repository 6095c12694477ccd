package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

// Store implements tasks.Repository on top of SQLite. Open it on MemoryPath:
// tasks are never meant to outlive the process.
type Store struct {
	DB  *sql.DB
	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{DB: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const taskColumns = "id, title, completed, description, created_at, updated_at"

func (s *Store) Add(ctx context.Context, input model.NewTask) (model.Task, error) {
	row := s.DB.QueryRowContext(ctx,
		"INSERT INTO tasks (title, completed, description, created_at) VALUES (?, ?, ?, ?) RETURNING "+taskColumns,
		input.Title, input.Completed, input.Description, s.now().UnixNano(),
	)
	task, err := scanTask(row)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return task, nil
}

func (s *Store) Update(ctx context.Context, id int64, patch model.Patch) (bool, error) {
	var title, description sql.NullString
	if patch.Title != nil {
		title = sql.NullString{String: *patch.Title, Valid: true}
	}
	if patch.Description != nil {
		description = sql.NullString{String: *patch.Description, Valid: true}
	}
	var completed sql.NullBool
	if patch.Completed != nil {
		completed = sql.NullBool{Bool: *patch.Completed, Valid: true}
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE tasks SET
			title = COALESCE(?, title),
			completed = COALESCE(?, completed),
			description = COALESCE(?, description),
			updated_at = ?
		WHERE id = ?`,
		title, completed, description, s.now().UnixNano(), id,
	)
	if err != nil {
		return false, fmt.Errorf("update task %d: %w", id, err)
	}
	return affected(result)
}

func (s *Store) Toggle(ctx context.Context, id int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx,
		"UPDATE tasks SET completed = 1 - completed, updated_at = ? WHERE id = ?",
		s.now().UnixNano(), id,
	)
	if err != nil {
		return false, fmt.Errorf("toggle task %d: %w", id, err)
	}
	return affected(result)
}

func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete task %d: %w", id, err)
	}
	return affected(result)
}

func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	result, err := s.DB.ExecContext(ctx, "DELETE FROM tasks WHERE completed = 1")
	if err != nil {
		return 0, fmt.Errorf("clear completed tasks: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) List(ctx context.Context, status model.Status) ([]model.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	switch status {
	case model.StatusCompleted:
		query += " WHERE completed = 1"
	case model.StatusIncomplete:
		query += " WHERE completed = 0"
	}
	query += " ORDER BY id"

	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	result := []model.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

func (s *Store) Get(ctx context.Context, id int64) (model.Task, bool, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, fmt.Errorf("get task %d: %w", id, err)
	}
	return task, true, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*), COALESCE(SUM(completed), 0) FROM tasks").
		Scan(&stats.Total, &stats.Completed)
	if err != nil {
		return model.Stats{}, fmt.Errorf("task stats: %w", err)
	}
	stats.Pending = stats.Total - stats.Completed
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (model.Task, error) {
	var (
		task      model.Task
		createdAt int64
		updatedAt sql.NullInt64
	)
	if err := row.Scan(&task.ID, &task.Title, &task.Completed, &task.Description, &createdAt, &updatedAt); err != nil {
		return model.Task{}, err
	}
	task.CreatedAt = time.Unix(0, createdAt)
	if updatedAt.Valid {
		value := time.Unix(0, updatedAt.Int64)
		task.UpdatedAt = &value
	}
	return task, nil
}

func affected(result sql.Result) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
