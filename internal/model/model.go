package model

import "time"

type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Completed   bool       `json:"completed"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

type NewTask struct {
	Title       string `json:"title"`
	Completed   bool   `json:"completed"`
	Description string `json:"description"`
}

// Patch holds the fields of an update. Nil fields are left unchanged.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	Description *string `json:"description,omitempty"`
}

type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

// StatsOf counts list. Callers that render rows and counts together derive
// both from the same list so they always agree.
func StatsOf(list []Task) Stats {
	stats := Stats{Total: len(list)}
	for _, task := range list {
		if task.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}

type Status string

const (
	StatusAll        Status = ""
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
)

func (s Status) Match(task Task) bool {
	switch s {
	case StatusCompleted:
		return task.Completed
	case StatusIncomplete:
		return !task.Completed
	default:
		return true
	}
}
