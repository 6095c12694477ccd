package tui

import (
	"fmt"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func formatItem(task model.Task) string {
	return task.Title
}

func formatCount(count int) string {
	if count == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", count)
}
