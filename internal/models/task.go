package models

import (
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter falls back to FilterAll for unknown values.
func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

func (f Filter) Match(task Task) bool {
	switch f {
	case FilterActive:
		return !task.Completed
	case FilterCompleted:
		return task.Completed
	default:
		return true
	}
}

// TaskView is what a client draws for the current filter.
type TaskView struct {
	Filter      Filter `json:"filter"`
	Tasks       []Task `json:"tasks"`
	ActiveCount int    `json:"activeCount"`
	CountLabel  string `json:"countLabel"`
}

func CountLabel(active int) string {
	if active == 1 {
		return "1 task left"
	}
	return fmt.Sprintf("%d tasks left", active)
}
