package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"smart-task-list/internal/models"
)

const taskSchemaVersion = 1

type taskEnvelope struct {
	Version int           `json:"version"`
	Tasks   []models.Task `json:"tasks"`
}

var errMalformedTasks = errors.New("malformed task list")

func encodeTasks(tasks []models.Task) (string, error) {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(taskEnvelope{Version: taskSchemaVersion, Tasks: tasks})
	if err != nil {
		return "", fmt.Errorf("failed to encode tasks: %w", err)
	}
	return string(data), nil
}

// decodeTasks accepts the versioned envelope and the older bare array.
// Unknown fields, unknown versions and invalid records reject the whole blob.
func decodeTasks(raw string) ([]models.Task, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errMalformedTasks
	}

	var tasks []models.Task
	if strings.HasPrefix(trimmed, "[") {
		if err := strictUnmarshal(trimmed, &tasks); err != nil {
			return nil, err
		}
	} else {
		var env taskEnvelope
		if err := strictUnmarshal(trimmed, &env); err != nil {
			return nil, err
		}
		if env.Version != taskSchemaVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", errMalformedTasks, env.Version)
		}
		tasks = env.Tasks
	}

	seen := make(map[string]struct{}, len(tasks))
	for i, task := range tasks {
		if task.ID == "" {
			return nil, fmt.Errorf("%w: task %d has no id", errMalformedTasks, i)
		}
		if strings.TrimSpace(task.Text) == "" {
			return nil, fmt.Errorf("%w: task %s has no text", errMalformedTasks, task.ID)
		}
		if _, dup := seen[task.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", errMalformedTasks, task.ID)
		}
		seen[task.ID] = struct{}{}
	}

	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}

func strictUnmarshal(raw string, dest interface{}) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", errMalformedTasks, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", errMalformedTasks)
	}
	return nil
}
