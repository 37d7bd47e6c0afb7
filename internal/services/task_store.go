package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"smart-task-list/internal/models"
	"smart-task-list/internal/notify"
	"smart-task-list/internal/repositories"
)

// Renderer receives the visible view after every change.
type Renderer interface {
	Render(view models.TaskView)
}

type RendererFunc func(view models.TaskView)

func (f RendererFunc) Render(view models.TaskView) { f(view) }

// NotificationGate reports whether the user has granted permission and opted in.
type NotificationGate interface {
	Allowed(ctx context.Context) bool
}

type AddResult struct {
	Task    models.Task `json:"task"`
	Created bool        `json:"created"`
}

type ToggleResult struct {
	Task  models.Task `json:"task"`
	Found bool        `json:"found"`
}

type DeleteResult struct {
	Found bool `json:"found"`
}

// TaskStore owns the task list and keeps it in step with durable storage.
// Commands are serialised: each runs to completion before the next starts.
type TaskStore struct {
	mu       sync.Mutex
	kv       repositories.KeyValueStore
	tasks    []models.Task
	filter   models.Filter
	renderer Renderer
	notifier notify.Notifier
	gate     NotificationGate
	now      func() time.Time
}

type TaskStoreOption func(*TaskStore)

func WithRenderer(r Renderer) TaskStoreOption {
	return func(s *TaskStore) { s.renderer = r }
}

func WithNotifier(n notify.Notifier, gate NotificationGate) TaskStoreOption {
	return func(s *TaskStore) {
		s.notifier = n
		s.gate = gate
	}
}

func WithClock(now func() time.Time) TaskStoreOption {
	return func(s *TaskStore) { s.now = now }
}

func NewTaskStore(kv repositories.KeyValueStore, opts ...TaskStoreOption) *TaskStore {
	s := &TaskStore{
		kv:     kv,
		tasks:  []models.Task{},
		filter: models.FilterAll,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. Missing,
// unreadable or malformed state yields an empty list.
func (s *TaskStore) Load(ctx context.Context) {
	s.mu.Lock()
	s.tasks = s.readPersisted(ctx)
	view := s.viewLocked(s.filter)
	s.mu.Unlock()

	s.render(view)
}

func (s *TaskStore) readPersisted(ctx context.Context) []models.Task {
	raw, err := s.kv.GetItem(ctx, repositories.KeyTasks)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Failed to read stored tasks, starting empty: %v", err)
		}
		return []models.Task{}
	}

	tasks, err := decodeTasks(raw)
	if err != nil {
		log.Printf("Ignoring stored tasks: %v", err)
		return []models.Task{}
	}
	return tasks
}

// Add appends a task for non-blank text. Blank text is ignored.
func (s *TaskStore) Add(ctx context.Context, text string) (AddResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return AddResult{}, nil
	}

	s.mu.Lock()
	now := s.now()
	task := models.Task{
		ID:        s.nextIDLocked(now),
		Text:      text,
		Completed: false,
		CreatedAt: now.UTC(),
	}

	previous := s.tasks
	s.tasks = append(append(make([]models.Task, 0, len(previous)+1), previous...), task)
	if err := s.persistLocked(ctx); err != nil {
		s.tasks = previous
		s.mu.Unlock()
		return AddResult{}, err
	}
	view := s.viewLocked(s.filter)
	s.mu.Unlock()

	s.render(view)
	s.notifyAdded(ctx, task)

	return AddResult{Task: task, Created: true}, nil
}

func (s *TaskStore) notifyAdded(ctx context.Context, task models.Task) {
	if s.notifier == nil || s.gate == nil || !s.gate.Allowed(ctx) {
		return
	}

	n := models.NewNotification(
		"New task added",
		fmt.Sprintf("%q was added to the list.", task.Text),
		s.now(),
	)
	if err := s.notifier.Show(ctx, n); err != nil {
		log.Printf("Failed to show task notification: %v", err)
	}
}

// Toggle flips the completion flag of id. An unknown id is not an error.
func (s *TaskStore) Toggle(ctx context.Context, id string) (ToggleResult, error) {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return ToggleResult{}, nil
	}

	previous := s.tasks
	next := make([]models.Task, len(previous))
	copy(next, previous)
	next[idx].Completed = !next[idx].Completed
	s.tasks = next

	if err := s.persistLocked(ctx); err != nil {
		s.tasks = previous
		s.mu.Unlock()
		return ToggleResult{}, err
	}
	task := next[idx]
	view := s.viewLocked(s.filter)
	s.mu.Unlock()

	s.render(view)
	return ToggleResult{Task: task, Found: true}, nil
}

// Delete removes id. An unknown id is not an error.
func (s *TaskStore) Delete(ctx context.Context, id string) (DeleteResult, error) {
	s.mu.Lock()

	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return DeleteResult{}, nil
	}

	previous := s.tasks
	next := make([]models.Task, 0, len(previous)-1)
	next = append(next, previous[:idx]...)
	next = append(next, previous[idx+1:]...)
	s.tasks = next

	if err := s.persistLocked(ctx); err != nil {
		s.tasks = previous
		s.mu.Unlock()
		return DeleteResult{}, err
	}
	view := s.viewLocked(s.filter)
	s.mu.Unlock()

	s.render(view)
	return DeleteResult{Found: true}, nil
}

// SetFilter changes the filter used for re-renders and returns the new view.
func (s *TaskStore) SetFilter(filter models.Filter) models.TaskView {
	s.mu.Lock()
	s.filter = filter
	view := s.viewLocked(filter)
	s.mu.Unlock()

	s.render(view)
	return view
}

func (s *TaskStore) Filter() models.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Render projects the list through filter without changing anything.
func (s *TaskStore) Render(filter models.Filter) models.TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(filter)
}

func (s *TaskStore) Snapshot() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *TaskStore) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCountLocked()
}

func (s *TaskStore) CountLabel() string {
	return models.CountLabel(s.ActiveCount())
}

func (s *TaskStore) activeCountLocked() int {
	n := 0
	for _, task := range s.tasks {
		if !task.Completed {
			n++
		}
	}
	return n
}

func (s *TaskStore) viewLocked(filter models.Filter) models.TaskView {
	visible := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		if filter.Match(task) {
			visible = append(visible, task)
		}
	}

	active := s.activeCountLocked()
	return models.TaskView{
		Filter:      filter,
		Tasks:       visible,
		ActiveCount: active,
		CountLabel:  models.CountLabel(active),
	}
}

func (s *TaskStore) render(view models.TaskView) {
	if s.renderer != nil {
		s.renderer.Render(view)
	}
}

func (s *TaskStore) persistLocked(ctx context.Context) error {
	raw, err := encodeTasks(s.tasks)
	if err != nil {
		return err
	}
	if err := s.kv.SetItem(ctx, repositories.KeyTasks, raw); err != nil {
		return fmt.Errorf("failed to persist tasks: %w", err)
	}
	return nil
}

func (s *TaskStore) indexLocked(id string) int {
	for i, task := range s.tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked derives the id from the creation time in milliseconds,
// stepping forward until it is unused.
func (s *TaskStore) nextIDLocked(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if s.indexLocked(id) < 0 {
			return id
		}
		ms++
	}
}
