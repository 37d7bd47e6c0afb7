package notify

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"smart-task-list/internal/models"

	"github.com/gofrs/uuid"
)

// RootPath is where the explore action takes the user.
const RootPath = "/"

type Notifier interface {
	Show(ctx context.Context, n models.Notification) error
}

// Center displays notifications and handles the user's interaction with them.
type Center struct {
	mu      sync.RWMutex
	open    []models.Notification
	clients *Clients
	now     func() time.Time
}

func NewCenter(clients *Clients) *Center {
	if clients == nil {
		clients = NewClients()
	}
	return &Center{clients: clients, now: time.Now}
}

func (c *Center) Clients() *Clients {
	return c.clients
}

func (c *Center) Show(_ context.Context, n models.Notification) error {
	if n.Title == "" {
		return fmt.Errorf("notification title is required")
	}

	if n.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return fmt.Errorf("failed to generate notification ID: %w", err)
		}
		n.ID = id.String()
	}
	n.ShownAt = c.now()

	c.mu.Lock()
	c.open = append(c.open, n)
	c.mu.Unlock()

	log.Printf("Notification shown: %q", n.Title)
	return nil
}

func (c *Center) List() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Notification, len(c.open))
	copy(out, c.open)
	return out
}

func (c *Center) Close(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.open {
		if n.ID == id {
			c.open = append(c.open[:i], c.open[i+1:]...)
			return true
		}
	}
	return false
}

type ClickResult struct {
	Closed bool                 `json:"closed"`
	Window *models.WindowClient `json:"window,omitempty"`
	Opened bool                 `json:"opened"`
}

// Click closes the notification and, for the explore action, focuses the
// window at the root path or opens one there.
func (c *Center) Click(_ context.Context, id, action string) (ClickResult, error) {
	result := ClickResult{Closed: c.Close(id)}

	if action != models.ActionExplore && action != models.ActionView {
		return result, nil
	}

	for _, w := range c.clients.MatchAll() {
		if w.URL != RootPath {
			continue
		}
		if focused, ok := c.clients.Focus(w.ID); ok {
			result.Window = &focused
			return result, nil
		}
	}

	window, err := c.clients.OpenWindow(RootPath)
	if err != nil {
		return result, fmt.Errorf("failed to open window: %w", err)
	}
	result.Window = &window
	result.Opened = true
	return result, nil
}
