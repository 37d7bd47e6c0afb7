package notify

import (
	"sort"
	"sync"
	"time"

	"smart-task-list/internal/models"

	"github.com/gofrs/uuid"
)

// Clients tracks the application windows currently open.
type Clients struct {
	mu      sync.RWMutex
	windows map[string]*models.WindowClient
	now     func() time.Time
}

func NewClients() *Clients {
	return &Clients{
		windows: make(map[string]*models.WindowClient),
		now:     time.Now,
	}
}

func (c *Clients) Register(url string) (models.WindowClient, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return models.WindowClient{}, err
	}

	window := &models.WindowClient{
		ID:       id.String(),
		URL:      url,
		OpenedAt: c.now(),
	}

	c.mu.Lock()
	c.windows[window.ID] = window
	c.mu.Unlock()

	return *window, nil
}

func (c *Clients) Unregister(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.windows[id]; !ok {
		return false
	}
	delete(c.windows, id)
	return true
}

// MatchAll returns every open window, oldest first.
func (c *Clients) MatchAll() []models.WindowClient {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.WindowClient, 0, len(c.windows))
	for _, w := range c.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenedAt.Equal(out[j].OpenedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].OpenedAt.Before(out[j].OpenedAt)
	})
	return out
}

// Focus gives id the focus and takes it from every other window.
func (c *Clients) Focus(id string) (models.WindowClient, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, ok := c.windows[id]
	if !ok {
		return models.WindowClient{}, false
	}
	for _, w := range c.windows {
		w.Focused = false
	}
	target.Focused = true
	return *target, true
}

func (c *Clients) OpenWindow(url string) (models.WindowClient, error) {
	window, err := c.Register(url)
	if err != nil {
		return window, err
	}
	focused, _ := c.Focus(window.ID)
	return focused, nil
}
