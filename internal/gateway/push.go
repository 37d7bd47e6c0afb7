package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"smart-task-list/internal/models"
	"smart-task-list/internal/notify"
)

const (
	DefaultPushTitle = "Task list"
	DefaultPushBody  = "You have tasks to do!"
)

type pushPayload struct {
	Title *string `json:"title"`
	Body  *string `json:"body"`
	Icon  *string `json:"icon"`
	Badge *string `json:"badge"`
}

// HandlePush shows a notification for an incoming push message. Fields in a
// JSON payload override the defaults; anything unparseable is logged and the
// defaults are used. Push messages are not gated by the user's opt-in.
func (g *Gateway) HandlePush(ctx context.Context, payload []byte) (models.Notification, error) {
	n := models.NewNotification(DefaultPushTitle, DefaultPushBody, g.now())

	if len(payload) > 0 {
		var p pushPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			log.Printf("Error parsing push notification data: %v", err)
		} else {
			if p.Title != nil {
				n.Title = *p.Title
			}
			if p.Body != nil {
				n.Body = *p.Body
			}
			if p.Icon != nil {
				n.Icon = *p.Icon
			}
			if p.Badge != nil {
				n.Badge = *p.Badge
			}
		}
	}

	if n.Title == "" {
		n.Title = DefaultPushTitle
	}

	if err := g.notifier.Show(ctx, n); err != nil {
		return n, fmt.Errorf("failed to show push notification: %w", err)
	}
	return n, nil
}

// HandleNotificationClick closes the notification and, for the explore
// action, brings the app window to the front.
func (g *Gateway) HandleNotificationClick(ctx context.Context, id, action string) (notify.ClickResult, error) {
	return g.center.Click(ctx, id, action)
}

func (g *Gateway) Center() *notify.Center {
	return g.center
}
