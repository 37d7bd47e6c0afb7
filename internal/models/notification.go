package models

import "time"

const (
	ActionExplore = "explore"
	ActionClose   = "close"
	// ActionView is accepted as a synonym of ActionExplore.
	ActionView = "view"
)

type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

type NotificationData struct {
	DateOfArrival int64 `json:"dateOfArrival"`
	PrimaryKey    int   `json:"primaryKey"`
}

type Notification struct {
	ID      string               `json:"id"`
	Title   string               `json:"title"`
	Body    string               `json:"body"`
	Icon    string               `json:"icon,omitempty"`
	Badge   string               `json:"badge,omitempty"`
	Vibrate []int                `json:"vibrate"`
	Data    NotificationData     `json:"data"`
	Actions []NotificationAction `json:"actions"`
	ShownAt time.Time            `json:"shownAt"`
}

func DefaultVibrate() []int {
	return []int{100, 50, 100}
}

func DefaultActions() []NotificationAction {
	return []NotificationAction{
		{Action: ActionExplore, Title: "View Tasks"},
		{Action: ActionClose, Title: "Close"},
	}
}

// NewNotification fills in the vibration pattern, arrival data and the
// explore/close actions every notification of the app carries.
func NewNotification(title, body string, now time.Time) Notification {
	return Notification{
		Title:   title,
		Body:    body,
		Vibrate: DefaultVibrate(),
		Data: NotificationData{
			DateOfArrival: now.UnixMilli(),
			PrimaryKey:    1,
		},
		Actions: DefaultActions(),
	}
}

// WindowClient is an open application window.
type WindowClient struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Focused  bool      `json:"focused"`
	OpenedAt time.Time `json:"openedAt"`
}
