package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"smart-task-list/internal/models"
	"smart-task-list/internal/notify"
)

// Reminders is the part of the reminder scheduler the toggle flow drives.
type Reminders interface {
	Arm(ctx context.Context) bool
	Disarm()
}

// NotificationService implements the notification button.
type NotificationService struct {
	prefs         *notify.Preferences
	reminders     Reminders
	subscriptions *notify.Subscriptions
	notifier      notify.Notifier
	serverKey     string
	now           func() time.Time
}

func NewNotificationService(prefs *notify.Preferences, reminders Reminders, subs *notify.Subscriptions, notifier notify.Notifier) *NotificationService {
	return &NotificationService{
		prefs:         prefs,
		reminders:     reminders,
		subscriptions: subs,
		notifier:      notifier,
		serverKey:     notify.ApplicationServerKey,
		now:           time.Now,
	}
}

func (s *NotificationService) State(ctx context.Context) notify.ButtonState {
	return s.prefs.ButtonState(ctx)
}

// RequestPermission records the permission dialog outcome. Granting from the
// default state also opts the user in, like the first button press does.
func (s *NotificationService) RequestPermission(ctx context.Context, granted bool) (notify.ButtonState, error) {
	before := s.prefs.Permission(ctx)
	if before != notify.PermissionDefault {
		return s.prefs.ButtonState(ctx), nil
	}

	perm, err := s.prefs.RequestPermission(ctx, granted)
	if err != nil {
		return s.prefs.ButtonState(ctx), err
	}

	if perm == notify.PermissionGranted {
		if err := s.enable(ctx); err != nil {
			return s.prefs.ButtonState(ctx), err
		}
	}
	return s.prefs.ButtonState(ctx), nil
}

// Toggle handles a press of the notification button. In the default state it
// resolves the permission with granted; once granted it flips the opt-in.
// Denied and unsupported states are left alone.
func (s *NotificationService) Toggle(ctx context.Context, granted bool) (notify.ButtonState, error) {
	switch s.prefs.Permission(ctx) {
	case notify.PermissionDefault:
		return s.RequestPermission(ctx, granted)
	case notify.PermissionGranted:
		var err error
		if s.prefs.Enabled(ctx) {
			err = s.disable(ctx)
		} else {
			err = s.enable(ctx)
		}
		return s.prefs.ButtonState(ctx), err
	default:
		return s.prefs.ButtonState(ctx), nil
	}
}

func (s *NotificationService) enable(ctx context.Context) error {
	if err := s.prefs.SetEnabled(ctx, true); err != nil {
		return err
	}

	if s.subscriptions != nil {
		// subscription failures are logged by Subscribe and do not block opt-in
		_, _ = s.subscriptions.Subscribe(s.serverKey)
	}
	if s.reminders != nil {
		s.reminders.Arm(ctx)
	}

	s.announce(ctx, "Notifications enabled", "You will receive task notifications")
	return nil
}

func (s *NotificationService) disable(ctx context.Context) error {
	if err := s.prefs.SetEnabled(ctx, false); err != nil {
		return err
	}

	if s.reminders != nil {
		s.reminders.Disarm()
	}

	// dropped by the guard: the user has just opted out
	s.announce(ctx, "Notifications disabled", "You will no longer receive task notifications")
	return nil
}

// Send shows a notification only when permission is granted and the user
// has opted in.
func (s *NotificationService) Send(ctx context.Context, title, body string) (bool, error) {
	if s.notifier == nil || !s.prefs.Allowed(ctx) {
		return false, nil
	}
	if err := s.notifier.Show(ctx, models.NewNotification(title, body, s.now())); err != nil {
		return false, fmt.Errorf("failed to show notification: %w", err)
	}
	return true, nil
}

func (s *NotificationService) announce(ctx context.Context, title, body string) {
	if _, err := s.Send(ctx, title, body); err != nil {
		log.Printf("Failed to announce notification change: %v", err)
	}
}
