package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"smart-task-list/internal/repositories"
)

type Permission string

const (
	PermissionDefault     Permission = "default"
	PermissionGranted     Permission = "granted"
	PermissionDenied      Permission = "denied"
	PermissionUnsupported Permission = "unsupported"
)

// Preferences holds the notification permission and the user's opt-in flag,
// both persisted in the key-value store.
type Preferences struct {
	kv        repositories.KeyValueStore
	supported bool
}

func NewPreferences(kv repositories.KeyValueStore, supported bool) *Preferences {
	return &Preferences{kv: kv, supported: supported}
}

func (p *Preferences) Supported() bool {
	return p.supported
}

func (p *Preferences) Permission(ctx context.Context) Permission {
	if !p.supported {
		return PermissionUnsupported
	}

	raw, err := p.kv.GetItem(ctx, repositories.KeyNotificationPermission)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Failed to read notification permission: %v", err)
		}
		return PermissionDefault
	}

	switch Permission(raw) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionDefault
	}
}

func (p *Preferences) Enabled(ctx context.Context) bool {
	raw, err := p.kv.GetItem(ctx, repositories.KeyNotificationsEnabled)
	if err != nil {
		return false
	}
	return raw == "true"
}

// Allowed reports whether a notification may be shown right now.
func (p *Preferences) Allowed(ctx context.Context) bool {
	return p.Permission(ctx) == PermissionGranted && p.Enabled(ctx)
}

// RequestPermission records the outcome of a permission prompt. Only a
// default permission can change; granted and denied are final.
func (p *Preferences) RequestPermission(ctx context.Context, granted bool) (Permission, error) {
	current := p.Permission(ctx)
	if current != PermissionDefault {
		return current, nil
	}

	next := PermissionDenied
	if granted {
		next = PermissionGranted
	}

	if err := p.kv.SetItem(ctx, repositories.KeyNotificationPermission, string(next)); err != nil {
		return current, fmt.Errorf("failed to store permission: %w", err)
	}
	return next, nil
}

func (p *Preferences) SetEnabled(ctx context.Context, enabled bool) error {
	value := "false"
	if enabled {
		value = "true"
	}
	if err := p.kv.SetItem(ctx, repositories.KeyNotificationsEnabled, value); err != nil {
		return fmt.Errorf("failed to store opt-in flag: %w", err)
	}
	return nil
}

type ButtonState struct {
	Permission Permission `json:"permission"`
	Enabled    bool       `json:"enabled"`
	Label      string     `json:"label"`
	Disabled   bool       `json:"disabled"`
	Active     bool       `json:"active"`
}

func (p *Preferences) ButtonState(ctx context.Context) ButtonState {
	return NewButtonState(p.Permission(ctx), p.Enabled(ctx))
}

func NewButtonState(permission Permission, enabled bool) ButtonState {
	state := ButtonState{Permission: permission, Enabled: enabled}

	switch permission {
	case PermissionUnsupported:
		state.Label = "Notifications not supported"
		state.Disabled = true
	case PermissionGranted:
		if enabled {
			state.Label = "Disable notifications"
			state.Active = true
		} else {
			state.Label = "Enable notifications"
		}
	case PermissionDenied:
		state.Label = "Notifications blocked"
		state.Disabled = true
	default:
		state.Label = "Allow notifications"
	}

	return state
}
