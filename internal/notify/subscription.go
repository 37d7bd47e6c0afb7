package notify

import (
	"crypto/ecdh"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// ApplicationServerKey is the public key used to create push subscriptions.
const ApplicationServerKey = "BEl62iUYgUivxIkv69yViEuiBIa-Ib9-SkvMeAtA3LFgDzkrxZJjSgSnfckjBJuBkr3qBUYIHBQFLXYp5Nksh8U"

// DecodeApplicationServerKey decodes URL-safe base64 with or without padding
// and checks that the result is an uncompressed P-256 point.
func DecodeApplicationServerKey(raw string) ([]byte, error) {
	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "="))
	if err != nil {
		return nil, fmt.Errorf("invalid application server key encoding: %w", err)
	}

	if _, err := ecdh.P256().NewPublicKey(key); err != nil {
		return nil, fmt.Errorf("invalid application server key: %w", err)
	}
	return key, nil
}

type Subscription struct {
	UserVisibleOnly      bool      `json:"userVisibleOnly"`
	ApplicationServerKey []byte    `json:"applicationServerKey"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Subscriptions records the local push subscription. Nothing is sent to a
// push service.
type Subscriptions struct {
	mu      sync.RWMutex
	current *Subscription
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{}
}

func (s *Subscriptions) Subscribe(rawKey string) (Subscription, error) {
	key, err := DecodeApplicationServerKey(rawKey)
	if err != nil {
		log.Printf("Failed to subscribe to push notifications: %v", err)
		return Subscription{}, err
	}

	sub := Subscription{
		UserVisibleOnly:      true,
		ApplicationServerKey: key,
		CreatedAt:            time.Now(),
	}

	s.mu.Lock()
	s.current = &sub
	s.mu.Unlock()

	log.Println("Push subscription successful")
	return sub, nil
}

func (s *Subscriptions) Current() (Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return Subscription{}, false
	}
	return *s.current, true
}
