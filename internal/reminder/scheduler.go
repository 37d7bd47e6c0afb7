// Package reminder runs the periodic incomplete-task reminder.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"smart-task-list/internal/models"
	"smart-task-list/internal/notify"
)

// Interval is the fixed spacing between reminder checks.
const Interval = 2 * time.Hour

// Ticker is the part of *time.Ticker the scheduler needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// Counter reports how many tasks are still open.
type Counter interface {
	ActiveCount() int
}

// Gate reports whether notifications may currently be shown.
type Gate interface {
	Allowed(ctx context.Context) bool
}

type timer struct {
	ticker Ticker
	stop   chan struct{}
	done   chan struct{}
}

// Scheduler owns at most one live reminder timer.
type Scheduler struct {
	mu        sync.Mutex
	current   *timer
	counter   Counter
	gate      Gate
	notifier  notify.Notifier
	newTicker TickerFactory
	now       func() time.Time
}

type Option func(*Scheduler)

func WithTickerFactory(f TickerFactory) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

func NewScheduler(counter Counter, gate Gate, notifier notify.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		counter:   counter,
		gate:      gate,
		notifier:  notifier,
		newTicker: NewTimeTicker,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Arm cancels any live timer and, if the user has opted in, starts a new one.
// It reports whether a timer is running afterwards.
func (s *Scheduler) Arm(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.stopLocked()
		log.Println("Cleared previous notification interval")
	}

	if !s.gate.Allowed(ctx) {
		log.Println("Notifications disabled, reminder not armed")
		return false
	}

	t := &timer{
		ticker: s.newTicker(Interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.current = t
	go s.run(t)

	log.Printf("Reminder armed, checking every %s", Interval)
	return true
}

func (s *Scheduler) Disarm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.stopLocked()
		log.Println("Reminder disarmed")
	}
}

func (s *Scheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// stopLocked stops the live timer and waits for its goroutine, so no tick of
// the old timer can fire after it returns.
func (s *Scheduler) stopLocked() {
	t := s.current
	s.current = nil
	t.ticker.Stop()
	close(t.stop)
	<-t.done
}

func (s *Scheduler) run(t *timer) {
	defer close(t.done)

	for {
		select {
		case <-t.stop:
			return
		case <-t.ticker.C():
			select {
			case <-t.stop:
				return
			default:
			}
			if !s.tick() {
				go s.release(t)
				return
			}
		}
	}
}

// release forgets t if it is still the live timer. It runs on its own
// goroutine because Arm and Disarm hold the lock while waiting for t to exit.
func (s *Scheduler) release(t *timer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == t {
		s.current = nil
		t.ticker.Stop()
	}
}

// tick returns false when notifications are no longer allowed.
func (s *Scheduler) tick() bool {
	ctx := context.Background()
	log.Printf("Checking for incomplete tasks at %s", s.now().Format(time.Kitchen))

	if !s.gate.Allowed(ctx) {
		log.Println("Reminder stopped, notifications disabled")
		return false
	}

	active := s.counter.ActiveCount()
	if active == 0 {
		return true
	}

	n := models.NewNotification(
		"Reminder: Incomplete Tasks",
		fmt.Sprintf("You have %d task(s) to complete.", active),
		s.now(),
	)
	if err := s.notifier.Show(ctx, n); err != nil {
		log.Printf("Failed to show reminder: %v", err)
	}
	return true
}
