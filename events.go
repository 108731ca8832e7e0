package accounts

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// LifecycleEventName identifies a lifecycle extension point
type LifecycleEventName = string

const (
	// EventRegistrationValidate fires before a registered account is persisted.
	// An observer error aborts persistence.
	EventRegistrationValidate LifecycleEventName = "account.registration_validate"
	// EventRegistrationComplete fires after a registered account is persisted.
	// Observer errors are advisory, the account is already committed.
	EventRegistrationComplete LifecycleEventName = "account.registration_complete"
	// EventPasswordResetRequested fires when a reset has been requested for an
	// active account. Observers send the reset notification.
	EventPasswordResetRequested LifecycleEventName = "account.password_reset"
)

// LifecycleEvent is an immutable notification handed to observers after a
// lifecycle transition. Payload carries the originating request document.
type LifecycleEvent struct {
	Name       LifecycleEventName
	Account    *Account
	Payload    map[string]any
	OccurredAt time.Time
}

// Observer reacts to a lifecycle event. Returning an error aborts the
// in-flight broadcast; whether it aborts the triggering operation depends
// on the extension point.
type Observer interface {
	Handle(ctx context.Context, event LifecycleEvent) error
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event LifecycleEvent) error

// Handle implements Observer.
func (f ObserverFunc) Handle(ctx context.Context, event LifecycleEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Dispatcher is a synchronous in-process broadcast: observers run in
// registration order and the first failure stops the remaining ones.
// There is no retry or durable delivery.
type Dispatcher interface {
	Publish(ctx context.Context, event LifecycleEvent) error
	Subscribe(name LifecycleEventName, observer Observer)
}

type dispatcher struct {
	mu        sync.RWMutex
	observers map[LifecycleEventName][]Observer
	now       func() time.Time
}

// DispatcherOption customizes dispatcher construction.
type DispatcherOption func(*dispatcher)

// WithDispatcherClock injects a custom clock (useful for tests).
func WithDispatcherClock(clock func() time.Time) DispatcherOption {
	return func(d *dispatcher) {
		if clock != nil {
			d.now = clock
		}
	}
}

// NewDispatcher creates an empty in-process dispatcher.
func NewDispatcher(opts ...DispatcherOption) Dispatcher {
	d := &dispatcher{
		observers: make(map[LifecycleEventName][]Observer),
		now:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d
}

func (d *dispatcher) Subscribe(name LifecycleEventName, observer Observer) {
	if observer == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers[name] = append(d.observers[name], observer)
}

func (d *dispatcher) Publish(ctx context.Context, event LifecycleEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now()
	}

	d.mu.RLock()
	observers := append([]Observer{}, d.observers[event.Name]...)
	d.mu.RUnlock()

	for _, observer := range observers {
		if observer == nil {
			continue
		}
		if err := observer.Handle(ctx, event); err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return richErr
			}
			return NewObserverError(err, event.Name)
		}
	}

	return nil
}
