// Package storage defines the key-value collaborator that persists each
// record collection as one serialized document, plus the drivers behind it.
package storage

import (
	"context"
	"time"
)

// Keys of the two persisted collections.
const (
	KeySubmissions   = "aieni_submissions"
	KeyRegistrations = "aieni_registrations"
)

// KV stores opaque documents by key. Get reports ok=false for a missing key;
// that is not an error.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// MutateFunc receives the current value of a key (ok=false when missing)
// and returns the value to write. A nil value writes nothing; an error
// aborts without writing and is returned by Mutate unchanged.
type MutateFunc func(value []byte, ok bool) ([]byte, error)

// Mutator is implemented by drivers that run a read-modify-write of one key
// atomically, also against other processes sharing the same backend. fn may
// be called more than once when a concurrent write forces a retry.
type Mutator interface {
	Mutate(ctx context.Context, key string, fn MutateFunc) error
}

// Mutate runs fn through kv's Mutator, or as a plain Get then Set when kv has
// none.
func Mutate(ctx context.Context, kv KV, key string, fn MutateFunc) error {
	if m, ok := kv.(Mutator); ok {
		return m.Mutate(ctx, key, fn)
	}
	value, ok, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	next, err := fn(value, ok)
	if err != nil || next == nil {
		return err
	}
	return kv.Set(ctx, key, next)
}

// Pinger is implemented by drivers that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Observer receives one call per storage operation.
type Observer interface {
	ObserveStorage(driver, op string, err error, seconds float64)
}

// Instrumented wraps a KV and reports every call to an Observer.
type Instrumented struct {
	next     KV
	driver   string
	observer Observer
}

func NewInstrumented(next KV, driver string, observer Observer) *Instrumented {
	return &Instrumented{next: next, driver: driver, observer: observer}
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	start := time.Now()
	v, ok, err := i.next.Get(ctx, key)
	i.observer.ObserveStorage(i.driver, "get", err, time.Since(start).Seconds())
	return v, ok, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	i.observer.ObserveStorage(i.driver, "set", err, time.Since(start).Seconds())
	return err
}

func (i *Instrumented) Mutate(ctx context.Context, key string, fn MutateFunc) error {
	start := time.Now()
	err := Mutate(ctx, i.next, key, fn)
	i.observer.ObserveStorage(i.driver, "mutate", err, time.Since(start).Seconds())
	return err
}

// Ping forwards to the wrapped driver when it supports it.
func (i *Instrumented) Ping(ctx context.Context) error {
	if p, ok := i.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
