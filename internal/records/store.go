// Package records keeps one record collection in a storage.KV document. Every
// read-modify-write cycle runs through storage.Mutate, so drivers that
// implement storage.Mutator make it atomic across processes.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"aieni/internal/storage"
	dErrors "aieni/pkg/domain-errors"
)

// Outcome reports whether Update changed anything. An unchanged update is a
// normal result, not an error.
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
)

// Codec binds a record type to its storage key and identity.
type Codec[T any] struct {
	Key string
	// Noun is used in error messages, e.g. "submission".
	Noun string
	ID   func(T) string
	// Normalize fills missing fields of a decoded record. index is the
	// record's position in the stored array.
	Normalize func(rec T, index int, now time.Time) T
}

// Store is safe for concurrent use.
type Store[T any] struct {
	kv     storage.KV
	codec  Codec[T]
	logger *slog.Logger
	now    func() time.Time

	// mu keeps writers in this process from contending on the driver.
	mu sync.Mutex
}

type Option[T any] func(*Store[T])

func WithClock[T any](now func() time.Time) Option[T] {
	return func(s *Store[T]) { s.now = now }
}

func New[T any](kv storage.KV, codec Codec[T], logger *slog.Logger, opts ...Option[T]) *Store[T] {
	s := &Store[T]{kv: kv, codec: codec, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// snapshot is the stored array as read. recs[i] was decoded from
// elems[pos[i]]; elements that did not decode have no record and are written
// back verbatim.
type snapshot[T any] struct {
	elems []json.RawMessage
	recs  []T
	pos   []int
}

// Load returns the whole collection in insertion order. A missing key is an
// empty collection; malformed elements are skipped.
func (s *Store[T]) Load(ctx context.Context) ([]T, error) {
	raw, ok, err := s.kv.Get(ctx, s.codec.Key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to load %ss", s.codec.Noun))
	}
	return s.decode(ctx, raw, ok).recs, nil
}

func (s *Store[T]) decode(ctx context.Context, raw []byte, ok bool) *snapshot[T] {
	snap := &snapshot[T]{recs: []T{}}
	if !ok || len(raw) == 0 {
		return snap
	}

	if err := json.Unmarshal(raw, &snap.elems); err != nil {
		s.logger.WarnContext(ctx, "stored collection is not a JSON array, treating as empty",
			"key", s.codec.Key,
			"error", err,
		)
		snap.elems = nil
		return snap
	}

	now := s.now()
	snap.recs = make([]T, 0, len(snap.elems))
	snap.pos = make([]int, 0, len(snap.elems))
	for i, elem := range snap.elems {
		var rec T
		if err := json.Unmarshal(elem, &rec); err != nil {
			s.logger.WarnContext(ctx, "skipping malformed record",
				"key", s.codec.Key,
				"index", i,
				"error", err,
			)
			continue
		}
		if s.codec.Normalize != nil {
			rec = s.codec.Normalize(rec, i, now)
		}
		snap.recs = append(snap.recs, rec)
		snap.pos = append(snap.pos, i)
	}
	return snap
}

func (s *Store[T]) encode(rec T) (json.RawMessage, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to encode %s", s.codec.Noun))
	}
	return b, nil
}

// write runs apply against the current document in one storage.Mutate.
// apply returns the elements to store and whether to store them at all. Its
// errors are returned unchanged.
func (s *Store[T]) write(ctx context.Context, apply func(snap *snapshot[T]) ([]json.RawMessage, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var applyErr error
	err := storage.Mutate(ctx, s.kv, s.codec.Key, func(raw []byte, ok bool) ([]byte, error) {
		applyErr = nil
		elems, changed, err := apply(s.decode(ctx, raw, ok))
		if err != nil {
			applyErr = err
			return nil, err
		}
		if !changed {
			return nil, nil
		}
		if elems == nil {
			elems = []json.RawMessage{}
		}
		doc, err := json.Marshal(elems)
		if err != nil {
			applyErr = dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to encode %ss", s.codec.Noun))
			return nil, applyErr
		}
		return doc, nil
	})
	if applyErr != nil {
		return applyErr
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to save %ss", s.codec.Noun))
	}
	return nil
}

func (s *Store[T]) notFound(id string) error {
	return dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("%s %s not found", s.codec.Noun, id))
}

func (s *Store[T]) index(recs []T, id string) int {
	return slices.IndexFunc(recs, func(r T) bool { return s.codec.ID(r) == id })
}

func (s *Store[T]) Find(ctx context.Context, id string) (T, error) {
	var zero T
	recs, err := s.Load(ctx)
	if err != nil {
		return zero, err
	}
	i := s.index(recs, id)
	if i < 0 {
		return zero, s.notFound(id)
	}
	return recs[i], nil
}

// Append adds rec at the end of the collection. A duplicate ID is a conflict.
func (s *Store[T]) Append(ctx context.Context, rec T) error {
	_, err := s.AppendFunc(ctx, func(taken func(string) bool) (T, error) {
		if taken(s.codec.ID(rec)) {
			var zero T
			return zero, dErrors.New(dErrors.CodeConflict, fmt.Sprintf("%s %s already exists", s.codec.Noun, s.codec.ID(rec)))
		}
		return rec, nil
	})
	return err
}

// AppendFunc builds the new record while the collection is locked, so build
// can pick an ID that no existing record uses. build may run again if a
// concurrent writer forces a retry.
func (s *Store[T]) AppendFunc(ctx context.Context, build func(taken func(id string) bool) (T, error)) (T, error) {
	var rec T
	err := s.write(ctx, func(snap *snapshot[T]) ([]json.RawMessage, bool, error) {
		taken := func(id string) bool { return s.index(snap.recs, id) >= 0 }
		built, err := build(taken)
		if err != nil {
			return nil, false, err
		}
		elem, err := s.encode(built)
		if err != nil {
			return nil, false, err
		}
		rec = built
		return append(slices.Clone(snap.elems), elem), true, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return rec, nil
}

// Update applies mutate to a copy of the record with the given id. mutate
// reports whether it changed anything; when it did not, nothing is written.
// Only the updated element is rewritten. If writing fails the stored
// collection is left as it was.
func (s *Store[T]) Update(ctx context.Context, id string, mutate func(*T) bool) (Outcome, error) {
	outcome := OutcomeUnchanged
	err := s.write(ctx, func(snap *snapshot[T]) ([]json.RawMessage, bool, error) {
		outcome = OutcomeUnchanged
		i := s.index(snap.recs, id)
		if i < 0 {
			return nil, false, s.notFound(id)
		}
		rec := snap.recs[i]
		if !mutate(&rec) {
			return nil, false, nil
		}
		elem, err := s.encode(rec)
		if err != nil {
			return nil, false, err
		}
		next := slices.Clone(snap.elems)
		next[snap.pos[i]] = elem
		outcome = OutcomeUpdated
		return next, true, nil
	})
	if err != nil {
		return "", err
	}
	return outcome, nil
}

// Remove deletes the record with the given id and returns it. Other elements
// are kept as stored.
func (s *Store[T]) Remove(ctx context.Context, id string) (T, error) {
	var removed T
	err := s.write(ctx, func(snap *snapshot[T]) ([]json.RawMessage, bool, error) {
		i := s.index(snap.recs, id)
		if i < 0 {
			return nil, false, s.notFound(id)
		}
		removed = snap.recs[i]
		p := snap.pos[i]
		return slices.Delete(slices.Clone(snap.elems), p, p+1), true, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return removed, nil
}

// Replace overwrites the whole collection.
func (s *Store[T]) Replace(ctx context.Context, recs []T) error {
	elems := make([]json.RawMessage, 0, len(recs))
	for _, rec := range recs {
		elem, err := s.encode(rec)
		if err != nil {
			return err
		}
		elems = append(elems, elem)
	}
	return s.write(ctx, func(*snapshot[T]) ([]json.RawMessage, bool, error) {
		return elems, true, nil
	})
}

// Snapshot returns the stored document exactly as stored, or nil when the
// key is missing.
func (s *Store[T]) Snapshot(ctx context.Context) ([]byte, error) {
	raw, ok, err := s.kv.Get(ctx, s.codec.Key)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to load %ss", s.codec.Noun))
	}
	if !ok {
		return nil, nil
	}
	return raw, nil
}

// Restore writes back a document taken with Snapshot. A nil document leaves
// an empty collection.
func (s *Store[T]) Restore(ctx context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc == nil {
		doc = []byte("[]")
	}
	if err := s.kv.Set(ctx, s.codec.Key, doc); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to save %ss", s.codec.Noun))
	}
	return nil
}
