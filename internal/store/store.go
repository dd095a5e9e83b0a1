// Package store implements a file-backed record store: each entity kind lives in
// one JSON document holding the whole ordered collection, and every mutation is a
// read-modify-write of that document.
//
// The design trades concurrency for simplicity: operations load the full
// collection, mutate it in memory, and persist it wholesale. Writes to a single
// collection serialize through the collection mutex, so two in-process writers
// cannot lose each other's updates; the cost is O(n) per operation, acceptable
// for small admin-tool data sets.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Errors returned by collection operations.
var (
	// ErrNotFound is returned when no record carries the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the backing document cannot be read or parsed.
	// Callers must not assume partial reads.
	ErrUnavailable = errors.New("store unavailable")
)

// Record constrains the entity pointer type a Collection manages. The store
// owns id allocation and timestamp stamping; entities only expose the fields.
type Record[T any] interface {
	*T
	RecordID() int64
	SetRecordID(id int64)
	StampNew(now time.Time)
	StampUpdated(now time.Time)
}

// Collection is one file-backed entity collection.
type Collection[T any, PT Record[T]] struct {
	path string
	mu   sync.Mutex
}

// New creates a collection backed by the JSON document at path. The file is not
// touched until Ensure or a mutation runs.
func New[T any, PT Record[T]](path string) *Collection[T, PT] {
	return &Collection[T, PT]{path: path}
}

// Path returns the backing document path.
func (c *Collection[T, PT]) Path() string {
	return c.path
}

// Ensure writes the seed collection if no backing document exists yet.
// It is idempotent and never overwrites an existing document.
func (c *Collection[T, PT]) Ensure(seed []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := os.Stat(c.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if seed == nil {
		seed = []T{}
	}
	now := time.Now().UTC()
	for i := range seed {
		rec := PT(&seed[i])
		if rec.RecordID() == 0 {
			rec.SetRecordID(int64(i) + 1)
		}
		rec.StampNew(now)
	}
	return c.persist(seed)
}

// All returns the full collection in document order.
func (c *Collection[T, PT]) All() ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Get returns the record with the given id, or ErrNotFound.
func (c *Collection[T, PT]) Get(id int64) (T, error) {
	return c.Find(func(item T) bool {
		return PT(&item).RecordID() == id
	})
}

// Find returns the first record matching the predicate, or ErrNotFound.
// Uniqueness of the matched field is the caller's contract, not enforced here.
func (c *Collection[T, PT]) Find(match func(T) bool) (T, error) {
	var zero T
	items, err := c.All()
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if match(item) {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// Create allocates the next id (1 + max existing, 1 for an empty collection),
// stamps creation timestamps, appends the record, and persists the collection.
func (c *Collection[T, PT]) Create(item T) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return zero, err
	}
	rec := PT(&item)
	rec.SetRecordID(nextID[T, PT](items))
	rec.StampNew(time.Now().UTC())

	items = append(items, item)
	if err := c.persist(items); err != nil {
		return zero, err
	}
	return item, nil
}

// Update applies the partial mutation to the record with the given id, refreshes
// its updated timestamp, persists the collection, and returns the new record.
func (c *Collection[T, PT]) Update(id int64, apply func(*T)) (T, error) {
	var zero T
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return zero, err
	}
	for i := range items {
		rec := PT(&items[i])
		if rec.RecordID() != id {
			continue
		}
		apply(&items[i])
		rec.StampUpdated(time.Now().UTC())
		if err := c.persist(items); err != nil {
			return zero, err
		}
		return items[i], nil
	}
	return zero, ErrNotFound
}

// Delete removes the record with the given id and reports whether one was removed.
func (c *Collection[T, PT]) Delete(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load()
	if err != nil {
		return false, err
	}
	kept := items[:0]
	for _, item := range items {
		if PT(&item).RecordID() != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return false, nil
	}
	if err := c.persist(kept); err != nil {
		return false, err
	}
	return true, nil
}

// ReplaceAll persists a full collection snapshot, used by callers performing
// multi-record transforms such as capped-log eviction.
func (c *Collection[T, PT]) ReplaceAll(items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persist(items)
}

// NextID reports the id Create would allocate, given the current collection.
func NextID[T any, PT Record[T]](items []T) int64 {
	return nextID[T, PT](items)
}

func nextID[T any, PT Record[T]](items []T) int64 {
	var maxID int64
	for i := range items {
		if id := PT(&items[i]).RecordID(); id > maxID {
			maxID = id
		}
	}
	return maxID + 1
}

func (c *Collection[T, PT]) load() ([]T, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []T{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, c.path, err)
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrUnavailable, c.path, err)
	}
	return items, nil
}

// persist writes the whole collection to a temporary file and atomically renames
// it over the document, so readers see either the old snapshot or the new one.
func (c *Collection[T, PT]) persist(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrUnavailable, c.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmp, err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("%w: rename %s: %v", ErrUnavailable, c.path, err)
	}
	return nil
}
