// Package activity provides the append-only capped activity log fed by every
// mutating request, decoupled from the response path.
package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/opsboard/opsboard/internal/query"
	"github.com/opsboard/opsboard/internal/store"
)

// MaxEntries caps the log; insertion evicts the oldest entries beyond it.
const MaxEntries = 1000

const defaultRecentLimit = 10

// Service records activity entries through a single background writer, so the
// request path never waits on the log and cap eviction stays serialized.
type Service struct {
	col    *store.Collection[Entry, *Entry]
	logger *slog.Logger
	queue  chan Entry
	stop   chan struct{}
	done   chan struct{}
}

// NewService creates a new activity service over the given collection.
func NewService(log *slog.Logger, col *store.Collection[Entry, *Entry]) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		col:    col,
		logger: log.With(slog.String("service", "activity")),
		queue:  make(chan Entry, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Ensure creates an empty collection document if none exists yet.
func (s *Service) Ensure() error {
	return s.col.Ensure(nil)
}

// Start launches the background writer.
func (s *Service) Start() {
	go s.run()
}

// Stop drains queued entries and stops the writer, or gives up when ctx ends.
func (s *Service) Stop(ctx context.Context) error {
	close(s.stop)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Record enqueues an entry for the background writer. It never blocks and
// never fails the caller; when the queue is full the entry is dropped and the
// drop is logged.
func (s *Service) Record(entry Entry) {
	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("activity queue full, dropping entry",
			slog.String("action", entry.Action))
	}
}

// Recent returns up to limit entries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	items, err := s.col.All()
	if err != nil {
		return nil, err
	}
	page, _ := query.Paginate(items, 1, limit)
	return page, nil
}

func (s *Service) run() {
	defer close(s.done)
	for {
		select {
		case entry := <-s.queue:
			s.write(entry)
		case <-s.stop:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case entry := <-s.queue:
					s.write(entry)
				default:
					return
				}
			}
		}
	}
}

// write swallows failures: the audit log must never surface errors to clients.
func (s *Service) write(entry Entry) {
	if err := s.insert(entry); err != nil {
		s.logger.Error("record activity failed", slog.Any("error", err))
	}
}

func (s *Service) insert(entry Entry) error {
	items, err := s.col.All()
	if err != nil {
		return err
	}
	entry.ID = store.NextID[Entry, *Entry](items)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	items = append([]Entry{entry}, items...)
	if len(items) > MaxEntries {
		items = items[:MaxEntries]
	}
	return s.col.ReplaceAll(items)
}
