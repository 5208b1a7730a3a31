// Package services hosts the background plumbing between the ledger and its
// outbound adapters.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"homeledger/internal/ledger"
)

// SnapshotSaver is the storage dependency; *storage.SQLiteRepository
// satisfies it.
type SnapshotSaver interface {
	Save(ctx context.Context, snap ledger.Snapshot) error
}

// ChangePublisher notifies downstream consumers that a new revision was
// persisted; *amqp.Client satisfies it.
type ChangePublisher interface {
	PublishLedgerChange(ctx context.Context, revision uint64) error
}

// PersistConfig holds configuration for the persist service
type PersistConfig struct {
	// Debounce is how long to wait after a change before saving, so a burst
	// of mutations becomes one write (default: 500ms)
	Debounce time.Duration

	// SaveTimeout bounds a single save operation (default: 10s)
	SaveTimeout time.Duration
}

// DefaultPersistConfig returns sensible defaults
func DefaultPersistConfig() PersistConfig {
	return PersistConfig{
		Debounce:    500 * time.Millisecond,
		SaveTimeout: 10 * time.Second,
	}
}

// PersistService saves ledger snapshots after each mutation. Writes are
// debounced and fire-and-forget: the mutation has already succeeded in
// memory, so a failed save is logged and retried on the next change rather
// than surfaced to the user.
type PersistService struct {
	ledger    *ledger.Ledger
	storage   SnapshotSaver
	publisher ChangePublisher
	config    PersistConfig

	changes chan uint64

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewPersistService wires the service to the ledger's change observer.
// publisher may be nil when no message broker is configured.
func NewPersistService(l *ledger.Ledger, storage SnapshotSaver, publisher ChangePublisher, config PersistConfig) *PersistService {
	s := &PersistService{
		ledger:    l,
		storage:   storage,
		publisher: publisher,
		config:    config,
		changes:   make(chan uint64, 64),
	}
	l.OnChange(s.notify)
	return s
}

// notify is the ledger observer. It must never block the mutating request,
// so a full channel just drops the signal; the pending revision is still
// covered by whichever signal got through.
func (s *PersistService) notify(revision uint64) {
	select {
	case s.changes <- revision:
	default:
	}
}

// Start begins the save loop. Returns an error if already running.
func (s *PersistService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("persist service is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Persist service started",
		"debounce", s.config.Debounce)

	return nil
}

// Stop flushes any pending save and stops the loop.
func (s *PersistService) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Persist service stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Persist service stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the service is currently running
func (s *PersistService) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *PersistService) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending uint64
		dirty   bool
	)

	for {
		select {
		case <-s.stopCh:
			if dirty {
				s.save(ctx, pending)
			}
			return
		case <-ctx.Done():
			if dirty {
				s.save(context.WithoutCancel(ctx), pending)
			}
			return
		case rev := <-s.changes:
			pending = rev
			dirty = true
			if timer == nil {
				timer = time.NewTimer(s.config.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(s.config.Debounce)
			}
		case <-timerC:
			if dirty {
				s.save(ctx, pending)
				dirty = false
			}
			timerC = nil
			timer = nil
		}
	}
}

// Flush saves immediately, regardless of the debounce window. Used on
// graceful shutdown before the storage handle is closed.
func (s *PersistService) Flush(ctx context.Context) error {
	snap := s.ledger.Snapshot()
	saveCtx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()
	if err := s.storage.Save(saveCtx, snap); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	return nil
}

func (s *PersistService) save(ctx context.Context, revision uint64) {
	snap := s.ledger.Snapshot()

	saveCtx, cancel := context.WithTimeout(ctx, s.config.SaveTimeout)
	defer cancel()

	if err := s.storage.Save(saveCtx, snap); err != nil {
		slog.ErrorContext(ctx, "Failed to save snapshot",
			"revision", revision,
			"error", err)
		return
	}

	slog.DebugContext(ctx, "Snapshot saved", "revision", revision)

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLedgerChange(saveCtx, revision); err != nil {
		// The mirror catches up on the next change; local state is safe.
		slog.WarnContext(ctx, "Failed to publish ledger change",
			"revision", revision,
			"error", err)
	}
}
