package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"meetingassist/internal/config"
	"meetingassist/internal/logging"
)

// ErrLocked is returned when another invocation holds the workspace lock past
// the wait limit.
var ErrLocked = errors.New("workspace is in use by another meetingassist process")

const (
	lockRetryDelay  = 100 * time.Millisecond
	defaultLockWait = 10 * time.Second
)

// Session couples the in-memory State with its SQLite store and the
// cross-process lock. One CLI invocation owns one session.
type Session struct {
	State  *State
	store  *Store
	lock   *flock.Flock
	logger *slog.Logger
}

// SessionOptions configures OpenSession.
type SessionOptions struct {
	StatePath string
	LockPath  string
	LockWait  time.Duration
	Logger    *slog.Logger
}

// OpenFromConfig opens the session at the configured state directory.
func OpenFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	return OpenSession(ctx, SessionOptions{
		StatePath: cfg.StatePath(),
		LockPath:  cfg.LockPath(),
		Logger:    logger,
	})
}

// OpenSession acquires the workspace lock, opens the store, and restores the
// last saved snapshot.
func OpenSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	logger := logging.NewComponentLogger(opts.Logger, "workspace")
	wait := opts.LockWait
	if wait <= 0 {
		wait = defaultLockWait
	}
	if err := os.MkdirAll(filepath.Dir(opts.LockPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}

	lock := flock.New(opts.LockPath)
	lockCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	ok, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("acquire workspace lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrLocked, opts.LockPath)
	}

	store, err := Open(ctx, opts.StatePath)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	snap, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		_ = lock.Unlock()
		return nil, err
	}
	state := New()
	state.Import(snap)
	logger.Debug("workspace restored",
		logging.String("path", opts.StatePath),
		logging.String(logging.FieldClientID, snap.ClientID),
		logging.String(logging.FieldMeetingID, snap.MeetingID),
		logging.Int("meeting_count", len(snap.Meetings)),
		logging.Int("content_drafts", len(snap.Content)),
	)
	return &Session{State: state, store: store, lock: lock, logger: logger}, nil
}

// Save persists the current state.
func (s *Session) Save(ctx context.Context) error {
	return s.store.Save(ctx, s.State.Export())
}

// Reset clears the stored workspace and the in-memory state.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.store.Reset(ctx); err != nil {
		return err
	}
	s.State.Import(Snapshot{})
	return nil
}

// Close saves the state, closes the store, and releases the lock.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	saveErr := s.Save(ctx)
	if saveErr != nil {
		s.logger.Warn("workspace save failed", logging.Error(saveErr),
			logging.String(logging.FieldEventType, "workspace_save_failed"),
			logging.String(logging.FieldErrorHint, "unsaved drafts from this run may be lost"),
		)
	}
	closeErr := s.store.Close()
	unlockErr := s.lock.Unlock()
	return errors.Join(saveErr, closeErr, unlockErr)
}
