package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kazz187/tracksync/pkg/cerr"
)

// Store persists SyncState as a single JSON file. Reads are fail-soft: a
// missing or corrupted file yields an empty state, because the remote
// tracker remains the source of truth for item existence. Writes always go
// through a temp file and an atomic rename.
type Store struct {
	path   string
	logger *slog.Logger

	lockTimeout time.Duration
	lockStale   time.Duration
	lockPoll    time.Duration
}

type StoreOption func(*Store)

func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithLockTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

func WithLockStale(d time.Duration) StoreOption {
	return func(s *Store) {
		s.lockStale = d
	}
}

func WithLockPoll(d time.Duration) StoreOption {
	return func(s *Store) {
		s.lockPoll = d
	}
}

func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{
		path:        path,
		logger:      slog.Default(),
		lockTimeout: DefaultLockTimeout,
		lockStale:   DefaultLockStale,
		lockPoll:    DefaultLockPoll,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the state file. Absent, unparsable, or schema-invalid files
// all yield an empty state; corruption is logged, never fatal.
func (s *Store) Load(ctx context.Context) SyncState {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.WarnContext(ctx, "failed to read sync state, starting empty",
				"path", s.path, "error", err)
		}
		return Empty()
	}

	var st SyncState
	if err := json.Unmarshal(content, &st); err != nil {
		corrupt := cerr.NewError(cerr.DataLoss, "sync state file is corrupted", err)
		s.logger.WarnContext(ctx, "failed to parse sync state, starting empty",
			"path", s.path, "error", corrupt)
		return Empty()
	}
	if st.Version == "" {
		s.logger.WarnContext(ctx, "sync state file missing schema version, starting empty",
			"path", s.path)
		return Empty()
	}
	if st.TaskMappings == nil {
		st.TaskMappings = map[string]TaskMapping{}
	}
	return st
}

// Save writes the state atomically: marshal to a sibling temp file, then
// rename over the target. A crash mid-write never leaves a half-written
// state file. LastSyncAt is stamped on every successful write, and the
// state as persisted is returned.
func (s *Store) Save(ctx context.Context, st SyncState) (SyncState, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return SyncState{}, cerr.NewError(cerr.Internal, "failed to create state directory", err)
	}

	now := time.Now().UTC()
	st.LastSyncAt = &now
	if st.Version == "" {
		st.Version = Version
	}

	content, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return SyncState{}, cerr.NewError(cerr.Internal, "failed to marshal sync state", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		_ = os.Remove(tmp)
		return SyncState{}, cerr.NewError(cerr.Internal, "failed to write sync state", fmt.Errorf("write temp file: %w", err))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return SyncState{}, cerr.NewError(cerr.Internal, "failed to write sync state", fmt.Errorf("rename temp file: %w", err))
	}
	return st, nil
}

// Update runs fn under the file lock: acquire, load, transform, save,
// release. The lock is released on every exit path, including a failing
// transformation.
func (s *Store) Update(ctx context.Context, fn func(SyncState) (SyncState, error)) (SyncState, error) {
	lock, err := s.AcquireLock(ctx)
	if err != nil {
		return SyncState{}, err
	}
	defer lock.Release()

	st := s.Load(ctx)
	next, err := fn(st)
	if err != nil {
		return SyncState{}, err
	}
	return s.Save(ctx, next)
}
