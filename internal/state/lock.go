package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/tracksync/pkg/cerr"
)

const (
	// DefaultLockTimeout bounds how long an acquirer polls for a busy
	// lock before giving up.
	DefaultLockTimeout = 30 * time.Second

	// DefaultLockStale is the age past which a leftover lock file is
	// assumed to belong to a dead process and is forcibly removed.
	DefaultLockStale = 5 * time.Minute

	// DefaultLockPoll is the interval between acquisition attempts while
	// the lock is held by someone else.
	DefaultLockPoll = 100 * time.Millisecond
)

// lockInfo is the JSON body of the lock file, recording who holds it.
type lockInfo struct {
	PID        int       `json:"pid"`
	Token      string    `json:"token"`
	AcquiredAt time.Time `json:"acquiredAt"`
}

// Lock is a held file lock. It provides mutual exclusion across separate
// processes sharing the same state file path, not across goroutines.
type Lock struct {
	store *Store
	path  string
	token string
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

// AcquireLock takes the state file lock by exclusively creating the
// sibling .lock file. If the existing lock is older than the stale
// threshold it is broken; otherwise acquisition polls until the lock is
// released or the timeout elapses.
func (s *Store) AcquireLock(ctx context.Context) (*Lock, error) {
	deadline := time.Now().Add(s.lockTimeout)
	for {
		lock, err := s.tryAcquire()
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, cerr.NewError(cerr.Internal, "failed to create state lock", err)
		}

		if s.breakStaleLock(ctx) {
			continue
		}

		if time.Now().After(deadline) {
			return nil, cerr.NewError(
				cerr.DeadlineExceeded,
				fmt.Sprintf("timed out after %s waiting for state lock %s", s.lockTimeout, s.lockPath()),
				nil,
			)
		}
		select {
		case <-ctx.Done():
			return nil, cerr.NewError(cerr.Canceled, "lock acquisition canceled", ctx.Err())
		case <-time.After(s.lockPoll):
		}
	}
}

func (s *Store) tryAcquire() (*Lock, error) {
	f, err := os.OpenFile(s.lockPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}

	token := ulid.Make().String()
	info := lockInfo{
		PID:        os.Getpid(),
		Token:      token,
		AcquiredAt: time.Now().UTC(),
	}
	content, err := json.Marshal(info)
	if err == nil {
		_, err = f.Write(content)
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(s.lockPath())
		return nil, fmt.Errorf("write lock file: %w", err)
	}

	return &Lock{store: s, path: s.lockPath(), token: token}, nil
}

// breakStaleLock removes the lock file when its recorded age exceeds the
// stale threshold. An unreadable lock file counts as stale: it was either
// half-written by a crashed process or is not ours to respect.
func (s *Store) breakStaleLock(ctx context.Context) bool {
	content, err := os.ReadFile(s.lockPath())
	if err != nil {
		// Racing release; treat as freed and retry.
		return os.IsNotExist(err)
	}

	var info lockInfo
	if err := json.Unmarshal(content, &info); err == nil {
		if time.Since(info.AcquiredAt) < s.lockStale {
			return false
		}
		s.logger.WarnContext(ctx, "breaking stale state lock",
			"path", s.lockPath(), "pid", info.PID, "age", time.Since(info.AcquiredAt).String())
	} else {
		s.logger.WarnContext(ctx, "removing unreadable state lock", "path", s.lockPath())
	}
	_ = os.Remove(s.lockPath())
	return true
}

// Release deletes the lock file after verifying the recorded token still
// matches ours. A mismatch means another process broke and re-took the
// lock; deleting it would steal theirs, so the release becomes a no-op.
func (l *Lock) Release() {
	content, err := os.ReadFile(l.path)
	if err != nil {
		return
	}
	var info lockInfo
	if err := json.Unmarshal(content, &info); err == nil && info.Token != l.token {
		l.store.logger.Warn("state lock token mismatch on release, leaving lock in place",
			"path", l.path, "holder_pid", info.PID)
		return
	}
	_ = os.Remove(l.path)
}
