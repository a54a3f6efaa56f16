package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// lockInfo is the advisory lock file payload. Portable by construction:
// an O_EXCL create plus owner token and timestamp works on every
// platform, unlike POSIX flock.
type lockInfo struct {
	Owner      string `json:"owner"`
	PID        int    `json:"pid"`
	AcquiredAt string `json:"acquired_at"`
}

// flock is one acquired advisory lock. Release removes the lock file
// only if this process still owns it.
type flock struct {
	path  string
	owner string
}

// acquireLock takes the advisory lock at path, polling up to timeout.
// A lock older than staleAfter is treated as abandoned and reclaimed.
func acquireLock(path string, timeout, staleAfter, poll time.Duration, logger *slog.Logger) (*flock, error) {
	owner := uuid.NewString()
	deadline := time.Now().Add(timeout)
	lastOwner := "unknown"

	for {
		ok, err := tryLock(path, owner)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", path, err)
		}
		if ok {
			return &flock{path: path, owner: owner}, nil
		}

		info, err := readLockInfo(path)
		if err == nil {
			lastOwner = info.Owner
			if acquired, perr := time.Parse(time.RFC3339Nano, info.AcquiredAt); perr == nil {
				if time.Since(acquired) > staleAfter {
					reclaimStaleLock(path, owner, info, logger)
					continue
				}
			}
		}

		if time.Now().After(deadline) {
			return nil, &LockTimeoutError{Path: path, Owner: lastOwner, Waited: timeout, Timeout: timeout}
		}
		time.Sleep(poll)
	}
}

// reclaimStaleLock takes an abandoned lock file out of the way by
// renaming it to a name unique to this waiter. Rename is atomic, so
// when several waiters race to reclaim the same stale lock exactly one
// rename succeeds; the losers see ErrNotExist and go back to polling.
// A bare remove here would let a loser delete the winner's freshly
// re-acquired lock and hand the namespace to two holders at once.
//
// The renamed payload is verified against the observed stale info: if
// a new holder slipped in between the staleness check and the rename,
// the live lock is restored via link, which cannot clobber an even
// newer lock already at path.
func reclaimStaleLock(path, waiter string, observed *lockInfo, logger *slog.Logger) {
	claimed := fmt.Sprintf("%s.reclaim-%s", path, waiter)
	if err := os.Rename(path, claimed); err != nil {
		return
	}

	current, err := readLockInfo(claimed)
	if err == nil && current.Owner == observed.Owner && current.AcquiredAt == observed.AcquiredAt {
		age := time.Duration(0)
		if acquired, perr := time.Parse(time.RFC3339Nano, current.AcquiredAt); perr == nil {
			age = time.Since(acquired).Round(time.Millisecond)
		}
		logger.Warn("reclaimed stale lock",
			"path", path,
			"owner", current.Owner,
			"age", age)
		_ = os.Remove(claimed)
		return
	}

	// Not the lock judged stale: put the live lock back unless a newer
	// one already took its place.
	if err := os.Link(claimed, path); err == nil || errors.Is(err, os.ErrExist) {
		_ = os.Remove(claimed)
		return
	}
	_ = os.Remove(claimed)
}

// tryLock attempts a single O_CREATE|O_EXCL acquisition.
// Returns (false, nil) when the lock is held by someone else.
func tryLock(path, owner string) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	info := lockInfo{
		Owner:      owner,
		PID:        os.Getpid(),
		AcquiredAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := json.NewEncoder(f).Encode(info); err != nil {
		_ = os.Remove(path)
		return false, err
	}
	return true, nil
}

func readLockInfo(path string) (*lockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// release removes the lock file if still owned by this holder.
// A reclaimed-then-reacquired lock belongs to the new owner and is
// left alone.
func (l *flock) release() error {
	info, err := readLockInfo(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	if info.Owner != l.owner {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
