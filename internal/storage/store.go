package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/substratehq/substrate/internal/state"
)

// Defaults for lock handling. The staleness threshold is deliberately
// much larger than any single read-modify-write cycle.
const (
	DefaultLockTimeout  = 5 * time.Second
	DefaultStaleAfter   = 30 * time.Second
	DefaultPollInterval = 25 * time.Millisecond
)

// Store persists one governance document at a fixed path.
// Safe for concurrent use from independent processes; within a process
// it holds no mutable state beyond configuration.
type Store struct {
	path         string
	lockTimeout  time.Duration
	staleAfter   time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long writers wait for the advisory lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

// WithStaleAfter sets the age at which a held lock is treated as
// abandoned and reclaimed.
func WithStaleAfter(d time.Duration) Option {
	return func(s *Store) { s.staleAfter = d }
}

// WithPollInterval sets the lock acquisition poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Store) { s.pollInterval = d }
}

// WithLogger sets the store logger (defaults to slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNow overrides wall-clock time, used by tests for deterministic
// skeleton timestamps.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a Store bound to the state document at path.
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:         path,
		lockTimeout:  DefaultLockTimeout,
		staleAfter:   DefaultStaleAfter,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state document path.
func (s *Store) Path() string { return s.path }

func (s *Store) lockPath() string { return s.path + ".lock" }

// Read loads the document, synthesizing a default skeleton if absent
// and normalizing legacy shapes. Corrupt JSON returns *ParseError -
// never a silent empty document.
//
// Read takes no lock: the atomic rename in Write guarantees any
// observed file is a complete document.
func (s *Store) Read() (*state.GovernanceState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return state.NewSkeleton(s.now().UTC().Format(time.RFC3339)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state %s: %w", s.path, err)
	}

	var st state.GovernanceState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, &ParseError{Path: s.path, Err: err}
	}
	st.Normalize()
	return &st, nil
}

// Write persists the document atomically under the advisory lock.
// Prefer Update for read-modify-write cycles.
func (s *Store) Write(st *state.GovernanceState) error {
	lock, err := acquireLock(s.lockPath(), s.lockTimeout, s.staleAfter, s.pollInterval, s.logger)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	return s.writeLocked(st)
}

// Update runs one serialized read-modify-write cycle: acquire the
// lock, load fresh state, apply fn, persist atomically, release.
//
// If fn returns an error the document is NOT written and the error is
// returned verbatim - a rejected transition never touches the file.
// This is the at-most-one-winner primitive: fn always sees the latest
// committed document, so a losing concurrent writer fails its own gate
// inside fn instead of clobbering the winner.
func (s *Store) Update(fn func(*state.GovernanceState) error) error {
	lock, err := acquireLock(s.lockPath(), s.lockTimeout, s.staleAfter, s.pollInterval, s.logger)
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	st, err := s.Read()
	if err != nil {
		return err
	}
	if err := fn(st); err != nil {
		return err
	}
	return s.writeLocked(st)
}

// releaseLock releases and logs instead of discarding the error: a
// lock that fails to release wedges the namespace until StaleAfter.
func (s *Store) releaseLock(lock *flock) {
	if err := lock.release(); err != nil {
		s.logger.Warn("failed to release lock", "path", s.lockPath(), "error", err)
	}
}

// writeLocked writes to a temp file in the same directory and renames
// into place. Rename within one filesystem is atomic, so no reader
// ever observes a partial write.
func (s *Store) writeLocked(st *state.GovernanceState) error {
	st.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("write state %s: %w", s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state %s: %w", s.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync state %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state %s: %w", s.path, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state %s: %w", s.path, err)
	}
	return nil
}
