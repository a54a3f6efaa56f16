package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/substratehq/substrate/internal/audit"
	"github.com/substratehq/substrate/internal/definition"
	"github.com/substratehq/substrate/internal/state"
	"github.com/substratehq/substrate/internal/storage"
)

// Log events written by engine transitions.
const (
	EventInitialized     = "initialized"
	EventStarted         = "started"
	EventCompleted       = "completed"
	EventNoted           = "noted"
	EventFailed          = "failed"
	EventBlocked         = "blocked"
	EventReset           = "reset"
	EventHandover        = "handover"
	EventResumed         = "resumed"
	EventSnapshot        = "snapshot"
	EventPolicyRegister  = "policy_registered"
	EventPolicyActivated = "policy_activated"
)

// Result is the envelope returned by every engine operation.
// OK=false carries a gate failure message with zero mutation behind
// it; payload shape depends on the operation.
type Result struct {
	OK      bool           `json:"ok"`
	Message string         `json:"message"`
	Payload map[string]any `json:"payload,omitempty"`
}

func reject(format string, args ...any) Result {
	return Result{OK: false, Message: fmt.Sprintf(format, args...)}
}

// errRejected aborts the storage update without persisting when a gate
// fails inside the locked cycle. Never escapes the engine.
var errRejected = errors.New("transition rejected")

// Engine executes governance transitions against one store and one
// definition document. Safe for concurrent use: the engine holds no
// mutable state, and writer serialization happens in storage.
type Engine struct {
	store  *storage.Store
	defs   *definition.Document
	clock  Clock
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock (tests use a deterministic one).
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the engine logger (defaults to slog.Default).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over the given store and definition.
func New(store *storage.Store, defs *definition.Document, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		defs:   defs,
		clock:  wallClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// now formats the current transition timestamp.
func (e *Engine) now() string {
	return e.clock.Now().UTC().Format(time.RFC3339)
}

// transition runs fn inside the locked envelope described in the
// package comment. fn sees freshly loaded state; returning a Result
// with OK=false (or any error) aborts the cycle before the file is
// touched.
func (e *Engine) transition(op string, fn func(st *state.GovernanceState) (Result, error)) (Result, error) {
	var res Result
	err := e.store.Update(func(st *state.GovernanceState) error {
		beforeLog := st.CloneLog()

		r, err := fn(st)
		if err != nil {
			return err
		}
		res = r
		if !r.OK {
			e.logger.Debug("transition rejected", "op", op, "reason", r.Message)
			return errRejected
		}

		if err := audit.ValidateAppendOnly(beforeLog, st.Log); err != nil {
			return err
		}
		return nil
	})
	if errors.Is(err, errRejected) {
		return res, nil
	}
	if err != nil {
		return Result{}, err
	}
	e.logger.Info("transition persisted", "op", op, "message", res.Message)
	return res, nil
}

// appendEntry writes one audit entry for a transition.
func (e *Engine) appendEntry(st *state.GovernanceState, packetID, event, action string, actor state.ActorContext, notes string, exitState state.Status) error {
	_, err := audit.Append(st, state.LogEntry{
		PacketID:  packetID,
		Event:     event,
		Actor:     actor.UserID,
		Role:      actor.Role,
		Source:    actor.Source,
		Action:    action,
		Result:    "ok",
		Timestamp: e.now(),
		Notes:     notes,
		ExitState: string(exitState),
	})
	return err
}

// Init seeds a pending runtime state for every definition packet that
// does not have one yet, and pins the log integrity mode when the
// document has not recorded one. Idempotent: re-running against an
// initialized document only adds packets new to the definition.
func (e *Engine) Init(mode state.IntegrityMode, actor state.ActorContext) (Result, error) {
	if mode != "" && mode != state.IntegrityPlain && mode != state.IntegrityHashChain {
		return reject("unknown log integrity mode %q", mode), nil
	}

	return e.transition("init", func(st *state.GovernanceState) (Result, error) {
		if mode != "" {
			if len(st.Log) > 0 && st.LogIntegrityMode != mode {
				// Switching modes mid-history is allowed; the chain
				// simply starts (or stops) at this point.
				e.logger.Info("log integrity mode changed", "from", st.LogIntegrityMode, "to", mode)
			}
			st.LogIntegrityMode = mode
		}

		added := 0
		for _, p := range e.defs.Packets {
			if _, ok := st.Packets[p.ID]; ok {
				continue
			}
			st.Packets[p.ID] = &state.PacketRuntimeState{Status: state.StatusPending}
			added++
		}

		if err := e.appendEntry(st, "", EventInitialized, "init", actor,
			fmt.Sprintf("registered %d packet(s)", added), ""); err != nil {
			return Result{}, err
		}

		return Result{
			OK:      true,
			Message: fmt.Sprintf("initialized %d packet(s)", added),
			Payload: map[string]any{"added": added, "total": len(st.Packets)},
		}, nil
	})
}

// State returns the current document (read-only, lock-free).
func (e *Engine) State() (*state.GovernanceState, error) {
	return e.store.Read()
}

// Definition returns the immutable project declaration the engine was
// built over.
func (e *Engine) Definition() *definition.Document {
	return e.defs
}
