package state

// Status is the lifecycle status of a packet.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
	StatusBlocked    Status = "blocked"
)

// ValidStatuses defines the closed status set.
var ValidStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusFailed:     true,
	StatusBlocked:    true,
}

// IntegrityMode selects how the mutation log guards against tampering.
type IntegrityMode string

const (
	// IntegrityPlain appends entries without chain linkage.
	IntegrityPlain IntegrityMode = "plain"

	// IntegrityHashChain links each entry to its predecessor via
	// content hashes, making historical edits detectable.
	IntegrityHashChain IntegrityMode = "hash_chain"
)

// ActorContext identifies who is performing a transition.
// It is trusted as given - authentication is an external collaborator's
// responsibility. Required on every mutating call; recorded in the log
// and consumed by the policy engine.
type ActorContext struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Source string `json:"source"`
}

// Handover records a suspension of ownership on a packet.
// At most one handover per packet may be active at a time; an active
// handover must be resumed before done/fail succeed again.
type Handover struct {
	Active        bool   `json:"active"`
	FromAgent     string `json:"from_agent"`
	ToAgent       string `json:"to_agent,omitempty"` // empty = anyone may resume
	ProgressNotes string `json:"progress_notes,omitempty"`
	RemainingWork string `json:"remaining_work,omitempty"`
	ResumedBy     string `json:"resumed_by,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	ResumedAt     string `json:"resumed_at,omitempty"`
}

// PacketRuntimeState is the mutable lifecycle record for one packet.
// Created as pending for every definition packet at init time, mutated
// only through engine transitions, never deleted by the core.
type PacketRuntimeState struct {
	Status      Status     `json:"status"`
	AssignedTo  string     `json:"assigned_to,omitempty"`
	StartedAt   string     `json:"started_at,omitempty"`
	CompletedAt string     `json:"completed_at,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Handovers   []Handover `json:"handovers,omitempty"`
}

// ActiveHandover returns the packet's active handover, or nil.
func (p *PacketRuntimeState) ActiveHandover() *Handover {
	for i := range p.Handovers {
		if p.Handovers[i].Active {
			return &p.Handovers[i]
		}
	}
	return nil
}

// Clone deep-copies the runtime state, including handovers.
func (p *PacketRuntimeState) Clone() *PacketRuntimeState {
	cp := *p
	if p.Handovers != nil {
		cp.Handovers = make([]Handover, len(p.Handovers))
		copy(cp.Handovers, p.Handovers)
	}
	return &cp
}

// LogEntry is one record in the append-only mutation log.
//
// Hash, PrevHash, EventID and HashIndex are populated only when the
// document's integrity mode is hash_chain at append time. HashIndex is
// 1-based and counts hashed entries only, so entries appended before the
// mode was activated are excluded from the chain rather than breaking it.
type LogEntry struct {
	PacketID  string `json:"packet_id"`
	Event     string `json:"event"`
	Actor     string `json:"actor"`
	Role      string `json:"role,omitempty"`
	Source    string `json:"source,omitempty"`
	Action    string `json:"action,omitempty"`
	Result    string `json:"result,omitempty"`
	Timestamp string `json:"timestamp"`
	Notes     string `json:"notes,omitempty"`
	ExitState string `json:"exit_state,omitempty"`

	EventID   string `json:"event_id,omitempty"`
	Hash      string `json:"hash,omitempty"`
	PrevHash  string `json:"prev_hash,omitempty"`
	HashIndex int    `json:"hash_index,omitempty"`
}

// Hashed reports whether the entry participates in the hash chain.
func (e LogEntry) Hashed() bool {
	return e.Hash != ""
}

// Snapshot is a labelled deep copy of the packets map.
type Snapshot struct {
	Label     string                         `json:"label"`
	CreatedAt string                         `json:"created_at"`
	CreatedBy string                         `json:"created_by"`
	Packets   map[string]*PacketRuntimeState `json:"packets"`
}

// TrustRecord tracks a per-actor trust score maintained by external
// scoring collaborators. The registry lives inside the document so no
// process-wide mutable singleton is needed.
type TrustRecord struct {
	Score     int    `json:"score"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// TrustRegistry maps actor ids to trust records.
type TrustRegistry struct {
	Actors map[string]TrustRecord `json:"actors,omitempty"`
}

// OPAResult is an external policy decision embedded into state ahead of
// a call. The actual call to the external decision point is made by an
// out-of-core collaborator; the kernel only consumes the result.
type OPAResult struct {
	Allow  bool   `json:"allow"`
	Reason string `json:"reason,omitempty"`
}

// GovernanceState is the root aggregate: the single persisted document
// per project namespace. It is read whole, mutated in memory, and
// written back atomically on every transition.
type GovernanceState struct {
	Version          int                            `json:"version"`
	CreatedAt        string                         `json:"created_at"`
	UpdatedAt        string                         `json:"updated_at"`
	Packets          map[string]*PacketRuntimeState `json:"packets"`
	Log              []LogEntry                     `json:"log"`
	AreaCloseouts    map[string]string              `json:"area_closeouts"`
	LogIntegrityMode IntegrityMode                  `json:"log_integrity_mode"`
	PolicyRegistry   *PolicyRegistry                `json:"policy_registry,omitempty"`
	TrustRegistry    *TrustRegistry                 `json:"trust_registry,omitempty"`
	Snapshots        map[string]*Snapshot           `json:"snapshots,omitempty"`
	OPAAdapterResult *OPAResult                     `json:"opa_adapter_result,omitempty"`
}

// CloneLog copies the log slice headers. Entries are value types, so a
// shallow slice copy is a faithful snapshot for append-only validation.
func (s *GovernanceState) CloneLog() []LogEntry {
	if s.Log == nil {
		return nil
	}
	cp := make([]LogEntry, len(s.Log))
	copy(cp, s.Log)
	return cp
}

// ClonePackets deep-copies the packets map (used by snapshot/diff).
func (s *GovernanceState) ClonePackets() map[string]*PacketRuntimeState {
	cp := make(map[string]*PacketRuntimeState, len(s.Packets))
	for id, p := range s.Packets {
		cp[id] = p.Clone()
	}
	return cp
}
