package state

// CurrentVersion is the document schema version written by this kernel.
//
// Version history:
//
//	1 - initial schema
//	2 - policy_registry, trust_registry and snapshots moved into the document
const CurrentVersion = 2

// NewSkeleton returns an empty, well-formed governance document.
// Storage synthesizes this when no document exists yet.
func NewSkeleton(createdAt string) *GovernanceState {
	return &GovernanceState{
		Version:          CurrentVersion,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
		Packets:          map[string]*PacketRuntimeState{},
		Log:              []LogEntry{},
		AreaCloseouts:    map[string]string{},
		LogIntegrityMode: IntegrityPlain,
	}
}

// Normalize repairs legacy and partially-populated document shapes so
// internal code never handles malformed maps. Applied once at the
// storage boundary after every read.
//
// Legacy shapes handled:
//   - nil packets / log / area_closeouts maps (pre-v1 writers omitted them)
//   - empty log_integrity_mode (defaults to plain)
//   - registry records missing their inner maps
func (s *GovernanceState) Normalize() {
	if s.Version == 0 {
		s.Version = CurrentVersion
	}
	if s.Packets == nil {
		s.Packets = map[string]*PacketRuntimeState{}
	}
	if s.Log == nil {
		s.Log = []LogEntry{}
	}
	if s.AreaCloseouts == nil {
		s.AreaCloseouts = map[string]string{}
	}
	if s.LogIntegrityMode == "" {
		s.LogIntegrityMode = IntegrityPlain
	}
	for id, p := range s.Packets {
		if p == nil {
			s.Packets[id] = &PacketRuntimeState{Status: StatusPending}
			continue
		}
		if p.Status == "" {
			p.Status = StatusPending
		}
	}
	if s.PolicyRegistry != nil && s.PolicyRegistry.Versions == nil {
		s.PolicyRegistry.Versions = map[string]*PolicyVersionRecord{}
	}
	if s.TrustRegistry != nil && s.TrustRegistry.Actors == nil {
		s.TrustRegistry.Actors = map[string]TrustRecord{}
	}
}
