package state

// Domain is a policy rule domain. Domains form a fixed precedence order;
// a decisive rule in a higher domain always beats lower-domain rules
// regardless of document order.
type Domain string

const (
	DomainConstitutional Domain = "constitutional"
	DomainGovernance     Domain = "governance"
	DomainRisk           Domain = "risk"
	DomainCapability     Domain = "capability"
	DomainEnvironment    Domain = "environment"
)

// DomainPrecedence lists domains from highest to lowest precedence.
var DomainPrecedence = []Domain{
	DomainConstitutional,
	DomainGovernance,
	DomainRisk,
	DomainCapability,
	DomainEnvironment,
}

// Effect is a policy rule outcome.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// RuleKind discriminates the closed rule sum type.
type RuleKind string

const (
	RuleKindRole   RuleKind = "role"
	RuleKindStatus RuleKind = "status"
	RuleKindActor  RuleKind = "actor"
)

// PolicyRule is the serialized form of one rule. Exactly one of the
// match sets (Roles, Statuses, Actors) must be populated, selected by
// Kind; the policy engine decodes this into its sum type before
// evaluation and rejects malformed rules.
type PolicyRule struct {
	Kind   RuleKind `json:"kind" yaml:"kind"`
	Domain Domain   `json:"domain" yaml:"domain"`
	Effect Effect   `json:"effect" yaml:"effect"`

	Roles    []string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Statuses []string `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Actors   []string `json:"actors,omitempty" yaml:"actors,omitempty"`

	// Optional scoping. Empty matches every packet / transition.
	PacketID   string `json:"packet_id,omitempty" yaml:"packet_id,omitempty"`
	Transition string `json:"transition,omitempty" yaml:"transition,omitempty"`

	// Message surfaces in the decision when this rule is decisive.
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// OPAConfig enables deferral to an external decision point after native
// evaluation allows.
type OPAConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"` // "required" | "optional"
}

// PolicyDocument is a versioned, ordered rule list.
type PolicyDocument struct {
	Version string       `json:"version" yaml:"version"`
	Rules   []PolicyRule `json:"rules" yaml:"rules"`
	OPA     *OPAConfig   `json:"opa,omitempty" yaml:"opa,omitempty"`
}

// Policy version lifecycle within the registry.
const (
	PolicyVersionDraft      = "draft"
	PolicyVersionActive     = "active"
	PolicyVersionSuperseded = "superseded"
)

// PolicyVersionRecord is one registered policy document version.
type PolicyVersionRecord struct {
	Document     PolicyDocument `json:"document"`
	Status       string         `json:"status"` // draft | active | superseded
	RegisteredBy string         `json:"registered_by,omitempty"`
	RegisteredAt string         `json:"registered_at,omitempty"`
	ActivatedBy  string         `json:"activated_by,omitempty"`
	ActivatedAt  string         `json:"activated_at,omitempty"`
	Approvals    []string       `json:"approvals,omitempty"`
	Rationale    string         `json:"rationale,omitempty"`
}

// PolicyRegistry holds registered policy versions inside the document.
// At most one version is active; activation supersedes the prior one.
type PolicyRegistry struct {
	ActiveVersion string                          `json:"active_version,omitempty"`
	Versions      map[string]*PolicyVersionRecord `json:"versions,omitempty"`
}
