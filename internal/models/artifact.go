package models

import "time"

// ArtifactKind names the switch-facing unit an artifact belongs to.
// Each kind maps to one logical configuration file per tenant.
type ArtifactKind string

const (
	ArtifactDialplan   ArtifactKind = "dialplan"
	ArtifactExtensions ArtifactKind = "extensions"
	ArtifactGateways   ArtifactKind = "gateways"
	ArtifactIVR        ArtifactKind = "ivr"
	ArtifactConference ArtifactKind = "conference"
)

// ArtifactAction is one rendered step of an artifact's action sequence.
type ArtifactAction struct {
	App  string `json:"app"`
	Data string `json:"data,omitempty"`
}

// CompiledArtifact is an immutable switch-loadable snapshot of one
// policy entity: a match condition plus an ordered action sequence.
// Destinations referencing other entities embed a stable reference key
// (queue name, gateway name) rather than inlining the entity, so
// dependents do not recompile when the referenced entity changes.
type CompiledArtifact struct {
	Kind           ArtifactKind     `json:"kind"`
	Context        string           `json:"context"`
	Name           string           `json:"name"`
	MatchCondition string           `json:"match_condition,omitempty"`
	Actions        []ArtifactAction `json:"actions"`
	Fallback       *ArtifactAction  `json:"fallback,omitempty"`
	Enabled        bool             `json:"enabled"`
}

// PolicySet is the full routing policy for one tenant, read as a
// snapshot at compile time.
type PolicySet struct {
	Tenant          Tenant           `json:"tenant"`
	Extensions      []Extension      `json:"extensions"`
	InboundRoutes   []InboundRoute   `json:"inbound_routes"`
	OutboundRoutes  []OutboundRoute  `json:"outbound_routes"`
	DialplanRules   []DialplanRule   `json:"dialplan_rules"`
	RingGroups      []RingGroup      `json:"ring_groups"`
	Queues          []Queue          `json:"queues"`
	QueueAgents     []QueueAgent     `json:"queue_agents"`
	IVRMenus        []IVRMenu        `json:"ivr_menus"`
	ConferenceRooms []ConferenceRoom `json:"conference_rooms"`
	Trunks          []Trunk          `json:"trunks"`
	TimeConditions  []TimeCondition  `json:"time_conditions"`
}

// TimeCondition returns the tenant's time condition with the given ID.
func (p *PolicySet) TimeCondition(id string) (*TimeCondition, bool) {
	for i := range p.TimeConditions {
		if p.TimeConditions[i].ID == id {
			return &p.TimeConditions[i], true
		}
	}
	return nil, false
}

// Trunk returns the tenant's trunk with the given ID.
func (p *PolicySet) Trunk(id string) (*Trunk, bool) {
	for i := range p.Trunks {
		if p.Trunks[i].ID == id {
			return &p.Trunks[i], true
		}
	}
	return nil, false
}

// Queue returns the tenant's queue with the given ID.
func (p *PolicySet) Queue(id string) (*Queue, bool) {
	for i := range p.Queues {
		if p.Queues[i].ID == id {
			return &p.Queues[i], true
		}
	}
	return nil, false
}

// RingGroup returns the tenant's ring group with the given ID.
func (p *PolicySet) RingGroup(id string) (*RingGroup, bool) {
	for i := range p.RingGroups {
		if p.RingGroups[i].ID == id {
			return &p.RingGroups[i], true
		}
	}
	return nil, false
}

// AgentsFor returns the roster rows belonging to one queue.
func (p *PolicySet) AgentsFor(queueID string) []QueueAgent {
	var agents []QueueAgent
	for _, a := range p.QueueAgents {
		if a.QueueID == queueID {
			agents = append(agents, a)
		}
	}
	return agents
}

// Backup names an immutable snapshot of a tenant's previously deployed
// artifact set. Backups are timestamp-addressed and never overwritten.
type Backup struct {
	TenantID  string    `json:"tenant_id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// DeployResult reports a completed deployment.
type DeployResult struct {
	TenantID      string        `json:"tenant_id"`
	BackupPath    string        `json:"backup_path,omitempty"`
	ArtifactCount int           `json:"artifact_count"`
	Duration      time.Duration `json:"duration"`
	Verified      bool          `json:"verified"`
	CreatedAt     time.Time     `json:"created_at"`
}
