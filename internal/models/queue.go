package models

import (
	"sort"
	"time"

	"call-router/internal/common/errors"
)

// AgentStatus is an agent's availability for queue calls.
// Only Available agents are offered calls.
type AgentStatus string

const (
	AgentAvailable AgentStatus = "Available"
	AgentOnBreak   AgentStatus = "On Break"
	AgentLoggedOut AgentStatus = "Logged Out"
)

// AgentState is what an agent is doing right now. It tracks call
// activity and is reset to Waiting when a call ends.
type AgentState string

const (
	StateWaiting     AgentState = "Waiting"
	StateReceiving   AgentState = "Receiving"
	StateInQueueCall AgentState = "In a queue call"
)

// QueueStrategy selects the switch-side dispatch discipline.
type QueueStrategy string

const (
	StrategyRingAll            QueueStrategy = "ring-all"
	StrategyLongestIdle        QueueStrategy = "longest-idle-agent"
	StrategyRoundRobin         QueueStrategy = "round-robin"
	StrategyTopDown            QueueStrategy = "top-down"
	StrategyAgentWithLeastTalk QueueStrategy = "agent-with-least-talk-time"
	StrategyRandom             QueueStrategy = "random"
)

// QueueAgent is one member of a queue's roster. Tier ordering
// (ascending tier_level, then tier_position) decides the offer order.
// The counters are a reporting ledger and never drive routing.
type QueueAgent struct {
	ID          string `json:"id"`
	QueueID     string `json:"queue_id"`
	ExtensionID string `json:"extension_id"`
	Name        string `json:"name"`

	TierLevel    int  `json:"tier_level"`
	TierPosition int  `json:"tier_position"`
	Enabled      bool `json:"enabled"`

	Status           AgentStatus `json:"status"`
	State            AgentState  `json:"state"`
	LastStatusChange time.Time   `json:"last_status_change"`

	CallsAnswered int           `json:"calls_answered"`
	NoAnswerCount int           `json:"no_answer_count"`
	TalkTime      time.Duration `json:"talk_time"`
}

// Eligible reports whether this agent may be offered a call.
func (a *QueueAgent) Eligible() bool {
	return a.Enabled && a.Status == AgentAvailable
}

// Queue is a call queue with a tiered agent roster.
type Queue struct {
	ID          string        `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Name        string        `json:"name"`
	Extension   string        `json:"extension"`
	Strategy    QueueStrategy `json:"strategy"`
	MOHSound    string        `json:"moh_sound,omitempty"`
	MaxWaitTime int           `json:"max_wait_time"`
	MaxCalls    int           `json:"max_calls"`

	FailoverDestination Destination `json:"failover_destination,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks queue fields required before persistence.
func (q *Queue) Validate() error {
	if q.TenantID == "" {
		return errors.ValidationError("queue tenant_id is required")
	}
	if q.Name == "" {
		return errors.ValidationError("queue name is required")
	}
	switch q.Strategy {
	case "", StrategyRingAll, StrategyLongestIdle, StrategyRoundRobin,
		StrategyTopDown, StrategyAgentWithLeastTalk, StrategyRandom:
	default:
		return errors.ValidationError("unknown queue strategy " + string(q.Strategy))
	}
	if !q.FailoverDestination.IsZero() {
		if err := q.FailoverDestination.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RingGroupStrategy selects how ring group members are rung.
type RingGroupStrategy string

const (
	RingSimultaneous RingGroupStrategy = "simultaneous"
	RingSequence     RingGroupStrategy = "sequence"
)

// RingGroupMember is one extension in a ring group, rung in ascending
// priority order for the sequence strategy.
type RingGroupMember struct {
	ExtensionNumber string `json:"extension_number"`
	Priority        int    `json:"priority"`
	Enabled         bool   `json:"enabled"`
}

// RingGroup rings a set of extensions together or in order.
type RingGroup struct {
	ID          string            `json:"id"`
	TenantID    string            `json:"tenant_id"`
	Name        string            `json:"name"`
	Extension   string            `json:"extension"`
	Strategy    RingGroupStrategy `json:"strategy"`
	RingTimeout int               `json:"ring_timeout"`

	Members []RingGroupMember `json:"members"`

	FailoverDestination Destination `json:"failover_destination,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks ring group fields required before persistence.
func (g *RingGroup) Validate() error {
	if g.TenantID == "" {
		return errors.ValidationError("ring group tenant_id is required")
	}
	if g.Name == "" {
		return errors.ValidationError("ring group name is required")
	}
	switch g.Strategy {
	case "", RingSimultaneous, RingSequence:
	default:
		return errors.ValidationError("unknown ring group strategy " + string(g.Strategy))
	}
	if !g.FailoverDestination.IsZero() {
		if err := g.FailoverDestination.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// EnabledMembers returns the group's enabled members in ascending
// priority order, preserving configuration order on ties.
func (g *RingGroup) EnabledMembers() []RingGroupMember {
	members := make([]RingGroupMember, 0, len(g.Members))
	for _, m := range g.Members {
		if m.Enabled {
			members = append(members, m)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Priority < members[j].Priority
	})
	return members
}
