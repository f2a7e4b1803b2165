package models

import (
	"time"

	"call-router/internal/common/errors"
)

// InboundRoute maps a DID number to a destination, optionally gated
// by a time condition and backed by a failover destination.
type InboundRoute struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Name      string `json:"name"`
	DIDNumber string `json:"did_number"`

	Destination     Destination `json:"destination"`
	TimeConditionID string      `json:"time_condition_id,omitempty"`

	FailoverEnabled     bool        `json:"failover_enabled"`
	FailoverDestination Destination `json:"failover_destination,omitempty"`

	RecordCalls bool      `json:"record_calls"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks inbound route fields required before persistence.
func (r *InboundRoute) Validate() error {
	if r.TenantID == "" {
		return errors.ValidationError("inbound route tenant_id is required")
	}
	if r.DIDNumber == "" {
		return errors.ValidationError("inbound route did_number is required")
	}
	if err := r.Destination.Validate(); err != nil {
		return err
	}
	if r.FailoverEnabled {
		if err := r.FailoverDestination.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// OutboundRoute matches a dialed number against a dial pattern and
// sends the transformed number out a trunk. Routes are tried in
// ascending priority order; ties keep creation order.
type OutboundRoute struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`

	DialPattern string `json:"dial_pattern"`
	Priority    int    `json:"priority"`

	// Number transformation, applied in order: strip leading digits,
	// then prepend prefix, then prepend add_digits.
	StripDigits int    `json:"strip_digits"`
	Prefix      string `json:"prefix,omitempty"`
	AddDigits   string `json:"add_digits,omitempty"`

	TrunkID         string `json:"trunk_id"`
	FailoverTrunkID string `json:"failover_trunk_id,omitempty"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks outbound route fields required before persistence.
// The dial pattern itself is compiled by the pattern package; this
// only checks structural fields.
func (r *OutboundRoute) Validate() error {
	if r.TenantID == "" {
		return errors.ValidationError("outbound route tenant_id is required")
	}
	if r.DialPattern == "" {
		return errors.ValidationError("outbound route dial_pattern is required")
	}
	if r.StripDigits < 0 {
		return errors.ValidationError("outbound route strip_digits must not be negative")
	}
	if r.TrunkID == "" {
		return errors.ValidationError("outbound route trunk_id is required")
	}
	return nil
}

// RuleAction is one step of a dialplan rule's ordered action list,
// expressed as a switch application and its argument.
type RuleAction struct {
	App  string `json:"app"`
	Data string `json:"data,omitempty"`
}

// DialplanRule is a raw match/action rule in a named switch context.
// Rules evaluate in ascending priority; ties keep creation order.
type DialplanRule struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Context  string `json:"context"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`

	MatchPattern   string       `json:"match_pattern"`
	MatchCondition string       `json:"match_condition,omitempty"`
	Actions        []RuleAction `json:"actions"`

	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks dialplan rule fields required before persistence.
func (r *DialplanRule) Validate() error {
	if r.TenantID == "" {
		return errors.ValidationError("dialplan rule tenant_id is required")
	}
	if r.Context == "" {
		return errors.ValidationError("dialplan rule context is required")
	}
	if r.Name == "" {
		return errors.ValidationError("dialplan rule name is required")
	}
	if r.MatchPattern == "" {
		return errors.ValidationError("dialplan rule match_pattern is required")
	}
	if len(r.Actions) == 0 {
		return errors.ValidationError("dialplan rule requires at least one action")
	}
	for _, a := range r.Actions {
		if a.App == "" {
			return errors.ValidationError("dialplan rule action app is required")
		}
	}
	return nil
}

// ResolvedDestination is the outcome of routing resolution: where the
// call goes, which route decided it, and how.
type ResolvedDestination struct {
	Destination Destination `json:"destination"`
	RouteID     string      `json:"route_id"`
	RouteName   string      `json:"route_name"`

	// Phase is the time-condition classification applied during
	// resolution, empty when no time condition was involved.
	Phase DayPhase `json:"phase,omitempty"`
	// Failover records that the primary destination was unreachable
	// and the failover destination was substituted.
	Failover    bool `json:"failover"`
	RecordCalls bool `json:"record_calls"`
	// Hangup is set when a time condition action terminates the call;
	// Destination is zero in that case.
	Hangup bool `json:"hangup,omitempty"`

	// Outbound-only: the transformed number and selected trunk.
	Number  string `json:"number,omitempty"`
	TrunkID string `json:"trunk_id,omitempty"`
}
