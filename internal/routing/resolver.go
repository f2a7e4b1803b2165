// Package routing resolves call events to destinations. Inbound
// resolution walks DID routes through their time conditions and
// failover; outbound resolution matches dial patterns in priority
// order and applies number transformation and trunk selection.
//
// Resolution reads a policy snapshot per call and never mutates it,
// so concurrent resolutions of the same tenant are safe without
// locking.
package routing

import (
	"context"
	"sort"
	"time"

	"call-router/internal/agents"
	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/models"
	"call-router/internal/pattern"
	"call-router/internal/timecond"
)

// PolicyProvider supplies the current policy snapshot for a tenant.
type PolicyProvider interface {
	PolicySet(ctx context.Context, tenantID string) (*models.PolicySet, error)
}

// Resolver resolves inbound and outbound calls against tenant policy.
type Resolver struct {
	policies PolicyProvider
	agents   *agents.Manager
	patterns *pattern.Cache
	logger   logging.Logger
}

// NewResolver creates a resolver over a policy source and the live
// agent roster manager.
func NewResolver(policies PolicyProvider, agentMgr *agents.Manager, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Resolver{
		policies: policies,
		agents:   agentMgr,
		patterns: pattern.NewCache(),
		logger:   logger,
	}
}

// ResolveInbound resolves a call arriving on a DID to a destination.
//
// The enabled inbound route for the DID decides the primary
// destination. A referenced time condition may override it per phase
// unless its action is continue. If the destination is a queue or
// ring group with no eligible members and the route has failover
// enabled, the failover destination is substituted once; a failover
// destination that is itself unreachable is reported, not chased.
func (r *Resolver) ResolveInbound(ctx context.Context, tenantID, did, callerNumber string, instant time.Time) (*models.ResolvedDestination, error) {
	did = pattern.NormalizeNumber(did)
	if did == "" {
		return nil, errors.ValidationError("did number is required")
	}

	policy, err := r.policies.PolicySet(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	route := findInboundRoute(policy, did)
	if route == nil {
		r.logger.Debug("No inbound route for DID",
			logging.String("tenant_id", tenantID),
			logging.String("did", did))
		return nil, errors.NoRouteFoundError(did).WithContext("tenant_id", tenantID)
	}

	resolved := &models.ResolvedDestination{
		Destination: route.Destination,
		RouteID:     route.ID,
		RouteName:   route.Name,
		RecordCalls: route.RecordCalls,
	}

	if route.TimeConditionID != "" {
		tc, ok := policy.TimeCondition(route.TimeConditionID)
		if ok && tc.Enabled {
			eval, err := timecond.EvaluateFull(tc, instant)
			if err != nil {
				return nil, err
			}
			resolved.Phase = eval.Phase

			switch eval.Action {
			case models.ActionContinue:
				// Route as if no time condition existed.
			case models.ActionHangup:
				resolved.Destination = models.Destination{}
				resolved.Hangup = true
				return resolved, nil
			case models.ActionVoicemail, models.ActionExternal:
				resolved.Destination = eval.Destination
			}
		}
	}

	if err := r.checkReachable(policy, resolved.Destination); err != nil {
		if !errors.IsType(err, errors.ErrTypeAgentUnavailable) {
			return nil, err
		}
		if !route.FailoverEnabled {
			return nil, err
		}

		r.logger.Info("Primary destination unreachable, using failover",
			logging.String("tenant_id", tenantID),
			logging.String("route", route.Name),
			logging.String("primary", resolved.Destination.String()),
			logging.String("failover", route.FailoverDestination.String()))

		resolved.Destination = route.FailoverDestination
		resolved.Failover = true

		// Single substitution only: an unreachable failover surfaces.
		if err := r.checkReachable(policy, resolved.Destination); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("Inbound call resolved",
		logging.String("tenant_id", tenantID),
		logging.String("did", did),
		logging.String("caller", pattern.NormalizeNumber(callerNumber)),
		logging.String("destination", resolved.Destination.String()))
	return resolved, nil
}

// ResolveOutbound resolves a dialed number to a transformed number
// and trunk by testing enabled outbound routes in ascending priority
// order (creation order on ties).
func (r *Resolver) ResolveOutbound(ctx context.Context, tenantID, dialedNumber string, instant time.Time) (*models.ResolvedDestination, error) {
	dialed := pattern.NormalizeNumber(dialedNumber)
	if dialed == "" {
		return nil, errors.ValidationError("dialed number is required")
	}

	policy, err := r.policies.PolicySet(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for _, route := range orderedOutbound(policy.OutboundRoutes) {
		compiled, err := r.patterns.Get(route.DialPattern)
		if err != nil {
			// Validation rejects bad patterns before persistence, so
			// this indicates store corruption; skip the route.
			r.logger.Warn("Skipping outbound route with invalid pattern",
				logging.String("route", route.Name),
				logging.Err(err))
			continue
		}
		if !compiled.Match(dialed).Matched {
			continue
		}

		number := transformNumber(dialed, route)
		trunkID, failover := r.selectTrunk(policy, route)
		if trunkID == "" {
			return nil, errors.NoRouteFoundError(dialed).
				WithContext("tenant_id", tenantID).
				WithContext("route", route.Name).
				WithContext("reason", "no usable trunk")
		}

		resolved := &models.ResolvedDestination{
			Destination: models.Destination{Type: models.DestExternal, Value: number},
			RouteID:     route.ID,
			RouteName:   route.Name,
			Failover:    failover,
			Number:      number,
			TrunkID:     trunkID,
		}

		r.logger.Debug("Outbound call resolved",
			logging.String("tenant_id", tenantID),
			logging.String("dialed", dialed),
			logging.String("number", number),
			logging.String("trunk_id", trunkID))
		return resolved, nil
	}

	return nil, errors.NoRouteFoundError(dialed).WithContext("tenant_id", tenantID)
}

func findInboundRoute(policy *models.PolicySet, did string) *models.InboundRoute {
	for i := range policy.InboundRoutes {
		route := &policy.InboundRoutes[i]
		if route.Enabled && pattern.NormalizeNumber(route.DIDNumber) == did {
			return route
		}
	}
	return nil
}

// checkReachable verifies a destination can accept a call right now.
// Only queues and ring groups have a liveness notion; other kinds are
// always considered reachable.
func (r *Resolver) checkReachable(policy *models.PolicySet, dest models.Destination) error {
	switch dest.Type {
	case models.DestQueue:
		queue, ok := policy.Queue(dest.Value)
		if !ok {
			return errors.NotFoundError("queue").WithContext("queue_id", dest.Value)
		}
		if !queue.Enabled {
			return errors.AgentUnavailableError("queue " + queue.Name)
		}
		if _, err := r.agents.OrderForOffer(dest.Value); err != nil {
			return err
		}
	case models.DestRingGroup:
		group, ok := policy.RingGroup(dest.Value)
		if !ok {
			return errors.NotFoundError("ring group").WithContext("ring_group_id", dest.Value)
		}
		if !group.Enabled || len(group.EnabledMembers()) == 0 {
			return errors.AgentUnavailableError("ring group " + group.Name)
		}
	}
	return nil
}

// orderedOutbound returns enabled routes sorted by ascending priority,
// keeping creation order on ties.
func orderedOutbound(routes []models.OutboundRoute) []models.OutboundRoute {
	enabled := make([]models.OutboundRoute, 0, len(routes))
	for _, route := range routes {
		if route.Enabled {
			enabled = append(enabled, route)
		}
	}
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority < enabled[j].Priority
	})
	return enabled
}

// transformNumber applies the route's number manipulation: strip
// leading digits, then prepend prefix, then prepend add_digits.
func transformNumber(dialed string, route models.OutboundRoute) string {
	number := dialed
	if route.StripDigits > 0 {
		if route.StripDigits >= len(number) {
			number = ""
		} else {
			number = number[route.StripDigits:]
		}
	}
	if route.Prefix != "" {
		number = route.Prefix + number
	}
	if route.AddDigits != "" {
		number = route.AddDigits + number
	}
	return number
}

// selectTrunk picks the route's trunk, falling back to the failover
// trunk when the primary is down, disabled or missing. Returns the
// empty string when neither trunk is usable.
func (r *Resolver) selectTrunk(policy *models.PolicySet, route models.OutboundRoute) (trunkID string, failover bool) {
	if trunk, ok := policy.Trunk(route.TrunkID); ok && trunk.Enabled && !trunk.Down {
		return trunk.ID, false
	}
	if route.FailoverTrunkID == "" {
		return "", false
	}
	if trunk, ok := policy.Trunk(route.FailoverTrunkID); ok && trunk.Enabled && !trunk.Down {
		return trunk.ID, true
	}
	return "", false
}
