package storage

import (
	"time"

	"github.com/google/uuid"

	"call-router/internal/common/errors"
	"call-router/internal/models"
	"call-router/internal/pattern"
)

// Mutation helpers shared by every Store implementation. Each one
// validates, assigns an ID when absent, stamps timestamps, and
// replaces or appends the entity inside the policy set. Exported so
// the memory and postgres implementations apply identical semantics.

func UpsertExtension(policy *models.PolicySet, ext models.Extension) (models.Extension, error) {
	ext.TenantID = policy.Tenant.ID
	if err := ext.Validate(); err != nil {
		return models.Extension{}, err
	}
	stampID(&ext.ID)
	stampTimes(&ext.CreatedAt, &ext.UpdatedAt)

	for i := range policy.Extensions {
		if policy.Extensions[i].ID == ext.ID {
			ext.CreatedAt = policy.Extensions[i].CreatedAt
			policy.Extensions[i] = ext
			return ext, nil
		}
	}
	policy.Extensions = append(policy.Extensions, ext)
	return ext, nil
}

func DeleteExtension(policy *models.PolicySet, id string) error {
	for i := range policy.Extensions {
		if policy.Extensions[i].ID == id {
			policy.Extensions = append(policy.Extensions[:i], policy.Extensions[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("extension " + id)
}

func UpsertTrunk(policy *models.PolicySet, trunk models.Trunk) (models.Trunk, error) {
	trunk.TenantID = policy.Tenant.ID
	if err := trunk.Validate(); err != nil {
		return models.Trunk{}, err
	}
	stampID(&trunk.ID)
	stampTimes(&trunk.CreatedAt, &trunk.UpdatedAt)

	for i := range policy.Trunks {
		if policy.Trunks[i].ID == trunk.ID {
			trunk.CreatedAt = policy.Trunks[i].CreatedAt
			policy.Trunks[i] = trunk
			return trunk, nil
		}
	}
	policy.Trunks = append(policy.Trunks, trunk)
	return trunk, nil
}

func DeleteTrunk(policy *models.PolicySet, id string) error {
	for i := range policy.Trunks {
		if policy.Trunks[i].ID == id {
			policy.Trunks = append(policy.Trunks[:i], policy.Trunks[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("trunk " + id)
}

func UpsertInboundRoute(policy *models.PolicySet, route models.InboundRoute) (models.InboundRoute, error) {
	route.TenantID = policy.Tenant.ID
	if err := route.Validate(); err != nil {
		return models.InboundRoute{}, err
	}
	stampID(&route.ID)
	stampTimes(&route.CreatedAt, &route.UpdatedAt)

	for i := range policy.InboundRoutes {
		if policy.InboundRoutes[i].ID == route.ID {
			route.CreatedAt = policy.InboundRoutes[i].CreatedAt
			policy.InboundRoutes[i] = route
			return route, nil
		}
	}
	policy.InboundRoutes = append(policy.InboundRoutes, route)
	return route, nil
}

func DeleteInboundRoute(policy *models.PolicySet, id string) error {
	for i := range policy.InboundRoutes {
		if policy.InboundRoutes[i].ID == id {
			policy.InboundRoutes = append(policy.InboundRoutes[:i], policy.InboundRoutes[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("inbound route " + id)
}

func UpsertOutboundRoute(policy *models.PolicySet, route models.OutboundRoute) (models.OutboundRoute, error) {
	route.TenantID = policy.Tenant.ID
	if err := route.Validate(); err != nil {
		return models.OutboundRoute{}, err
	}
	// Reject unmatchable patterns before they reach the database.
	if err := pattern.Validate(route.DialPattern); err != nil {
		return models.OutboundRoute{}, err
	}
	stampID(&route.ID)
	stampTimes(&route.CreatedAt, &route.UpdatedAt)

	for i := range policy.OutboundRoutes {
		if policy.OutboundRoutes[i].ID == route.ID {
			route.CreatedAt = policy.OutboundRoutes[i].CreatedAt
			policy.OutboundRoutes[i] = route
			return route, nil
		}
	}
	policy.OutboundRoutes = append(policy.OutboundRoutes, route)
	return route, nil
}

func DeleteOutboundRoute(policy *models.PolicySet, id string) error {
	for i := range policy.OutboundRoutes {
		if policy.OutboundRoutes[i].ID == id {
			policy.OutboundRoutes = append(policy.OutboundRoutes[:i], policy.OutboundRoutes[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("outbound route " + id)
}

func UpsertDialplanRule(policy *models.PolicySet, rule models.DialplanRule) (models.DialplanRule, error) {
	rule.TenantID = policy.Tenant.ID
	if err := rule.Validate(); err != nil {
		return models.DialplanRule{}, err
	}
	if err := pattern.Validate(rule.MatchPattern); err != nil {
		return models.DialplanRule{}, err
	}
	stampID(&rule.ID)
	stampTimes(&rule.CreatedAt, &rule.UpdatedAt)

	for i := range policy.DialplanRules {
		if policy.DialplanRules[i].ID == rule.ID {
			rule.CreatedAt = policy.DialplanRules[i].CreatedAt
			policy.DialplanRules[i] = rule
			return rule, nil
		}
	}
	policy.DialplanRules = append(policy.DialplanRules, rule)
	return rule, nil
}

func DeleteDialplanRule(policy *models.PolicySet, id string) error {
	for i := range policy.DialplanRules {
		if policy.DialplanRules[i].ID == id {
			policy.DialplanRules = append(policy.DialplanRules[:i], policy.DialplanRules[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("dialplan rule " + id)
}

func UpsertTimeCondition(policy *models.PolicySet, tc models.TimeCondition) (models.TimeCondition, error) {
	tc.TenantID = policy.Tenant.ID
	if err := tc.Validate(); err != nil {
		return models.TimeCondition{}, err
	}
	stampID(&tc.ID)
	stampTimes(&tc.CreatedAt, &tc.UpdatedAt)

	for i := range policy.TimeConditions {
		if policy.TimeConditions[i].ID == tc.ID {
			tc.CreatedAt = policy.TimeConditions[i].CreatedAt
			policy.TimeConditions[i] = tc
			return tc, nil
		}
	}
	policy.TimeConditions = append(policy.TimeConditions, tc)
	return tc, nil
}

func DeleteTimeCondition(policy *models.PolicySet, id string) error {
	for i := range policy.TimeConditions {
		if policy.TimeConditions[i].ID == id {
			policy.TimeConditions = append(policy.TimeConditions[:i], policy.TimeConditions[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("time condition " + id)
}

func UpsertQueue(policy *models.PolicySet, queue models.Queue) (models.Queue, error) {
	queue.TenantID = policy.Tenant.ID
	if err := queue.Validate(); err != nil {
		return models.Queue{}, err
	}
	stampID(&queue.ID)
	stampTimes(&queue.CreatedAt, &queue.UpdatedAt)

	for i := range policy.Queues {
		if policy.Queues[i].ID == queue.ID {
			queue.CreatedAt = policy.Queues[i].CreatedAt
			policy.Queues[i] = queue
			return queue, nil
		}
	}
	policy.Queues = append(policy.Queues, queue)
	return queue, nil
}

func DeleteQueue(policy *models.PolicySet, id string) error {
	for i := range policy.Queues {
		if policy.Queues[i].ID == id {
			policy.Queues = append(policy.Queues[:i], policy.Queues[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("queue " + id)
}

func UpsertQueueAgent(policy *models.PolicySet, agent models.QueueAgent) (models.QueueAgent, error) {
	if agent.QueueID == "" {
		return models.QueueAgent{}, errors.ValidationError("queue agent queue_id is required")
	}
	if agent.ExtensionID == "" {
		return models.QueueAgent{}, errors.ValidationError("queue agent extension_id is required")
	}
	if _, ok := policy.Queue(agent.QueueID); !ok {
		return models.QueueAgent{}, errors.NotFoundError("queue " + agent.QueueID)
	}
	stampID(&agent.ID)
	if agent.Status == "" {
		agent.Status = models.AgentLoggedOut
	}
	if agent.State == "" {
		agent.State = models.StateWaiting
	}
	if agent.LastStatusChange.IsZero() {
		agent.LastStatusChange = time.Now().UTC()
	}

	for i := range policy.QueueAgents {
		if policy.QueueAgents[i].ID == agent.ID {
			policy.QueueAgents[i] = agent
			return agent, nil
		}
	}
	policy.QueueAgents = append(policy.QueueAgents, agent)
	return agent, nil
}

func DeleteQueueAgent(policy *models.PolicySet, id string) error {
	for i := range policy.QueueAgents {
		if policy.QueueAgents[i].ID == id {
			policy.QueueAgents = append(policy.QueueAgents[:i], policy.QueueAgents[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("queue agent " + id)
}

func UpsertRingGroup(policy *models.PolicySet, group models.RingGroup) (models.RingGroup, error) {
	group.TenantID = policy.Tenant.ID
	if err := group.Validate(); err != nil {
		return models.RingGroup{}, err
	}
	stampID(&group.ID)
	stampTimes(&group.CreatedAt, &group.UpdatedAt)

	for i := range policy.RingGroups {
		if policy.RingGroups[i].ID == group.ID {
			group.CreatedAt = policy.RingGroups[i].CreatedAt
			policy.RingGroups[i] = group
			return group, nil
		}
	}
	policy.RingGroups = append(policy.RingGroups, group)
	return group, nil
}

func DeleteRingGroup(policy *models.PolicySet, id string) error {
	for i := range policy.RingGroups {
		if policy.RingGroups[i].ID == id {
			policy.RingGroups = append(policy.RingGroups[:i], policy.RingGroups[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("ring group " + id)
}

func UpsertIVRMenu(policy *models.PolicySet, menu models.IVRMenu) (models.IVRMenu, error) {
	menu.TenantID = policy.Tenant.ID
	if err := menu.Validate(); err != nil {
		return models.IVRMenu{}, err
	}
	stampID(&menu.ID)
	stampTimes(&menu.CreatedAt, &menu.UpdatedAt)

	for i := range policy.IVRMenus {
		if policy.IVRMenus[i].ID == menu.ID {
			menu.CreatedAt = policy.IVRMenus[i].CreatedAt
			policy.IVRMenus[i] = menu
			return menu, nil
		}
	}
	policy.IVRMenus = append(policy.IVRMenus, menu)
	return menu, nil
}

func DeleteIVRMenu(policy *models.PolicySet, id string) error {
	for i := range policy.IVRMenus {
		if policy.IVRMenus[i].ID == id {
			policy.IVRMenus = append(policy.IVRMenus[:i], policy.IVRMenus[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("ivr menu " + id)
}

func UpsertConferenceRoom(policy *models.PolicySet, room models.ConferenceRoom) (models.ConferenceRoom, error) {
	room.TenantID = policy.Tenant.ID
	if err := room.Validate(); err != nil {
		return models.ConferenceRoom{}, err
	}
	stampID(&room.ID)
	stampTimes(&room.CreatedAt, &room.UpdatedAt)

	for i := range policy.ConferenceRooms {
		if policy.ConferenceRooms[i].ID == room.ID {
			room.CreatedAt = policy.ConferenceRooms[i].CreatedAt
			policy.ConferenceRooms[i] = room
			return room, nil
		}
	}
	policy.ConferenceRooms = append(policy.ConferenceRooms, room)
	return room, nil
}

func DeleteConferenceRoom(policy *models.PolicySet, id string) error {
	for i := range policy.ConferenceRooms {
		if policy.ConferenceRooms[i].ID == id {
			policy.ConferenceRooms = append(policy.ConferenceRooms[:i], policy.ConferenceRooms[i+1:]...)
			return nil
		}
	}
	return errors.NotFoundError("conference room " + id)
}

func stampID(id *string) {
	if *id == "" {
		*id = uuid.New().String()
	}
}

func stampTimes(createdAt, updatedAt *time.Time) {
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
