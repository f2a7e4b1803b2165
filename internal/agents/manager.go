// Package agents maintains per-queue agent rosters: tier ordering,
// live status and state, and the answered/no-answer ledger. It
// supplies the resolver with the eligible, ordered candidate list for
// a queue; the actual ringing discipline belongs to the switch.
package agents

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/models"
)

// Manager is an arena of agent records indexed by (queue_id,
// extension_id). Each queue's roster mutates under its own lock;
// reads take a consistent snapshot.
type Manager struct {
	mu      sync.RWMutex
	rosters map[string]*roster
	logger  logging.Logger
}

type roster struct {
	mu     sync.Mutex
	agents map[string]*models.QueueAgent // keyed by extension ID
}

// NewManager creates an empty agent manager.
func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Manager{
		rosters: make(map[string]*roster),
		logger:  logger,
	}
}

func (m *Manager) roster(queueID string, create bool) *roster {
	m.mu.RLock()
	r, ok := m.rosters[queueID]
	m.mu.RUnlock()
	if ok || !create {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok = m.rosters[queueID]; ok {
		return r
	}
	r = &roster{agents: make(map[string]*models.QueueAgent)}
	m.rosters[queueID] = r
	return r
}

// AddAgent registers an agent on a queue's roster. A missing ID is
// generated; a missing status defaults to Logged Out until the agent
// signs in.
func (m *Manager) AddAgent(agent models.QueueAgent) (*models.QueueAgent, error) {
	if agent.QueueID == "" {
		return nil, errors.ValidationError("agent queue_id is required")
	}
	if agent.ExtensionID == "" {
		return nil, errors.ValidationError("agent extension_id is required")
	}
	if agent.TierLevel < 0 || agent.TierPosition < 0 {
		return nil, errors.ValidationError("agent tier_level and tier_position must not be negative")
	}

	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	if agent.Status == "" {
		agent.Status = models.AgentLoggedOut
	}
	if agent.State == "" {
		agent.State = models.StateWaiting
	}
	agent.LastStatusChange = time.Now()

	r := m.roster(agent.QueueID, true)
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[agent.ExtensionID]; exists {
		return nil, errors.ValidationError("agent already on queue roster").
			WithContext("queue_id", agent.QueueID).
			WithContext("extension_id", agent.ExtensionID)
	}

	stored := agent
	r.agents[agent.ExtensionID] = &stored

	m.logger.Info("Agent added to queue",
		logging.String("queue_id", agent.QueueID),
		logging.String("extension_id", agent.ExtensionID),
		logging.Int("tier_level", agent.TierLevel),
		logging.Int("tier_position", agent.TierPosition))

	copied := stored
	return &copied, nil
}

// RemoveAgent takes an agent off a queue's roster.
func (m *Manager) RemoveAgent(queueID, extensionID string) error {
	r := m.roster(queueID, false)
	if r == nil {
		return errors.NotFoundError("queue roster").WithContext("queue_id", queueID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[extensionID]; !ok {
		return errors.NotFoundError("agent").
			WithContext("queue_id", queueID).
			WithContext("extension_id", extensionID)
	}
	delete(r.agents, extensionID)

	m.logger.Info("Agent removed from queue",
		logging.String("queue_id", queueID),
		logging.String("extension_id", extensionID))
	return nil
}

// UpdateAgentStatus changes an agent's availability and stamps
// last_status_change. A status change away from Available also
// resets the agent's state to Waiting.
func (m *Manager) UpdateAgentStatus(queueID, extensionID string, status models.AgentStatus) error {
	switch status {
	case models.AgentAvailable, models.AgentOnBreak, models.AgentLoggedOut:
	default:
		return errors.ValidationError("unknown agent status " + string(status))
	}

	return m.withAgent(queueID, extensionID, func(agent *models.QueueAgent) {
		agent.Status = status
		agent.LastStatusChange = time.Now()
		if status != models.AgentAvailable {
			agent.State = models.StateWaiting
		}
		m.logger.Debug("Agent status changed",
			logging.String("queue_id", queueID),
			logging.String("extension_id", extensionID),
			logging.String("status", string(status)))
	})
}

// UpdateAgentState changes what the agent is doing right now
// (Waiting, Receiving, In a queue call).
func (m *Manager) UpdateAgentState(queueID, extensionID string, state models.AgentState) error {
	switch state {
	case models.StateWaiting, models.StateReceiving, models.StateInQueueCall:
	default:
		return errors.ValidationError("unknown agent state " + string(state))
	}

	return m.withAgent(queueID, extensionID, func(agent *models.QueueAgent) {
		agent.State = state
	})
}

// RecordAnswer credits an answered call and its talk time to the
// agent's ledger and returns the agent to Waiting.
func (m *Manager) RecordAnswer(queueID, extensionID string, talkTime time.Duration) error {
	return m.withAgent(queueID, extensionID, func(agent *models.QueueAgent) {
		agent.CallsAnswered++
		agent.TalkTime += talkTime
		agent.State = models.StateWaiting
	})
}

// RecordNoAnswer increments the agent's missed-offer counter.
func (m *Manager) RecordNoAnswer(queueID, extensionID string) error {
	return m.withAgent(queueID, extensionID, func(agent *models.QueueAgent) {
		agent.NoAnswerCount++
		agent.State = models.StateWaiting
	})
}

func (m *Manager) withAgent(queueID, extensionID string, fn func(*models.QueueAgent)) error {
	r := m.roster(queueID, false)
	if r == nil {
		return errors.NotFoundError("queue roster").WithContext("queue_id", queueID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[extensionID]
	if !ok {
		return errors.NotFoundError("agent").
			WithContext("queue_id", queueID).
			WithContext("extension_id", extensionID)
	}
	fn(agent)
	return nil
}

// OrderForOffer returns the queue's eligible agents in offer order:
// ascending tier_level, then ascending tier_position, then extension
// ID for a stable tail. Fails with an agent_unavailable error when no
// agent is eligible.
func (m *Manager) OrderForOffer(queueID string) ([]models.QueueAgent, error) {
	r := m.roster(queueID, false)
	if r == nil {
		return nil, errors.AgentUnavailableError("queue " + queueID)
	}

	r.mu.Lock()
	eligible := make([]models.QueueAgent, 0, len(r.agents))
	for _, agent := range r.agents {
		if agent.Eligible() {
			eligible = append(eligible, *agent)
		}
	}
	r.mu.Unlock()

	if len(eligible) == 0 {
		return nil, errors.AgentUnavailableError("queue " + queueID)
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.TierLevel != b.TierLevel {
			return a.TierLevel < b.TierLevel
		}
		if a.TierPosition != b.TierPosition {
			return a.TierPosition < b.TierPosition
		}
		return a.ExtensionID < b.ExtensionID
	})
	return eligible, nil
}

// Snapshot returns a copy of every agent on a queue's roster,
// eligible or not, in offer order. Used for reporting.
func (m *Manager) Snapshot(queueID string) []models.QueueAgent {
	r := m.roster(queueID, false)
	if r == nil {
		return nil
	}

	r.mu.Lock()
	all := make([]models.QueueAgent, 0, len(r.agents))
	for _, agent := range r.agents {
		all = append(all, *agent)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.TierLevel != b.TierLevel {
			return a.TierLevel < b.TierLevel
		}
		if a.TierPosition != b.TierPosition {
			return a.TierPosition < b.TierPosition
		}
		return a.ExtensionID < b.ExtensionID
	})
	return all
}

// LoadRoster replaces a queue's roster with the given agents,
// typically read from the policy store at startup.
func (m *Manager) LoadRoster(queueID string, agents []models.QueueAgent) {
	r := m.roster(queueID, true)

	fresh := make(map[string]*models.QueueAgent, len(agents))
	for _, agent := range agents {
		if agent.ID == "" {
			agent.ID = uuid.New().String()
		}
		if agent.Status == "" {
			agent.Status = models.AgentLoggedOut
		}
		if agent.State == "" {
			agent.State = models.StateWaiting
		}
		stored := agent
		fresh[agent.ExtensionID] = &stored
	}

	r.mu.Lock()
	r.agents = fresh
	r.mu.Unlock()

	m.logger.Info("Queue roster loaded",
		logging.String("queue_id", queueID),
		logging.Int("agents", len(fresh)))
}
