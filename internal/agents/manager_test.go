package agents

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-router/internal/common/errors"
	"call-router/internal/models"
)

func newTestManager() *Manager {
	return NewManager(nil)
}

func available(queueID, extensionID string, tier, position int) models.QueueAgent {
	return models.QueueAgent{
		QueueID:      queueID,
		ExtensionID:  extensionID,
		TierLevel:    tier,
		TierPosition: position,
		Enabled:      true,
		Status:       models.AgentAvailable,
	}
}

func TestAddAgent(t *testing.T) {
	m := newTestManager()

	added, err := m.AddAgent(models.QueueAgent{
		QueueID:     "q-1",
		ExtensionID: "ext-1001",
		Enabled:     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID, "missing ID should be generated")
	assert.Equal(t, models.AgentLoggedOut, added.Status, "new agents default to Logged Out")
	assert.Equal(t, models.StateWaiting, added.State)
	assert.False(t, added.LastStatusChange.IsZero())
}

func TestAddAgent_Validation(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(models.QueueAgent{ExtensionID: "ext-1001"})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation), "missing queue_id")

	_, err = m.AddAgent(models.QueueAgent{QueueID: "q-1"})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation), "missing extension_id")

	_, err = m.AddAgent(models.QueueAgent{QueueID: "q-1", ExtensionID: "ext-1001", TierLevel: -1})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation), "negative tier")
}

func TestAddAgent_Duplicate(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-1001", 1, 1))
	require.NoError(t, err)

	_, err = m.AddAgent(available("q-1", "ext-1001", 2, 1))
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation), "duplicate roster entry should be rejected")
}

func TestRemoveAgent(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-1001", 1, 1))
	require.NoError(t, err)

	require.NoError(t, m.RemoveAgent("q-1", "ext-1001"))

	err = m.RemoveAgent("q-1", "ext-1001")
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))

	err = m.RemoveAgent("q-missing", "ext-1001")
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestUpdateAgentStatus(t *testing.T) {
	m := newTestManager()

	added, err := m.AddAgent(available("q-1", "ext-1001", 1, 1))
	require.NoError(t, err)
	require.NoError(t, m.UpdateAgentState("q-1", "ext-1001", models.StateInQueueCall))

	before := added.LastStatusChange
	time.Sleep(time.Millisecond)

	require.NoError(t, m.UpdateAgentStatus("q-1", "ext-1001", models.AgentOnBreak))

	snapshot := m.Snapshot("q-1")
	require.Len(t, snapshot, 1)
	assert.Equal(t, models.AgentOnBreak, snapshot[0].Status)
	assert.Equal(t, models.StateWaiting, snapshot[0].State, "leaving Available resets state")
	assert.True(t, snapshot[0].LastStatusChange.After(before))

	assert.Error(t, m.UpdateAgentStatus("q-1", "ext-1001", "Napping"))
	assert.True(t, errors.IsType(m.UpdateAgentStatus("q-1", "ext-missing", models.AgentAvailable), errors.ErrTypeNotFound))
}

func TestAgentLedger(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-1001", 1, 1))
	require.NoError(t, err)

	require.NoError(t, m.RecordAnswer("q-1", "ext-1001", 90*time.Second))
	require.NoError(t, m.RecordAnswer("q-1", "ext-1001", 30*time.Second))
	require.NoError(t, m.RecordNoAnswer("q-1", "ext-1001"))

	snapshot := m.Snapshot("q-1")
	require.Len(t, snapshot, 1)
	assert.Equal(t, 2, snapshot[0].CallsAnswered)
	assert.Equal(t, 1, snapshot[0].NoAnswerCount)
	assert.Equal(t, 2*time.Minute, snapshot[0].TalkTime)
}

func TestOrderForOffer_TierOrdering(t *testing.T) {
	m := newTestManager()

	// Added out of order on purpose.
	for _, agent := range []models.QueueAgent{
		available("q-1", "ext-3", 2, 1),
		available("q-1", "ext-2", 1, 2),
		available("q-1", "ext-1", 1, 1),
		available("q-1", "ext-4", 3, 1),
	} {
		_, err := m.AddAgent(agent)
		require.NoError(t, err)
	}

	ordered, err := m.OrderForOffer("q-1")
	require.NoError(t, err)

	got := make([]string, len(ordered))
	for i, a := range ordered {
		got[i] = a.ExtensionID
	}
	assert.Equal(t, []string{"ext-1", "ext-2", "ext-3", "ext-4"}, got)
}

func TestOrderForOffer_EligibilityFilter(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-1", 1, 1))
	require.NoError(t, err)

	onBreak := available("q-1", "ext-2", 1, 2)
	onBreak.Status = models.AgentOnBreak
	_, err = m.AddAgent(onBreak)
	require.NoError(t, err)

	disabled := available("q-1", "ext-3", 1, 3)
	disabled.Enabled = false
	_, err = m.AddAgent(disabled)
	require.NoError(t, err)

	loggedOut := available("q-1", "ext-4", 1, 4)
	loggedOut.Status = models.AgentLoggedOut
	_, err = m.AddAgent(loggedOut)
	require.NoError(t, err)

	ordered, err := m.OrderForOffer("q-1")
	require.NoError(t, err)
	require.Len(t, ordered, 1)
	assert.Equal(t, "ext-1", ordered[0].ExtensionID)
}

func TestOrderForOffer_NoEligibleAgents(t *testing.T) {
	m := newTestManager()

	// Unknown queue.
	_, err := m.OrderForOffer("q-missing")
	assert.True(t, errors.IsType(err, errors.ErrTypeAgentUnavailable))

	// Roster exists but nobody is available.
	onBreak := available("q-1", "ext-1", 1, 1)
	onBreak.Status = models.AgentOnBreak
	_, err = m.AddAgent(onBreak)
	require.NoError(t, err)

	_, err = m.OrderForOffer("q-1")
	assert.True(t, errors.IsType(err, errors.ErrTypeAgentUnavailable))
}

func TestLoadRoster_ReplacesExisting(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-old", 1, 1))
	require.NoError(t, err)

	m.LoadRoster("q-1", []models.QueueAgent{
		available("q-1", "ext-new-1", 1, 1),
		available("q-1", "ext-new-2", 1, 2),
	})

	snapshot := m.Snapshot("q-1")
	require.Len(t, snapshot, 2)
	assert.Equal(t, "ext-new-1", snapshot[0].ExtensionID)
	assert.Equal(t, "ext-new-2", snapshot[1].ExtensionID)
}

func TestSnapshot_IsACopy(t *testing.T) {
	m := newTestManager()

	_, err := m.AddAgent(available("q-1", "ext-1", 1, 1))
	require.NoError(t, err)

	snapshot := m.Snapshot("q-1")
	require.Len(t, snapshot, 1)
	snapshot[0].Status = models.AgentLoggedOut

	fresh := m.Snapshot("q-1")
	assert.Equal(t, models.AgentAvailable, fresh[0].Status, "mutating a snapshot must not touch the roster")
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := newTestManager()

	for i := 0; i < 8; i++ {
		_, err := m.AddAgent(available("q-1", fmt.Sprintf("ext-%d", i), 1, i))
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ext := fmt.Sprintf("ext-%d", i)
			for j := 0; j < 100; j++ {
				_ = m.UpdateAgentStatus("q-1", ext, models.AgentOnBreak)
				_ = m.UpdateAgentStatus("q-1", ext, models.AgentAvailable)
				_ = m.RecordAnswer("q-1", ext, time.Second)
				_, _ = m.OrderForOffer("q-1")
				_ = m.Snapshot("q-1")
			}
		}(i)
	}
	wg.Wait()

	snapshot := m.Snapshot("q-1")
	require.Len(t, snapshot, 8)
	for _, agent := range snapshot {
		assert.Equal(t, 100, agent.CallsAnswered)
	}
}
