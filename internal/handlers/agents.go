package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"call-router/internal/common/logging"
	"call-router/internal/models"
)

type agentStatusRequest struct {
	Status models.AgentStatus `json:"status"`
}

type agentStateRequest struct {
	State models.AgentState `json:"state"`
}

// AddAgent persists the roster entry and registers it with the live
// tier manager in one step. Persistence first, so a store rejection
// never leaves a phantom agent receiving calls.
func (h *Handlers) AddAgent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID, queueID := vars["tenantId"], vars["queueId"]

	var agent models.QueueAgent
	if err := decodeBody(r, &agent); err != nil {
		h.writeError(w, err)
		return
	}
	agent.QueueID = queueID

	stored, err := h.store.UpsertQueueAgent(r.Context(), tenantID, agent)
	if err != nil {
		h.writeError(w, err)
		return
	}
	live, err := h.agents.AddAgent(stored)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Agent added to queue",
		logging.String("tenant_id", tenantID),
		logging.String("queue_id", queueID),
		logging.String("extension_id", live.ExtensionID))
	h.writeJSON(w, http.StatusCreated, live)
}

func (h *Handlers) RemoveAgent(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID, queueID, extensionID := vars["tenantId"], vars["queueId"], vars["extensionId"]

	if err := h.agents.RemoveAgent(queueID, extensionID); err != nil {
		h.writeError(w, err)
		return
	}

	// Drop the persisted entry too; the roster keys by extension, the
	// store keys by agent ID.
	policy, err := h.store.PolicySet(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	for _, a := range policy.QueueAgents {
		if a.QueueID == queueID && a.ExtensionID == extensionID {
			if err := h.store.DeleteQueueAgent(r.Context(), tenantID, a.ID); err != nil {
				h.writeError(w, err)
				return
			}
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateAgentStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	queueID, extensionID := vars["queueId"], vars["extensionId"]

	var req agentStatusRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.agents.UpdateAgentStatus(queueID, extensionID, req.Status); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpdateAgentState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	queueID, extensionID := vars["queueId"], vars["extensionId"]

	var req agentStateRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.agents.UpdateAgentState(queueID, extensionID, req.State); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueueRoster returns the live roster ordered as the offer logic
// would walk it.
func (h *Handlers) QueueRoster(w http.ResponseWriter, r *http.Request) {
	queueID := mux.Vars(r)["queueId"]

	ordered, err := h.agents.OrderForOffer(queueID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ordered)
}

// QueueSnapshot returns every agent on the roster regardless of
// eligibility, for dashboards.
func (h *Handlers) QueueSnapshot(w http.ResponseWriter, r *http.Request) {
	queueID := mux.Vars(r)["queueId"]
	snapshot := h.agents.Snapshot(queueID)
	if snapshot == nil {
		snapshot = []models.QueueAgent{}
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}
