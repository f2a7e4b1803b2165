package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"call-router/internal/common/errors"
	"call-router/internal/models"
	"call-router/internal/timecond"
)

type resolveInboundRequest struct {
	DID          string     `json:"did"`
	CallerNumber string     `json:"caller_number"`
	At           *time.Time `json:"at,omitempty"`
}

type resolveOutboundRequest struct {
	Number string     `json:"number"`
	At     *time.Time `json:"at,omitempty"`
}

type testPatternRequest struct {
	Pattern string `json:"pattern"`
	Number  string `json:"number"`
}

type testRuleRequest struct {
	Rule   models.DialplanRule `json:"rule"`
	Number string              `json:"number"`
}

type timeConditionPreviewRequest struct {
	At *time.Time `json:"at,omitempty"`
}

func resolveInstant(at *time.Time) time.Time {
	if at != nil {
		return *at
	}
	return time.Now()
}

// ResolveInbound answers where a call to a DID lands right now (or at
// the instant the caller supplies).
func (h *Handlers) ResolveInbound(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var req resolveInboundRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	dest, err := h.resolver.ResolveInbound(r.Context(), tenantID, req.DID, req.CallerNumber, resolveInstant(req.At))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dest)
}

func (h *Handlers) ResolveOutbound(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var req resolveOutboundRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	dest, err := h.resolver.ResolveOutbound(r.Context(), tenantID, req.Number, resolveInstant(req.At))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dest)
}

// TestPattern dry-runs a dial pattern against a number without
// touching any stored configuration.
func (h *Handlers) TestPattern(w http.ResponseWriter, r *http.Request) {
	var req testPatternRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.resolver.TestPattern(req.Pattern, req.Number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) TestRule(w http.ResponseWriter, r *http.Request) {
	var req testRuleRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.resolver.TestRule(&req.Rule, req.Number)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// PreviewTimeCondition evaluates a stored time condition at an
// arbitrary instant so schedules can be checked before go-live.
func (h *Handlers) PreviewTimeCondition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tenantID, tcID := vars["tenantId"], vars["id"]

	// An empty body previews the current instant.
	var req timeConditionPreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.writeError(w, errors.ValidationError("invalid request body: "+err.Error()))
		return
	}

	policy, err := h.store.PolicySet(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var tc *models.TimeCondition
	for i := range policy.TimeConditions {
		if policy.TimeConditions[i].ID == tcID {
			tc = &policy.TimeConditions[i]
			break
		}
	}
	if tc == nil {
		h.writeError(w, errors.NotFoundError("time condition "+tcID))
		return
	}

	eval, err := timecond.EvaluateFull(tc, resolveInstant(req.At))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, eval)
}
