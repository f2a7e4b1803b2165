package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"call-router/internal/models"
)

// Entity handlers follow one shape: decode, upsert through the store
// (which validates and stamps IDs), write the stored value back.

func (h *Handlers) UpsertExtension(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var ext models.Extension
	if err := decodeBody(r, &ext); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertExtension(r.Context(), tenantID, ext)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteExtension(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteExtension(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertTrunk(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var trunk models.Trunk
	if err := decodeBody(r, &trunk); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertTrunk(r.Context(), tenantID, trunk)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteTrunk(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteTrunk(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertInboundRoute(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var route models.InboundRoute
	if err := decodeBody(r, &route); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertInboundRoute(r.Context(), tenantID, route)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteInboundRoute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteInboundRoute(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertOutboundRoute(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var route models.OutboundRoute
	if err := decodeBody(r, &route); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertOutboundRoute(r.Context(), tenantID, route)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteOutboundRoute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteOutboundRoute(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertDialplanRule(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var rule models.DialplanRule
	if err := decodeBody(r, &rule); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertDialplanRule(r.Context(), tenantID, rule)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteDialplanRule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteDialplanRule(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertTimeCondition(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var tc models.TimeCondition
	if err := decodeBody(r, &tc); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertTimeCondition(r.Context(), tenantID, tc)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteTimeCondition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteTimeCondition(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertQueue(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var queue models.Queue
	if err := decodeBody(r, &queue); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertQueue(r.Context(), tenantID, queue)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteQueue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteQueue(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertRingGroup(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var group models.RingGroup
	if err := decodeBody(r, &group); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertRingGroup(r.Context(), tenantID, group)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteRingGroup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteRingGroup(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertIVRMenu(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var menu models.IVRMenu
	if err := decodeBody(r, &menu); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertIVRMenu(r.Context(), tenantID, menu)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteIVRMenu(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteIVRMenu(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) UpsertConferenceRoom(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var room models.ConferenceRoom
	if err := decodeBody(r, &room); err != nil {
		h.writeError(w, err)
		return
	}
	stored, err := h.store.UpsertConferenceRoom(r.Context(), tenantID, room)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stored)
}

func (h *Handlers) DeleteConferenceRoom(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.store.DeleteConferenceRoom(r.Context(), vars["tenantId"], vars["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
