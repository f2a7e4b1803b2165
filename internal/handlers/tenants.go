package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"call-router/internal/common/errors"
	"call-router/internal/common/logging"
	"call-router/internal/models"
)

func (h *Handlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var tenant models.Tenant
	if err := decodeBody(r, &tenant); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.store.CreateTenant(r.Context(), &tenant); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Tenant created",
		logging.String("tenant_id", tenant.ID),
		logging.String("domain", tenant.Domain))
	h.writeJSON(w, http.StatusCreated, tenant)
}

func (h *Handlers) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	tenant, err := h.store.GetTenant(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.store.ListTenants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}
	h.writeJSON(w, http.StatusOK, tenants)
}

func (h *Handlers) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var tenant models.Tenant
	if err := decodeBody(r, &tenant); err != nil {
		h.writeError(w, err)
		return
	}
	if tenant.ID != "" && tenant.ID != tenantID {
		h.writeError(w, errors.ValidationError("tenant id in body does not match URL"))
		return
	}
	tenant.ID = tenantID

	if err := h.store.UpdateTenant(r.Context(), &tenant); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tenant)
}

func (h *Handlers) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	if err := h.store.DeleteTenant(r.Context(), tenantID); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("Tenant deleted", logging.String("tenant_id", tenantID))
	w.WriteHeader(http.StatusNoContent)
}

// GetPolicy returns the tenant's full configuration snapshot.
func (h *Handlers) GetPolicy(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	policy, err := h.store.PolicySet(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, policy)
}
