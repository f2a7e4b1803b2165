package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"call-router/internal/common/logging"
	"call-router/internal/models"
)

type rollbackRequest struct {
	BackupPath string `json:"backup_path"`
}

// Deploy compiles the tenant's policy, snapshots the live tree,
// writes the new artifacts, and reloads the switch.
func (h *Handlers) Deploy(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	result, err := h.deployer.Deploy(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Deploy completed",
		logging.String("tenant_id", tenantID),
		logging.Int("artifacts", result.ArtifactCount),
		logging.Duration("duration", result.Duration))
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) Rollback(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	var req rollbackRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.deployer.Rollback(r.Context(), tenantID, req.BackupPath); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("Rollback completed",
		logging.String("tenant_id", tenantID),
		logging.String("backup_path", req.BackupPath))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) CreateBackup(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	backup, err := h.deployer.CreateBackup(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, backup)
}

func (h *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]

	backups, err := h.deployer.ListBackups(tenantID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if backups == nil {
		backups = []models.Backup{}
	}
	h.writeJSON(w, http.StatusOK, backups)
}

func (h *Handlers) DeployState(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["tenantId"]
	h.writeJSON(w, http.StatusOK, map[string]string{
		"tenant_id": tenantID,
		"state":     string(h.deployer.TenantState(tenantID)),
	})
}
