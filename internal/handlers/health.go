package handlers

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status        string     `json:"status"`
	Storage       string     `json:"storage"`
	Switch        string     `json:"switch"`
	SwitchChecked *time.Time `json:"switch_checked,omitempty"`
}

// Health reports storage reachability and the last switch status
// probe. Degraded components drop the overall status but the endpoint
// itself always answers 200 so probes can read the detail.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Storage: "ok", Switch: "ok"}

	if err := h.store.Health(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Storage = "unreachable"
	}

	if h.monitor != nil {
		if checked := h.monitor.LastChecked(); !checked.IsZero() {
			resp.SwitchChecked = &checked
		}
		if !h.monitor.Healthy() {
			resp.Status = "degraded"
			resp.Switch = "unhealthy"
		}
	} else {
		resp.Switch = "unmonitored"
	}

	h.writeJSON(w, http.StatusOK, resp)
}
