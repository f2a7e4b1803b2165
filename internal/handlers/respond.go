package handlers

import (
	"encoding/json"
	"net/http"

	"call-router/internal/common/errors"
)

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	h.writeJSON(w, statusFor(appErr.Type), errorResponse{
		Error: appErr.Message,
		Type:  string(appErr.Type),
	})
}

func statusFor(errType errors.ErrorType) int {
	switch errType {
	case errors.ErrTypeValidation, errors.ErrTypeInvalidPattern:
		return http.StatusBadRequest
	case errors.ErrTypeNotFound, errors.ErrTypeNoRouteFound:
		return http.StatusNotFound
	case errors.ErrTypeAgentUnavailable:
		return http.StatusConflict
	case errors.ErrTypeDeploy:
		return http.StatusConflict
	case errors.ErrTypeControlChannel:
		return http.StatusBadGateway
	case errors.ErrTypeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ValidationError("invalid request body: " + err.Error())
	}
	return nil
}
