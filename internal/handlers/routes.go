package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"call-router/internal/middleware"
)

// Router wires every endpoint. Entity upserts accept POST for create
// and PUT for replace on the same handler; the store's upsert
// semantics make them interchangeable.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(h.logger))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Tenants
	api.HandleFunc("/tenants", h.CreateTenant).Methods(http.MethodPost)
	api.HandleFunc("/tenants", h.ListTenants).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenantId}", h.GetTenant).Methods(http.MethodGet)
	api.HandleFunc("/tenants/{tenantId}", h.UpdateTenant).Methods(http.MethodPut)
	api.HandleFunc("/tenants/{tenantId}", h.DeleteTenant).Methods(http.MethodDelete)
	api.HandleFunc("/tenants/{tenantId}/policy", h.GetPolicy).Methods(http.MethodGet)

	// Per-entity configuration
	tenant := api.PathPrefix("/tenants/{tenantId}").Subrouter()
	entity := func(path string, upsert, remove http.HandlerFunc) {
		tenant.HandleFunc(path, upsert).Methods(http.MethodPost, http.MethodPut)
		tenant.HandleFunc(path+"/{id}", remove).Methods(http.MethodDelete)
	}
	entity("/extensions", h.UpsertExtension, h.DeleteExtension)
	entity("/trunks", h.UpsertTrunk, h.DeleteTrunk)
	entity("/inbound-routes", h.UpsertInboundRoute, h.DeleteInboundRoute)
	entity("/outbound-routes", h.UpsertOutboundRoute, h.DeleteOutboundRoute)
	entity("/dialplan-rules", h.UpsertDialplanRule, h.DeleteDialplanRule)
	entity("/time-conditions", h.UpsertTimeCondition, h.DeleteTimeCondition)
	entity("/queues", h.UpsertQueue, h.DeleteQueue)
	entity("/ring-groups", h.UpsertRingGroup, h.DeleteRingGroup)
	entity("/ivr-menus", h.UpsertIVRMenu, h.DeleteIVRMenu)
	entity("/conference-rooms", h.UpsertConferenceRoom, h.DeleteConferenceRoom)

	// Resolution and dry-run testing
	tenant.HandleFunc("/resolve/inbound", h.ResolveInbound).Methods(http.MethodPost)
	tenant.HandleFunc("/resolve/outbound", h.ResolveOutbound).Methods(http.MethodPost)
	tenant.HandleFunc("/time-conditions/{id}/preview", h.PreviewTimeCondition).Methods(http.MethodPost)
	api.HandleFunc("/test/pattern", h.TestPattern).Methods(http.MethodPost)
	api.HandleFunc("/test/rule", h.TestRule).Methods(http.MethodPost)

	// Queue agent runtime
	tenant.HandleFunc("/queues/{queueId}/agents", h.AddAgent).Methods(http.MethodPost)
	tenant.HandleFunc("/queues/{queueId}/agents", h.QueueSnapshot).Methods(http.MethodGet)
	tenant.HandleFunc("/queues/{queueId}/roster", h.QueueRoster).Methods(http.MethodGet)
	tenant.HandleFunc("/queues/{queueId}/agents/{extensionId}", h.RemoveAgent).Methods(http.MethodDelete)
	tenant.HandleFunc("/queues/{queueId}/agents/{extensionId}/status", h.UpdateAgentStatus).Methods(http.MethodPut)
	tenant.HandleFunc("/queues/{queueId}/agents/{extensionId}/state", h.UpdateAgentState).Methods(http.MethodPut)

	// Deployment
	tenant.HandleFunc("/deploy", h.Deploy).Methods(http.MethodPost)
	tenant.HandleFunc("/deploy/state", h.DeployState).Methods(http.MethodGet)
	tenant.HandleFunc("/rollback", h.Rollback).Methods(http.MethodPost)
	tenant.HandleFunc("/backups", h.CreateBackup).Methods(http.MethodPost)
	tenant.HandleFunc("/backups", h.ListBackups).Methods(http.MethodGet)

	return r
}
