// Package storage persists tenant routing policy. A tenant's
// configuration is read and written as one policy set document, which
// keeps reads cheap for the resolver and makes the compiler's input a
// single consistent snapshot.
package storage

import (
	"context"

	"call-router/internal/models"
)

// Store is the persistence interface for tenant routing policy.
// Entity writes validate before persisting; invalid dial patterns
// never reach the database.
type Store interface {
	Health(ctx context.Context) error
	Close() error

	// Tenants
	CreateTenant(ctx context.Context, tenant *models.Tenant) error
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	ListTenants(ctx context.Context) ([]models.Tenant, error)
	UpdateTenant(ctx context.Context, tenant *models.Tenant) error
	DeleteTenant(ctx context.Context, id string) error

	// PolicySet returns the tenant's full configuration snapshot.
	PolicySet(ctx context.Context, tenantID string) (*models.PolicySet, error)

	// Per-entity writes. Upserts assign an ID when absent and
	// replace the existing entity otherwise.
	UpsertExtension(ctx context.Context, tenantID string, ext models.Extension) (models.Extension, error)
	DeleteExtension(ctx context.Context, tenantID, id string) error

	UpsertTrunk(ctx context.Context, tenantID string, trunk models.Trunk) (models.Trunk, error)
	DeleteTrunk(ctx context.Context, tenantID, id string) error

	UpsertInboundRoute(ctx context.Context, tenantID string, route models.InboundRoute) (models.InboundRoute, error)
	DeleteInboundRoute(ctx context.Context, tenantID, id string) error

	UpsertOutboundRoute(ctx context.Context, tenantID string, route models.OutboundRoute) (models.OutboundRoute, error)
	DeleteOutboundRoute(ctx context.Context, tenantID, id string) error

	UpsertDialplanRule(ctx context.Context, tenantID string, rule models.DialplanRule) (models.DialplanRule, error)
	DeleteDialplanRule(ctx context.Context, tenantID, id string) error

	UpsertTimeCondition(ctx context.Context, tenantID string, tc models.TimeCondition) (models.TimeCondition, error)
	DeleteTimeCondition(ctx context.Context, tenantID, id string) error

	UpsertQueue(ctx context.Context, tenantID string, queue models.Queue) (models.Queue, error)
	DeleteQueue(ctx context.Context, tenantID, id string) error

	UpsertQueueAgent(ctx context.Context, tenantID string, agent models.QueueAgent) (models.QueueAgent, error)
	DeleteQueueAgent(ctx context.Context, tenantID, id string) error

	UpsertRingGroup(ctx context.Context, tenantID string, group models.RingGroup) (models.RingGroup, error)
	DeleteRingGroup(ctx context.Context, tenantID, id string) error

	UpsertIVRMenu(ctx context.Context, tenantID string, menu models.IVRMenu) (models.IVRMenu, error)
	DeleteIVRMenu(ctx context.Context, tenantID, id string) error

	UpsertConferenceRoom(ctx context.Context, tenantID string, room models.ConferenceRoom) (models.ConferenceRoom, error)
	DeleteConferenceRoom(ctx context.Context, tenantID, id string) error
}
