// Package postgres is the production Store. Each tenant's policy set
// is one JSONB document; entity writes run inside a transaction with
// the row locked, so concurrent editors on different nodes cannot
// interleave partial updates.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"call-router/internal/common/errors"
	"call-router/internal/models"
	"call-router/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS tenant_policies (
	tenant_id  TEXT PRIMARY KEY,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store persists policy sets in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	if databaseURL == "" {
		return nil, errors.ConfigError("database url is required")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errors.ConfigError("invalid database url: " + err.Error())
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.InternalError("failed to connect to database", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, errors.InternalError("failed to create schema", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	data, err := json.Marshal(&models.PolicySet{Tenant: *tenant})
	if err != nil {
		return errors.InternalError("failed to encode policy set", err)
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO tenant_policies (tenant_id, data) VALUES ($1, $2)
		 ON CONFLICT (tenant_id) DO NOTHING`,
		tenant.ID, data)
	if err != nil {
		return errors.InternalError("failed to create tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ValidationError("tenant " + tenant.ID + " already exists")
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	policy, err := s.PolicySet(ctx, id)
	if err != nil {
		return nil, err
	}
	tenant := policy.Tenant
	return &tenant, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM tenant_policies ORDER BY tenant_id`)
	if err != nil {
		return nil, errors.InternalError("failed to list tenants", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, errors.InternalError("failed to scan tenant row", err)
		}
		var policy models.PolicySet
		if err := json.Unmarshal(data, &policy); err != nil {
			return nil, errors.InternalError("failed to decode policy set", err)
		}
		tenants = append(tenants, policy.Tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.InternalError("failed to list tenants", err)
	}
	return tenants, nil
}

func (s *Store) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}
	return s.mutate(ctx, tenant.ID, func(policy *models.PolicySet) error {
		tenant.CreatedAt = policy.Tenant.CreatedAt
		tenant.UpdatedAt = time.Now().UTC()
		policy.Tenant = *tenant
		return nil
	})
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tenant_policies WHERE tenant_id = $1`, id)
	if err != nil {
		return errors.InternalError("failed to delete tenant", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFoundError("tenant " + id)
	}
	return nil
}

func (s *Store) PolicySet(ctx context.Context, tenantID string) (*models.PolicySet, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM tenant_policies WHERE tenant_id = $1`, tenantID).Scan(&data)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFoundError("tenant " + tenantID)
	}
	if err != nil {
		return nil, errors.InternalError("failed to load policy set", err)
	}

	var policy models.PolicySet
	if err := json.Unmarshal(data, &policy); err != nil {
		return nil, errors.InternalError("failed to decode policy set", err)
	}
	return &policy, nil
}

// mutate loads the tenant's document with the row locked, applies fn,
// and writes the document back in the same transaction.
func (s *Store) mutate(ctx context.Context, tenantID string, fn func(*models.PolicySet) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.InternalError("failed to begin transaction", err)
	}
	defer tx.Rollback(ctx)

	var data []byte
	err = tx.QueryRow(ctx,
		`SELECT data FROM tenant_policies WHERE tenant_id = $1 FOR UPDATE`,
		tenantID).Scan(&data)
	if err == pgx.ErrNoRows {
		return errors.NotFoundError("tenant " + tenantID)
	}
	if err != nil {
		return errors.InternalError("failed to load policy set", err)
	}

	var policy models.PolicySet
	if err := json.Unmarshal(data, &policy); err != nil {
		return errors.InternalError("failed to decode policy set", err)
	}

	if err := fn(&policy); err != nil {
		return err
	}

	updated, err := json.Marshal(&policy)
	if err != nil {
		return errors.InternalError("failed to encode policy set", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE tenant_policies SET data = $2, updated_at = now() WHERE tenant_id = $1`,
		tenantID, updated); err != nil {
		return errors.InternalError("failed to store policy set", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.InternalError("failed to commit policy update", err)
	}
	return nil
}

func (s *Store) UpsertExtension(ctx context.Context, tenantID string, ext models.Extension) (models.Extension, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		ext, err = storage.UpsertExtension(p, ext)
		return err
	})
	return ext, err
}

func (s *Store) DeleteExtension(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteExtension(p, id)
	})
}

func (s *Store) UpsertTrunk(ctx context.Context, tenantID string, trunk models.Trunk) (models.Trunk, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		trunk, err = storage.UpsertTrunk(p, trunk)
		return err
	})
	return trunk, err
}

func (s *Store) DeleteTrunk(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteTrunk(p, id)
	})
}

func (s *Store) UpsertInboundRoute(ctx context.Context, tenantID string, route models.InboundRoute) (models.InboundRoute, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		route, err = storage.UpsertInboundRoute(p, route)
		return err
	})
	return route, err
}

func (s *Store) DeleteInboundRoute(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteInboundRoute(p, id)
	})
}

func (s *Store) UpsertOutboundRoute(ctx context.Context, tenantID string, route models.OutboundRoute) (models.OutboundRoute, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		route, err = storage.UpsertOutboundRoute(p, route)
		return err
	})
	return route, err
}

func (s *Store) DeleteOutboundRoute(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteOutboundRoute(p, id)
	})
}

func (s *Store) UpsertDialplanRule(ctx context.Context, tenantID string, rule models.DialplanRule) (models.DialplanRule, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		rule, err = storage.UpsertDialplanRule(p, rule)
		return err
	})
	return rule, err
}

func (s *Store) DeleteDialplanRule(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteDialplanRule(p, id)
	})
}

func (s *Store) UpsertTimeCondition(ctx context.Context, tenantID string, tc models.TimeCondition) (models.TimeCondition, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		tc, err = storage.UpsertTimeCondition(p, tc)
		return err
	})
	return tc, err
}

func (s *Store) DeleteTimeCondition(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteTimeCondition(p, id)
	})
}

func (s *Store) UpsertQueue(ctx context.Context, tenantID string, queue models.Queue) (models.Queue, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		queue, err = storage.UpsertQueue(p, queue)
		return err
	})
	return queue, err
}

func (s *Store) DeleteQueue(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteQueue(p, id)
	})
}

func (s *Store) UpsertQueueAgent(ctx context.Context, tenantID string, agent models.QueueAgent) (models.QueueAgent, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		agent, err = storage.UpsertQueueAgent(p, agent)
		return err
	})
	return agent, err
}

func (s *Store) DeleteQueueAgent(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteQueueAgent(p, id)
	})
}

func (s *Store) UpsertRingGroup(ctx context.Context, tenantID string, group models.RingGroup) (models.RingGroup, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		group, err = storage.UpsertRingGroup(p, group)
		return err
	})
	return group, err
}

func (s *Store) DeleteRingGroup(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteRingGroup(p, id)
	})
}

func (s *Store) UpsertIVRMenu(ctx context.Context, tenantID string, menu models.IVRMenu) (models.IVRMenu, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		menu, err = storage.UpsertIVRMenu(p, menu)
		return err
	})
	return menu, err
}

func (s *Store) DeleteIVRMenu(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteIVRMenu(p, id)
	})
}

func (s *Store) UpsertConferenceRoom(ctx context.Context, tenantID string, room models.ConferenceRoom) (models.ConferenceRoom, error) {
	err := s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		var err error
		room, err = storage.UpsertConferenceRoom(p, room)
		return err
	})
	return room, err
}

func (s *Store) DeleteConferenceRoom(ctx context.Context, tenantID, id string) error {
	return s.mutate(ctx, tenantID, func(p *models.PolicySet) error {
		return storage.DeleteConferenceRoom(p, id)
	})
}

var _ storage.Store = (*Store)(nil)
