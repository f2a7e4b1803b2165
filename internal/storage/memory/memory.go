// Package memory is an in-process Store for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"call-router/internal/common/errors"
	"call-router/internal/models"
	"call-router/internal/storage"
)

// Store keeps every tenant's policy set in memory. All reads return
// deep copies so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	policies map[string]*models.PolicySet
}

// New creates an empty store.
func New() *Store {
	return &Store{policies: make(map[string]*models.PolicySet)}
}

func (s *Store) Health(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if _, exists := s.policies[tenant.ID]; exists {
		return errors.ValidationError("tenant " + tenant.ID + " already exists")
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now

	s.policies[tenant.ID] = &models.PolicySet{Tenant: *tenant}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[id]
	if !ok {
		return nil, errors.NotFoundError("tenant " + id)
	}
	tenant := policy.Tenant
	return &tenant, nil
}

func (s *Store) ListTenants(ctx context.Context) ([]models.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenants := make([]models.Tenant, 0, len(s.policies))
	for _, policy := range s.policies {
		tenants = append(tenants, policy.Tenant)
	}
	sort.Slice(tenants, func(i, j int) bool { return tenants[i].ID < tenants[j].ID })
	return tenants, nil
}

func (s *Store) UpdateTenant(ctx context.Context, tenant *models.Tenant) error {
	if err := tenant.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	policy, ok := s.policies[tenant.ID]
	if !ok {
		return errors.NotFoundError("tenant " + tenant.ID)
	}
	tenant.CreatedAt = policy.Tenant.CreatedAt
	tenant.UpdatedAt = time.Now().UTC()
	policy.Tenant = *tenant
	return nil
}

func (s *Store) DeleteTenant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[id]; !ok {
		return errors.NotFoundError("tenant " + id)
	}
	delete(s.policies, id)
	return nil
}

func (s *Store) PolicySet(ctx context.Context, tenantID string) (*models.PolicySet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[tenantID]
	if !ok {
		return nil, errors.NotFoundError("tenant " + tenantID)
	}
	return clonePolicy(policy)
}

// mutate runs fn against the tenant's live policy set under the write
// lock. Every entity write funnels through here.
func (s *Store) mutate(tenantID string, fn func(*models.PolicySet) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	policy, ok := s.policies[tenantID]
	if !ok {
		return errors.NotFoundError("tenant " + tenantID)
	}
	return fn(policy)
}

func (s *Store) UpsertExtension(ctx context.Context, tenantID string, ext models.Extension) (models.Extension, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		ext, err = storage.UpsertExtension(p, ext)
		return err
	})
	return ext, err
}

func (s *Store) DeleteExtension(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteExtension(p, id)
	})
}

func (s *Store) UpsertTrunk(ctx context.Context, tenantID string, trunk models.Trunk) (models.Trunk, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		trunk, err = storage.UpsertTrunk(p, trunk)
		return err
	})
	return trunk, err
}

func (s *Store) DeleteTrunk(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteTrunk(p, id)
	})
}

func (s *Store) UpsertInboundRoute(ctx context.Context, tenantID string, route models.InboundRoute) (models.InboundRoute, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		route, err = storage.UpsertInboundRoute(p, route)
		return err
	})
	return route, err
}

func (s *Store) DeleteInboundRoute(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteInboundRoute(p, id)
	})
}

func (s *Store) UpsertOutboundRoute(ctx context.Context, tenantID string, route models.OutboundRoute) (models.OutboundRoute, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		route, err = storage.UpsertOutboundRoute(p, route)
		return err
	})
	return route, err
}

func (s *Store) DeleteOutboundRoute(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteOutboundRoute(p, id)
	})
}

func (s *Store) UpsertDialplanRule(ctx context.Context, tenantID string, rule models.DialplanRule) (models.DialplanRule, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		rule, err = storage.UpsertDialplanRule(p, rule)
		return err
	})
	return rule, err
}

func (s *Store) DeleteDialplanRule(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteDialplanRule(p, id)
	})
}

func (s *Store) UpsertTimeCondition(ctx context.Context, tenantID string, tc models.TimeCondition) (models.TimeCondition, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		tc, err = storage.UpsertTimeCondition(p, tc)
		return err
	})
	return tc, err
}

func (s *Store) DeleteTimeCondition(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteTimeCondition(p, id)
	})
}

func (s *Store) UpsertQueue(ctx context.Context, tenantID string, queue models.Queue) (models.Queue, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		queue, err = storage.UpsertQueue(p, queue)
		return err
	})
	return queue, err
}

func (s *Store) DeleteQueue(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteQueue(p, id)
	})
}

func (s *Store) UpsertQueueAgent(ctx context.Context, tenantID string, agent models.QueueAgent) (models.QueueAgent, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		agent, err = storage.UpsertQueueAgent(p, agent)
		return err
	})
	return agent, err
}

func (s *Store) DeleteQueueAgent(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteQueueAgent(p, id)
	})
}

func (s *Store) UpsertRingGroup(ctx context.Context, tenantID string, group models.RingGroup) (models.RingGroup, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		group, err = storage.UpsertRingGroup(p, group)
		return err
	})
	return group, err
}

func (s *Store) DeleteRingGroup(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteRingGroup(p, id)
	})
}

func (s *Store) UpsertIVRMenu(ctx context.Context, tenantID string, menu models.IVRMenu) (models.IVRMenu, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		menu, err = storage.UpsertIVRMenu(p, menu)
		return err
	})
	return menu, err
}

func (s *Store) DeleteIVRMenu(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteIVRMenu(p, id)
	})
}

func (s *Store) UpsertConferenceRoom(ctx context.Context, tenantID string, room models.ConferenceRoom) (models.ConferenceRoom, error) {
	err := s.mutate(tenantID, func(p *models.PolicySet) error {
		var err error
		room, err = storage.UpsertConferenceRoom(p, room)
		return err
	})
	return room, err
}

func (s *Store) DeleteConferenceRoom(ctx context.Context, tenantID, id string) error {
	return s.mutate(tenantID, func(p *models.PolicySet) error {
		return storage.DeleteConferenceRoom(p, id)
	})
}

func clonePolicy(policy *models.PolicySet) (*models.PolicySet, error) {
	data, err := json.Marshal(policy)
	if err != nil {
		return nil, errors.InternalError("failed to clone policy set", err)
	}
	var clone models.PolicySet
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, errors.InternalError("failed to clone policy set", err)
	}
	return &clone, nil
}

var _ storage.Store = (*Store)(nil)
