// Package locks provides distributed deploy locks using the Redlock
// algorithm implementation from go-redsync/redsync/v4. A tenant's
// deploy lock guarantees at most one deploy or rollback touches that
// tenant's switch configuration at a time, across every node running
// this service.
package locks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	"call-router/internal/common/errors"
	"call-router/internal/redis"
)

// Lock is a held distributed lock.
type Lock interface {
	// Key returns the lock's Redis key.
	Key() string
	// Release releases the lock and stops automatic renewal.
	Release(ctx context.Context) error
	// IsHeld reports whether this instance still holds the lock.
	IsHeld() bool
}

// Manager acquires tenant deploy locks.
type Manager struct {
	redsync *redsync.Redsync
	ttl     time.Duration

	mu   sync.Mutex
	held map[string]*deployLock
}

// NewManager creates a lock manager. ttl is how long a lock survives
// without renewal, bounding how long a crashed deployer can block a
// tenant.
func NewManager(redisClient *redis.Client, ttl time.Duration) (*Manager, error) {
	if redisClient == nil {
		return nil, errors.ConfigError("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.ConfigError("lock ttl must be positive")
	}

	pool := goredis.NewPool(redisClient.GetGoRedisClient())
	return &Manager{
		redsync: redsync.New(pool),
		ttl:     ttl,
		held:    make(map[string]*deployLock),
	}, nil
}

// AcquireDeployLock takes the deploy lock for a tenant, failing
// immediately if another deploy holds it. The lock renews itself at a
// third of the TTL until released.
func (m *Manager) AcquireDeployLock(ctx context.Context, tenantID string) (Lock, error) {
	if tenantID == "" {
		return nil, errors.ValidationError("tenant id is required")
	}

	key := deployKey(tenantID)
	mutex := m.redsync.NewMutex(key,
		redsync.WithExpiry(m.ttl),
		redsync.WithTries(1))

	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, errors.DeployError("lock",
			fmt.Sprintf("deploy already in progress for tenant %s", tenantID), err)
	}

	lockCtx, cancel := context.WithCancel(context.Background())
	lock := &deployLock{
		mutex:   mutex,
		key:     key,
		ctx:     lockCtx,
		cancel:  cancel,
		manager: m,
	}

	m.mu.Lock()
	m.held[key] = lock
	m.mu.Unlock()

	go m.renew(lock)
	return lock, nil
}

func (m *Manager) renew(lock *deployLock) {
	interval := m.ttl / 3
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-lock.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ok, err := lock.mutex.ExtendContext(ctx)
			cancel()
			if err != nil || !ok {
				// Lock lost; stop renewing and drop local tracking.
				m.release(lock)
				return
			}
		}
	}
}

func (m *Manager) release(lock *deployLock) {
	m.mu.Lock()
	delete(m.held, lock.key)
	m.mu.Unlock()

	lock.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	lock.mutex.UnlockContext(ctx)
}

// Close releases every lock this manager still holds.
func (m *Manager) Close() error {
	m.mu.Lock()
	held := make([]*deployLock, 0, len(m.held))
	for _, lock := range m.held {
		held = append(held, lock)
	}
	m.mu.Unlock()

	for _, lock := range held {
		m.release(lock)
	}
	return nil
}

type deployLock struct {
	mutex   *redsync.Mutex
	key     string
	ctx     context.Context
	cancel  context.CancelFunc
	manager *Manager
}

func (l *deployLock) Key() string { return l.key }

func (l *deployLock) Release(ctx context.Context) error {
	l.manager.release(l)
	return nil
}

func (l *deployLock) IsHeld() bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
		return true
	}
}

func deployKey(tenantID string) string {
	return "deploy:" + tenantID
}
