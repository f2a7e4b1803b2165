package locks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"call-router/internal/common/errors"
	"call-router/internal/redis"
)

func setupManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	manager, err := NewManager(client, 30*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestNewManager(t *testing.T) {
	t.Run("requires redis client", func(t *testing.T) {
		_, err := NewManager(nil, time.Minute)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	})

	t.Run("requires positive ttl", func(t *testing.T) {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		defer mr.Close()

		client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
		require.NoError(t, err)
		defer client.Close()

		_, err = NewManager(client, 0)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
	})
}

func TestManager_AcquireDeployLock(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	lock, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, "deploy:tenant-1", lock.Key())
	assert.True(t, lock.IsHeld())

	require.NoError(t, lock.Release(ctx))
	assert.False(t, lock.IsHeld())
}

func TestManager_SecondAcquireFails(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	lock, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	defer lock.Release(ctx)

	_, err = manager.AcquireDeployLock(ctx, "tenant-1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeDeploy))
	assert.Contains(t, err.Error(), "already in progress")
}

func TestManager_TenantsLockIndependently(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	first, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	defer first.Release(ctx)

	second, err := manager.AcquireDeployLock(ctx, "tenant-2")
	require.NoError(t, err)
	defer second.Release(ctx)

	assert.True(t, first.IsHeld())
	assert.True(t, second.IsHeld())
}

func TestManager_ReleaseAllowsReacquire(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	lock, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))

	again, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	defer again.Release(ctx)
	assert.True(t, again.IsHeld())
}

func TestManager_RequiresTenantID(t *testing.T) {
	manager := setupManager(t)

	_, err := manager.AcquireDeployLock(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestManager_CloseReleasesLocks(t *testing.T) {
	manager := setupManager(t)
	ctx := context.Background()

	lock, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)

	require.NoError(t, manager.Close())
	assert.False(t, lock.IsHeld())

	again, err := manager.AcquireDeployLock(ctx, "tenant-1")
	require.NoError(t, err)
	defer again.Release(ctx)
}
