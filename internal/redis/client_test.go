package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewClient(&Config{
		Address:  mr.Addr(),
		Password: "",
		DB:       0,
		PoolSize: 10,
	})
	require.NoError(t, err)

	return client, mr
}

func TestNewClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Run("successful connection", func(t *testing.T) {
		client, err := NewClient(&Config{Address: mr.Addr(), PoolSize: 5})
		assert.NoError(t, err)
		assert.NotNil(t, client)
		assert.NotNil(t, client.GetGoRedisClient())

		err = client.Close()
		assert.NoError(t, err)
	})

	t.Run("sets default pool size", func(t *testing.T) {
		config := &Config{Address: mr.Addr(), PoolSize: 0}

		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 10, config.PoolSize)
	})

	t.Run("nil config", func(t *testing.T) {
		client, err := NewClient(nil)
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "redis config is required")
	})

	t.Run("connection failure", func(t *testing.T) {
		client, err := NewClient(&Config{Address: "invalid:99999", PoolSize: 5})
		assert.Error(t, err)
		assert.Nil(t, client)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestClient_Health(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	t.Run("healthy connection", func(t *testing.T) {
		assert.NoError(t, client.Health())
	})

	t.Run("unhealthy connection", func(t *testing.T) {
		mr.Close()
		assert.Error(t, client.Health())
	})
}

func TestClient_KeyValue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()

	t.Run("set and get string", func(t *testing.T) {
		err := client.Set(ctx, "deploy:last:t-1", "backup-20260830", time.Hour)
		assert.NoError(t, err)

		result, err := client.Get(ctx, "deploy:last:t-1")
		assert.NoError(t, err)
		assert.Equal(t, "backup-20260830", result)
	})

	t.Run("set and get JSON", func(t *testing.T) {
		key := "deploy:result:t-1"
		value := map[string]interface{}{
			"tenant_id": "t-1",
			"artifacts": 12,
			"verified":  true,
		}

		err := client.Set(ctx, key, value, time.Hour)
		assert.NoError(t, err)

		var result map[string]interface{}
		err = client.GetJSON(ctx, key, &result)
		assert.NoError(t, err)
		assert.Equal(t, "t-1", result["tenant_id"])
		assert.Equal(t, float64(12), result["artifacts"]) // JSON numbers are float64
		assert.Equal(t, true, result["verified"])
	})

	t.Run("get non-existent key", func(t *testing.T) {
		_, err := client.Get(ctx, "non:existent")
		assert.Equal(t, redis.Nil, err)
	})

	t.Run("exists and delete", func(t *testing.T) {
		key := "deploy:state:t-2"

		exists, err := client.Exists(ctx, key)
		assert.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, client.Set(ctx, key, "writing", time.Hour))

		exists, err = client.Exists(ctx, key)
		assert.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, client.Delete(ctx, key))

		exists, err = client.Exists(ctx, key)
		assert.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("set with expiration", func(t *testing.T) {
		key := "deploy:ttl"
		require.NoError(t, client.Set(ctx, key, "transient", time.Second))

		result, err := client.Get(ctx, key)
		assert.NoError(t, err)
		assert.Equal(t, "transient", result)

		mr.FastForward(2 * time.Second)

		_, err = client.Get(ctx, key)
		assert.Equal(t, redis.Nil, err)
	})

	t.Run("invalid JSON marshaling", func(t *testing.T) {
		err := client.Set(ctx, "deploy:invalid", make(chan int), time.Hour)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal value")
	})
}

func TestClient_PubSub(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	channel := "deploy:events"

	t.Run("publish and receive message", func(t *testing.T) {
		pubsub := client.Subscribe(ctx, channel)
		defer pubsub.Close()

		_, err := pubsub.Receive(ctx)
		require.NoError(t, err)

		require.NoError(t, client.Publish(ctx, channel, "t-1 deployed"))

		msg, err := pubsub.ReceiveMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, channel, msg.Channel)
		assert.Equal(t, "t-1 deployed", msg.Payload)
	})

	t.Run("publish JSON message", func(t *testing.T) {
		err := client.Publish(ctx, channel, map[string]interface{}{
			"event":     "deploy_complete",
			"tenant_id": "t-1",
		})
		assert.NoError(t, err)
	})

	t.Run("invalid JSON for publish", func(t *testing.T) {
		err := client.Publish(ctx, channel, make(chan int))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal message")
	})
}

func TestClient_Concurrency(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ctx := context.Background()
	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			key := fmt.Sprintf("deploy:concurrent:%d", id)
			value := fmt.Sprintf("value-%d", id)

			err := client.Set(ctx, key, value, time.Hour)
			assert.NoError(t, err)

			result, err := client.Get(ctx, key)
			assert.NoError(t, err)
			assert.Equal(t, value, result)

			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}
}
