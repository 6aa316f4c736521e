package cache

import (
	"context"
	"testing"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRedisCarCache_ErrorsAreMisses(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	c := NewRedisCarCache(client, time.Minute, zap.New(core))
	ctx := context.Background()
	id := uuid.New()

	c.SetCar(ctx, &application.CarDTO{ID: id})
	_, ok := c.GetCar(ctx, id)
	assert.False(t, ok)
	c.InvalidateCar(ctx, id)

	assert.Equal(t, 3, logs.Len())
}

func TestNewRedisClient_FailsFast(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisClient(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}
