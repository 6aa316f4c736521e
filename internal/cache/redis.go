package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driveease/service-rental/internal/application"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const carKeyPrefix = "rental:car:"

// RedisCarCache caches car details in Redis. Cache errors are logged and treated
// as misses.
type RedisCarCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisCarCache creates a RedisCarCache.
func NewRedisCarCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCarCache {
	return &RedisCarCache{client: client, ttl: ttl, logger: logger}
}

// GetCar returns the cached car, if any.
func (c *RedisCarCache) GetCar(ctx context.Context, id uuid.UUID) (*application.CarDTO, bool) {
	data, err := c.client.Get(ctx, carKeyPrefix+id.String()).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("car cache read failed", zap.String("car_id", id.String()), zap.Error(err))
		}
		return nil, false
	}

	var dto application.CarDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		c.logger.Warn("car cache entry is corrupt", zap.String("car_id", id.String()), zap.Error(err))
		return nil, false
	}
	return &dto, true
}

// SetCar stores car for the configured TTL.
func (c *RedisCarCache) SetCar(ctx context.Context, car *application.CarDTO) {
	data, err := json.Marshal(car)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, carKeyPrefix+car.ID.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("car cache write failed", zap.String("car_id", car.ID.String()), zap.Error(err))
	}
}

// InvalidateCar drops the cached entry.
func (c *RedisCarCache) InvalidateCar(ctx context.Context, id uuid.UUID) {
	if err := c.client.Del(ctx, carKeyPrefix+id.String()).Err(); err != nil {
		c.logger.Warn("car cache invalidation failed", zap.String("car_id", id.String()), zap.Error(err))
	}
}
