// Package redis 基于 Redis 的模拟结果存储，结果以 JSON 保存并按 TTL 过期
package redis

import (
	"context"
	"time"

	"github.com/wyfcoding/optionsengine/internal/marketsimulation/domain"
	"github.com/wyfcoding/optionsengine/pkg/cache"
)

const keyPrefix = "optionsengine:simulation:"

type RunRepository struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

func NewRunRepository(c *cache.RedisCache, ttl time.Duration) *RunRepository {
	return &RunRepository{cache: c, ttl: ttl}
}

func (r *RunRepository) Save(ctx context.Context, run *domain.SimulationRun) error {
	return r.cache.SetJSON(ctx, keyPrefix+run.ID, run, r.ttl)
}

func (r *RunRepository) Get(ctx context.Context, id string) (*domain.SimulationRun, error) {
	var run domain.SimulationRun
	found, err := r.cache.GetJSON(ctx, keyPrefix+id, &run)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrRunNotFound.WithDetail("id=%s", id)
	}
	return &run, nil
}
