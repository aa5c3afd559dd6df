package foes

import (
	"context"
	"encoding/json"

	redis "github.com/redis/go-redis/v9"

	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	redisclient "github.com/mathquest/battle-api/internal/redis"
)

const foeKeyPrefix = "foe:"

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis foe repository.
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig.
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a new Redis-backed foe repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Foe == nil {
		return nil, errors.InvalidArgument("foe cannot be nil")
	}
	if input.Foe.ID == "" {
		return nil, errors.InvalidArgument("foe ID cannot be empty")
	}

	data, err := json.Marshal(input.Foe)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal foe")
	}

	if err := r.client.Set(ctx, foeKeyPrefix+input.Foe.ID, data, 0).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to store foe")
	}

	return &PutOutput{Foe: input.Foe}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument("foe ID cannot be empty")
	}

	result, err := r.client.Get(ctx, foeKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("foe %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get foe")
	}

	var foe entities.Foe
	if err := json.Unmarshal([]byte(result), &foe); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal foe")
	}

	return &GetOutput{Foe: &foe}, nil
}
