package items

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	redisclient "github.com/mathquest/battle-api/internal/redis"
)

const (
	itemKeyPrefix = "item:"
	itemIndexKey  = "items"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis item repository.
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

// NewRedis creates a new Redis-backed item repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Definition == nil {
		return nil, errors.InvalidArgument("definition cannot be nil")
	}
	if input.Definition.ID == "" {
		return nil, errors.InvalidArgument("definition ID cannot be empty")
	}

	data, err := json.Marshal(input.Definition)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal item definition")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, itemKeyPrefix+input.Definition.ID, data, 0)
	pipe.SAdd(ctx, itemIndexKey, input.Definition.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store item definition")
	}

	return &PutOutput{Definition: input.Definition}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument("item ID cannot be empty")
	}

	result, err := r.client.Get(ctx, itemKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("item %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get item")
	}

	var def entities.ItemDefinition
	if err := json.Unmarshal([]byte(result), &def); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal item definition")
	}

	return &GetOutput{Definition: &def}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, itemIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list item IDs")
	}

	defs := make([]*entities.ItemDefinition, 0, len(ids))
	for _, id := range ids {
		out, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "item missing for indexed ID, cleaning up index",
					"item_id", id)
				r.client.SRem(ctx, itemIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get item %s", id)
		}
		defs = append(defs, out.Definition)
	}

	return &ListOutput{Definitions: defs}, nil
}
