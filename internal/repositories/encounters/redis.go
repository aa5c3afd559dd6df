package encounters

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
	encounterKeyPrefix = "encounter:"
	encounterIndexKey  = "encounters"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis encounter repository.
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

// NewRedis creates a new Redis-backed encounter repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Encounter == nil {
		return nil, errors.InvalidArgument("encounter cannot be nil")
	}
	if input.Encounter.ID == "" {
		return nil, errors.InvalidArgument("encounter ID cannot be empty")
	}

	data, err := json.Marshal(input.Encounter)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal encounter")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, encounterKeyPrefix+input.Encounter.ID, data, 0)
	pipe.SAdd(ctx, encounterIndexKey, input.Encounter.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store encounter")
	}

	return &PutOutput{Encounter: input.Encounter}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument("encounter ID cannot be empty")
	}

	result, err := r.client.Get(ctx, encounterKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("encounter %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get encounter")
	}

	var enc entities.EncounterDefinition
	if err := json.Unmarshal([]byte(result), &enc); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal encounter")
	}

	return &GetOutput{Encounter: &enc}, nil
}

func (r *redisRepository) List(ctx context.Context, _ ListInput) (*ListOutput, error) {
	ids, err := r.client.SMembers(ctx, encounterIndexKey).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list encounter IDs")
	}

	encs := make([]*entities.EncounterDefinition, 0, len(ids))
	for _, id := range ids {
		out, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "encounter missing for indexed ID, cleaning up index",
					"encounter_id", id)
				r.client.SRem(ctx, encounterIndexKey, id)
				continue
			}
			return nil, errors.Wrapf(err, "failed to get encounter %s", id)
		}
		encs = append(encs, out.Encounter)
	}

	return &ListOutput{Encounters: encs}, nil
}
