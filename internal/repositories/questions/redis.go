package questions

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
	questionKeyPrefix = "question:"
	tagIndexPrefix    = "question:tag:"
)

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis question repository.
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

// NewRedis creates a new Redis-backed question repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Put(ctx context.Context, input PutInput) (*PutOutput, error) {
	if input.Question == nil {
		return nil, errors.InvalidArgument("question cannot be nil")
	}
	if input.Question.ID == "" {
		return nil, errors.InvalidArgument("question ID cannot be empty")
	}

	key := questionKeyPrefix + input.Question.ID

	// Drop stale tag index entries when a question's tags change
	var oldTags []string
	if existing, err := r.client.Get(ctx, key).Result(); err == nil {
		var old entities.Question
		if err := json.Unmarshal([]byte(existing), &old); err == nil {
			oldTags = old.Tags
		}
	} else if err != redis.Nil {
		return nil, errors.Wrapf(err, "failed to check existing question")
	}

	data, err := json.Marshal(input.Question)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal question")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, data, 0)
	for _, tag := range oldTags {
		if !input.Question.HasTag(tag) {
			pipe.SRem(ctx, tagIndexPrefix+tag, input.Question.ID)
		}
	}
	for _, tag := range input.Question.Tags {
		pipe.SAdd(ctx, tagIndexPrefix+tag, input.Question.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to store question")
	}

	return &PutOutput{Question: input.Question}, nil
}

func (r *redisRepository) Get(ctx context.Context, input GetInput) (*GetOutput, error) {
	if input.ID == "" {
		return nil, errors.InvalidArgument("question ID cannot be empty")
	}

	result, err := r.client.Get(ctx, questionKeyPrefix+input.ID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("question %s not found", input.ID)
		}
		return nil, errors.Wrapf(err, "failed to get question")
	}

	var question entities.Question
	if err := json.Unmarshal([]byte(result), &question); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal question")
	}

	return &GetOutput{Question: &question}, nil
}

func (r *redisRepository) ListByAnyTag(ctx context.Context, input ListByAnyTagInput) (*ListByAnyTagOutput, error) {
	if len(input.Tags) == 0 {
		return nil, errors.InvalidArgument("at least one tag is required")
	}

	indexKeys := make([]string, len(input.Tags))
	for i, tag := range input.Tags {
		indexKeys[i] = tagIndexPrefix + tag
	}

	ids, err := r.client.SUnion(ctx, indexKeys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to union tag indexes")
	}

	slog.DebugContext(ctx, "resolved question pool from tag indexes",
		"tags", input.Tags,
		"count", len(ids))

	questions := make([]*entities.Question, 0, len(ids))
	for _, id := range ids {
		out, err := r.Get(ctx, GetInput{ID: id})
		if err != nil {
			if errors.IsNotFound(err) {
				slog.WarnContext(ctx, "question missing for indexed ID, cleaning up indexes",
					"question_id", id,
					"tags", input.Tags)
				for _, key := range indexKeys {
					r.client.SRem(ctx, key, id)
				}
				continue
			}
			return nil, errors.Wrapf(err, "failed to get question %s", id)
		}
		questions = append(questions, out.Question)
	}

	return &ListByAnyTagOutput{Questions: questions}, nil
}
