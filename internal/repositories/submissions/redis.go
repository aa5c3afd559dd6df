package submissions

import (
	"context"
	"encoding/json"

	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/pkg/clock"
	redisclient "github.com/mathquest/battle-api/internal/redis"
)

const ownerHistoryPrefix = "submissions:owner:"

type redisRepository struct {
	client redisclient.Client
	clock  clock.Clock
}

// RedisConfig contains configuration for the Redis submission repository.
type RedisConfig struct {
	Client redisclient.Client
	Clock  clock.Clock
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

// NewRedis creates a new Redis-backed submission repository
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}

	return &redisRepository{
		client: cfg.Client,
		clock:  c,
	}, nil
}

func (r *redisRepository) Record(ctx context.Context, input RecordInput) (*RecordOutput, error) {
	if input.Submission == nil {
		return nil, errors.InvalidArgument("submission cannot be nil")
	}
	if input.Submission.OwnerID == "" {
		return nil, errors.InvalidArgument("owner ID cannot be empty")
	}
	if input.Submission.QuestionID == "" {
		return nil, errors.InvalidArgument("question ID cannot be empty")
	}

	if input.Submission.CreatedAt.IsZero() {
		input.Submission.CreatedAt = r.clock.Now()
	}

	data, err := json.Marshal(input.Submission)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal submission")
	}

	key := ownerHistoryPrefix + input.Submission.OwnerID
	if err := r.client.RPush(ctx, key, data).Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to record submission")
	}

	return &RecordOutput{Submission: input.Submission}, nil
}

func (r *redisRepository) ListByOwner(ctx context.Context, input ListByOwnerInput) (*ListByOwnerOutput, error) {
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument("owner ID cannot be empty")
	}

	key := ownerHistoryPrefix + input.OwnerID
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list submissions")
	}

	subs := make([]*Submission, 0, len(raw))
	for _, item := range raw {
		var sub Submission
		if err := json.Unmarshal([]byte(item), &sub); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal submission")
		}
		subs = append(subs, &sub)
	}

	return &ListByOwnerOutput{Submissions: subs}, nil
}
