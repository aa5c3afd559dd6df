package main

import (
	"context"

	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/orchestrators/battle"
	"github.com/mathquest/battle-api/internal/pkg/clock"
	"github.com/mathquest/battle-api/internal/pkg/idgen"
	redisclient "github.com/mathquest/battle-api/internal/redis"
	"github.com/mathquest/battle-api/internal/repositories/characters"
	"github.com/mathquest/battle-api/internal/repositories/encounters"
	"github.com/mathquest/battle-api/internal/repositories/foes"
	"github.com/mathquest/battle-api/internal/repositories/items"
	"github.com/mathquest/battle-api/internal/repositories/questions"
	"github.com/mathquest/battle-api/internal/repositories/submissions"
)

// repos bundles the Redis-backed repositories behind one connection
type repos struct {
	characters  characters.Repository
	items       items.Repository
	foes        foes.Repository
	questions   questions.Repository
	encounters  encounters.Repository
	submissions submissions.Repository
}

func buildRepos(addr string) (*repos, error) {
	client, err := redisclient.NewClient(addr, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to redis at %s", addr)
	}
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeUnavailable, "redis at "+addr+" is unreachable")
	}

	clk := clock.New()

	characterRepo, err := characters.NewRedis(&characters.RedisConfig{Client: client, Clock: clk})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create character repository")
	}
	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: client})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create item repository")
	}
	foeRepo, err := foes.NewRedis(&foes.RedisConfig{Client: client})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create foe repository")
	}
	questionRepo, err := questions.NewRedis(&questions.RedisConfig{Client: client})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create question repository")
	}
	encounterRepo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create encounter repository")
	}
	submissionRepo, err := submissions.NewRedis(&submissions.RedisConfig{Client: client, Clock: clk})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create submission repository")
	}

	return &repos{
		characters:  characterRepo,
		items:       itemRepo,
		foes:        foeRepo,
		questions:   questionRepo,
		encounters:  encounterRepo,
		submissions: submissionRepo,
	}, nil
}

func buildService(r *repos) (battle.Service, error) {
	return battle.NewOrchestrator(&battle.Config{
		CharacterRepo:  r.characters,
		ItemRepo:       r.items,
		FoeRepo:        r.foes,
		QuestionRepo:   r.questions,
		EncounterRepo:  r.encounters,
		SubmissionRepo: r.submissions,
		IDGenerator:    idgen.NewUUID(""),
		Clock:          clock.New(),
	})
}
