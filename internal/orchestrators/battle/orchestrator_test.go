package battle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/mathquest/battle-api/internal/engine/turntimer"
	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/orchestrators/battle"
	"github.com/mathquest/battle-api/internal/pkg/clock"
	"github.com/mathquest/battle-api/internal/pkg/idgen"
	"github.com/mathquest/battle-api/internal/repositories/characters"
	charactersmock "github.com/mathquest/battle-api/internal/repositories/characters/mock"
	"github.com/mathquest/battle-api/internal/repositories/encounters"
	"github.com/mathquest/battle-api/internal/repositories/foes"
	"github.com/mathquest/battle-api/internal/repositories/items"
	"github.com/mathquest/battle-api/internal/repositories/questions"
	"github.com/mathquest/battle-api/internal/repositories/submissions"
	"github.com/mathquest/battle-api/internal/testutils"
)

// Fixture math, all derived from starter values plus the seeded gear:
//
//	player damage = ceil((1+2)*1) = 3, minus goblin defense 1 -> 2 per hit
//	incoming      = ceil(max(0, 4-2)*1) = 2 per wrong answer
//	effective max = 20 + 5 (tunic) = 25
const (
	hitDamage      = 2
	incomingDamage = 2
	effectiveMax   = 25
)

type BattleOrchestratorTestSuite struct {
	suite.Suite
	svc   battle.Service
	timer *turntimer.Manual

	characterRepo  characters.Repository
	itemRepo       items.Repository
	foeRepo        foes.Repository
	questionRepo   questions.Repository
	encounterRepo  encounters.Repository
	submissionRepo submissions.Repository

	cleanup func()
	ctx     context.Context
}

func (s *BattleOrchestratorTestSuite) SetupTest() {
	client, cleanup := testutils.CreateTestRedisClient(s.T())
	s.cleanup = cleanup
	s.ctx = context.Background()

	fixed := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	characterRepo, err := characters.NewRedis(&characters.RedisConfig{Client: client, Clock: fixed})
	s.Require().NoError(err)
	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: client})
	s.Require().NoError(err)
	foeRepo, err := foes.NewRedis(&foes.RedisConfig{Client: client})
	s.Require().NoError(err)
	questionRepo, err := questions.NewRedis(&questions.RedisConfig{Client: client})
	s.Require().NoError(err)
	encounterRepo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	s.Require().NoError(err)
	submissionRepo, err := submissions.NewRedis(&submissions.RedisConfig{Client: client, Clock: fixed})
	s.Require().NoError(err)

	s.characterRepo = characterRepo
	s.itemRepo = itemRepo
	s.foeRepo = foeRepo
	s.questionRepo = questionRepo
	s.encounterRepo = encounterRepo
	s.submissionRepo = submissionRepo

	s.seedContent(itemRepo, foeRepo, questionRepo, encounterRepo)
	s.seedCharacter(0)

	s.timer = turntimer.NewManual()

	svc, err := battle.NewOrchestrator(&battle.Config{
		CharacterRepo:  characterRepo,
		ItemRepo:       itemRepo,
		FoeRepo:        foeRepo,
		QuestionRepo:   questionRepo,
		EncounterRepo:  encounterRepo,
		SubmissionRepo: submissionRepo,
		IDGenerator:    idgen.NewSequential("test"),
		Clock:          fixed,
		Timers:         func() turntimer.Timer { return s.timer },
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *BattleOrchestratorTestSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func TestBattleOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(BattleOrchestratorTestSuite))
}

func (s *BattleOrchestratorTestSuite) seedContent(
	itemRepo items.Repository,
	foeRepo foes.Repository,
	questionRepo questions.Repository,
	encounterRepo encounters.Repository,
) {
	defs := []*entities.ItemDefinition{
		{
			ID:       "iron-sword",
			Name:     "Iron Sword",
			Category: entities.ItemCategoryWeapon,
			Stats: entities.ItemStats{
				Damage: entities.StatModifier{Flat: 2},
			},
			MaxDurability: 3,
		},
		{
			ID:       "leather-tunic",
			Name:     "Leather Tunic",
			Category: entities.ItemCategoryArmor,
			Stats: entities.ItemStats{
				Defense: entities.StatModifier{Flat: 2},
				MaxHP:   entities.StatModifier{Flat: 5},
			},
			MaxDurability: 4,
		},
		{
			ID:       "hourglass-blade",
			Name:     "Hourglass Blade",
			Category: entities.ItemCategoryWeapon,
			Stats: entities.ItemStats{
				Damage:     entities.StatModifier{Flat: 2},
				TimeFactor: 1.5,
			},
			MaxDurability: 3,
		},
	}
	for _, def := range defs {
		s.Require().NoError(def.Normalize())
		_, err := itemRepo.Put(s.ctx, items.PutInput{Definition: def})
		s.Require().NoError(err)
	}

	_, err := foeRepo.Put(s.ctx, foes.PutInput{Foe: &entities.Foe{
		ID:           "goblin",
		Name:         "Goblin",
		MaxHP:        4,
		AttackDamage: 4,
		Defense:      1,
	}})
	s.Require().NoError(err)

	for i := 1; i <= 4; i++ {
		order := i
		q := &entities.Question{
			ID:           "q" + string(rune('0'+i)),
			PromptText:   "2 + 2 = ?",
			Choices:      []string{"3", "4", "5"},
			CorrectIndex: 1,
			Tags:         []string{"arith"},
			Order:        &order,
		}
		s.Require().NoError(q.Normalize())
		_, err := questionRepo.Put(s.ctx, questions.PutInput{Question: q})
		s.Require().NoError(err)
	}

	enc := &entities.EncounterDefinition{
		ID:            "goblin-cave",
		Title:         "Goblin Cave",
		FoeIDs:        []string{"goblin"},
		QuestionTags:  []string{"arith"},
		WinRewardXP:   150,
		WinRewardGold: 5,
		WinItemDrops:  []string{"iron-sword"},
	}
	s.Require().NoError(enc.Normalize())
	_, err = encounterRepo.Put(s.ctx, encounters.PutInput{Encounter: enc})
	s.Require().NoError(err)
}

// seedCharacter creates owner-1 with a sword and tunic equipped. A
// non-zero hp overrides the starting hit points to simulate a carried
// injury.
func (s *BattleOrchestratorTestSuite) seedCharacter(hp int) {
	now := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	c := entities.NewStarter("owner-1", "Tess", now)
	c.Inventory = []entities.InventoryItem{
		{ItemID: "iron-sword", InstanceID: "inst-sword", ObtainedAt: now, Durability: 3, MaxDurability: 3},
		{ItemID: "leather-tunic", InstanceID: "inst-tunic", ObtainedAt: now, Durability: 4, MaxDurability: 4},
	}
	c.Equipment = entities.Equipment{
		entities.SlotMainHand: "inst-sword",
		entities.SlotArmor:    "inst-tunic",
	}
	// Starter HP is 20; top up to the gear-boosted max so the damage
	// math in the tests starts from a full bar
	c.HP = effectiveMax
	if hp != 0 {
		c.HP = hp
	}
	_, err := s.characterRepo.Create(s.ctx, characters.CreateInput{Character: c})
	s.Require().NoError(err)
}

func (s *BattleOrchestratorTestSuite) start() *battle.Snapshot {
	out, err := s.svc.StartEncounter(s.ctx, &battle.StartEncounterInput{
		OwnerID:     "owner-1",
		EncounterID: "goblin-cave",
	})
	s.Require().NoError(err)
	return out.State
}

func (s *BattleOrchestratorTestSuite) begin() *battle.Snapshot {
	s.start()
	out, err := s.svc.BeginBattle(s.ctx, &battle.BeginBattleInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	return out.State
}

func (s *BattleOrchestratorTestSuite) answer(choice int) *battle.SubmitAnswerOutput {
	out, err := s.svc.SubmitAnswer(s.ctx, &battle.SubmitAnswerInput{
		OwnerID:     "owner-1",
		ChoiceIndex: choice,
	})
	s.Require().NoError(err)
	return out
}

func (s *BattleOrchestratorTestSuite) TestStartEncounter() {
	state := s.start()

	s.Equal(battle.PhaseIntro, state.Phase)
	s.Equal("Goblin Cave", state.Title)
	s.Equal("Goblin", state.FoeName)
	s.Equal(4, state.FoeHP)
	s.Equal(4, state.FoeMaxHP)
	s.Equal(effectiveMax, state.PlayerHP)
	s.Equal(effectiveMax, state.PlayerMaxHP)
	s.Equal(0, state.TurnIndex)
	s.Equal(4, state.TurnCount)
	s.Require().NotNil(state.Question)
	s.Equal("q1", state.Question.ID, "unshuffled pool follows explicit order")
	s.False(s.timer.Armed(), "timer must not run during the intro")
}

func (s *BattleOrchestratorTestSuite) TestStartEncounterCarriesInjury() {
	s.seedLowHPCharacter(7)

	state := s.start()
	s.Equal(7, state.PlayerHP)
}

func (s *BattleOrchestratorTestSuite) TestStartEncounterUnknownEncounter() {
	_, err := s.svc.StartEncounter(s.ctx, &battle.StartEncounterInput{
		OwnerID:     "owner-1",
		EncounterID: "nope",
	})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *BattleOrchestratorTestSuite) TestBeginBattleArmsTimer() {
	state := s.begin()

	s.Equal(battle.PhaseBattle, state.Phase)
	s.True(s.timer.Armed())
	s.Equal(20*time.Second, s.timer.Duration())
	s.InDelta(20.0, state.TimerSeconds, 0.001)
}

func (s *BattleOrchestratorTestSuite) TestBeginBattleTwice() {
	s.begin()
	_, err := s.svc.BeginBattle(s.ctx, &battle.BeginBattleInput{OwnerID: "owner-1"})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *BattleOrchestratorTestSuite) TestCorrectAnswer() {
	s.begin()

	out := s.answer(1)

	s.True(out.Correct)
	s.Equal(battle.PhaseBattle, out.State.Phase)
	s.Equal(4-hitDamage, out.State.FoeHP)
	s.Equal(effectiveMax, out.State.PlayerHP)
	s.Equal(1, out.State.TurnIndex)
	s.Equal("q2", out.State.Question.ID)
	s.True(s.timer.Armed(), "next question re-arms the timer")

	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	sword := charOut.Character.FindItem("inst-sword")
	s.Require().NotNil(sword)
	s.Equal(2, sword.Durability, "weapon wears down on a landed hit")
}

func (s *BattleOrchestratorTestSuite) TestWrongAnswerPauses() {
	s.begin()

	out := s.answer(0)

	s.False(out.Correct)
	s.Equal(battle.PhasePaused, out.State.Phase)
	s.Equal(effectiveMax-incomingDamage, out.State.PlayerHP)
	s.Equal(4, out.State.FoeHP)
	s.Equal(0, out.State.TurnIndex, "turn does not advance until acknowledged")
	s.False(s.timer.Armed(), "pause stops the clock")

	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	tunic := charOut.Character.FindItem("inst-tunic")
	s.Require().NotNil(tunic)
	s.Equal(3, tunic.Durability, "armor wears down when the foe connects")
}

func (s *BattleOrchestratorTestSuite) TestSubmitWhilePaused() {
	s.begin()
	s.answer(0)

	_, err := s.svc.SubmitAnswer(s.ctx, &battle.SubmitAnswerInput{OwnerID: "owner-1", ChoiceIndex: 1})
	s.Require().Error(err)
	s.True(errors.IsFailedPrecondition(err))
}

func (s *BattleOrchestratorTestSuite) TestAcknowledgeResumes() {
	s.begin()
	s.answer(0)

	out, err := s.svc.AcknowledgeTurn(s.ctx, &battle.AcknowledgeTurnInput{OwnerID: "owner-1"})
	s.Require().NoError(err)

	s.Equal(battle.PhaseBattle, out.State.Phase)
	s.Equal(1, out.State.TurnIndex)
	s.Equal("q2", out.State.Question.ID)
	s.True(s.timer.Armed())
}

func (s *BattleOrchestratorTestSuite) TestTimeoutPauses() {
	s.begin()

	s.timer.Fire()

	out, err := s.svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(battle.PhasePaused, out.State.Phase)
	s.Equal(effectiveMax-incomingDamage, out.State.PlayerHP)

	subs, err := s.submissionRepo.ListByOwner(s.ctx, submissions.ListByOwnerInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Require().Len(subs.Submissions, 1)
	s.Nil(subs.Submissions[0].SelectedIndex)
	s.False(subs.Submissions[0].Correct)
}

func (s *BattleOrchestratorTestSuite) TestStaleFireAfterAnswer() {
	s.begin()
	s.answer(1)

	// The answer cancelled the first countdown; firing the re-armed
	// timer now resolves q2, not a replay of q1
	s.timer.Fire()

	out, err := s.svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(battle.PhasePaused, out.State.Phase)
	s.Equal(1, out.State.TurnIndex)
}

func (s *BattleOrchestratorTestSuite) TestSkipAdvancesWithoutPause() {
	s.begin()

	out, err := s.svc.SkipQuestion(s.ctx, &battle.SkipQuestionInput{OwnerID: "owner-1"})
	s.Require().NoError(err)

	s.Equal(battle.PhaseBattle, out.State.Phase)
	s.Equal(effectiveMax-incomingDamage, out.State.PlayerHP)
	s.Equal(1, out.State.TurnIndex)
	s.True(s.timer.Armed())
}

func (s *BattleOrchestratorTestSuite) TestWinPaysRewards() {
	s.begin()

	s.answer(1)
	out := s.answer(1)

	s.Equal(battle.PhaseWon, out.State.Phase)
	s.Equal(0, out.State.FoeHP)
	s.Nil(out.State.Question)
	s.False(s.timer.Armed())

	s.Require().NotNil(out.State.Reward)
	s.Equal(150, out.State.Reward.XPAwarded)
	s.Equal(1, out.State.Reward.LevelsGained)
	s.Require().Len(out.State.Reward.Drops, 1)
	s.Equal("iron-sword", out.State.Reward.Drops[0].ItemID)

	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	c := charOut.Character
	s.Equal(2, c.Level)
	s.Equal(50, c.XP, "threshold 100 spent out of 150")
	s.Equal(15, c.Gold)
	s.Equal(25, c.BaseMaxHP)
	s.Len(c.Inventory, 3, "drop joined the two starting items")
	s.Equal(effectiveMax+5, out.State.PlayerHP, "level-up heal lands on top of battle HP")
}

func (s *BattleOrchestratorTestSuite) TestLossByDefeat() {
	s.seedLowHPCharacter(2)
	s.begin()

	out := s.answer(0)

	s.Equal(battle.PhaseLost, out.State.Phase)
	s.Equal(battle.LossReasonDefeated, out.State.LossReason)
	s.Equal(0, out.State.PlayerHP, "display keeps the knockout at zero")
	s.Equal(2, out.State.GoldPenalty, "ceil of 20% of 10 gold")
	s.False(s.timer.Armed())

	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(8, charOut.Character.Gold)
	s.Equal(effectiveMax, charOut.Character.HP, "record respawns at full")
}

func (s *BattleOrchestratorTestSuite) TestLossByTurnExhaustion() {
	s.begin()

	for i := 0; i < 4; i++ {
		_, err := s.svc.SkipQuestion(s.ctx, &battle.SkipQuestionInput{OwnerID: "owner-1"})
		s.Require().NoError(err)
	}

	out, err := s.svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(battle.PhaseLost, out.State.Phase)
	s.Equal(battle.LossReasonOutOfTurns, out.State.LossReason)
	s.Equal(2, out.State.GoldPenalty)
}

func (s *BattleOrchestratorTestSuite) TestEscapeKeepsInjury() {
	s.begin()
	s.answer(0)

	out, err := s.svc.Escape(s.ctx, &battle.EscapeInput{OwnerID: "owner-1"})
	s.Require().NoError(err)

	s.Equal(battle.PhaseEscaped, out.State.Phase)
	s.Equal(0, out.State.GoldPenalty)
	s.False(s.timer.Armed())

	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(effectiveMax-incomingDamage, charOut.Character.HP)
	s.Equal(10, charOut.Character.Gold, "no penalty for fleeing")
}

func (s *BattleOrchestratorTestSuite) TestTimerBonusWearsWeapon() {
	charOut, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	c := charOut.Character
	now := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	c.Inventory = append(c.Inventory, entities.InventoryItem{
		ItemID: "hourglass-blade", InstanceID: "inst-blade", ObtainedAt: now, Durability: 3, MaxDurability: 3,
	})
	c.Equipment[entities.SlotMainHand] = "inst-blade"
	_, err = s.characterRepo.Update(s.ctx, characters.UpdateInput{Character: c})
	s.Require().NoError(err)

	state := s.begin()

	s.InDelta(30.0, state.TimerSeconds, 0.001, "1.5x item bonus on the 20s base")
	s.Equal(30*time.Second, s.timer.Duration())

	charOut, err = s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	blade := charOut.Character.FindItem("inst-blade")
	s.Require().NotNil(blade)
	s.Equal(2, blade.Durability, "using the time bonus costs durability")
}

func (s *BattleOrchestratorTestSuite) TestSubmitInvalidChoice() {
	s.begin()

	_, err := s.svc.SubmitAnswer(s.ctx, &battle.SubmitAnswerInput{OwnerID: "owner-1", ChoiceIndex: 9})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))
}

func (s *BattleOrchestratorTestSuite) TestAbandonDiscardsSession() {
	s.begin()

	_, err := s.svc.Abandon(s.ctx, &battle.AbandonInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.False(s.timer.Armed())

	_, err = s.svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *BattleOrchestratorTestSuite) TestGetStateWithoutSession() {
	_, err := s.svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().Error(err)
	s.True(errors.IsNotFound(err))
}

func (s *BattleOrchestratorTestSuite) TestSubmissionHistoryAcrossRun() {
	s.begin()
	s.answer(1)
	s.answer(0)

	subs, err := s.submissionRepo.ListByOwner(s.ctx, submissions.ListByOwnerInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Require().Len(subs.Submissions, 2)
	s.True(subs.Submissions[0].Correct)
	s.False(subs.Submissions[1].Correct)
	s.Require().NotNil(subs.Submissions[1].SelectedIndex)
	s.Equal(0, *subs.Submissions[1].SelectedIndex)
}

// seedLowHPCharacter rewrites owner-1's record with the given current
// HP before a battle starts
func (s *BattleOrchestratorTestSuite) seedLowHPCharacter(hp int) {
	out, err := s.characterRepo.Get(s.ctx, characters.GetInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	out.Character.HP = hp
	_, err = s.characterRepo.Update(s.ctx, characters.UpdateInput{Character: out.Character})
	s.Require().NoError(err)
}

// replayTimer keeps every armed callback alive so a test can invoke
// one the orchestrator already cancelled. This reproduces the wall
// timer interleaving where an expiry passes the timer's own staleness
// check and only then blocks on the orchestrator lock.
type replayTimer struct {
	fires []func()
}

func (t *replayTimer) Arm(d time.Duration, fire func()) {
	t.fires = append(t.fires, fire)
}

func (t *replayTimer) Cancel() {}

func (s *BattleOrchestratorTestSuite) TestLateTimeoutAfterAnswerIsDropped() {
	rt := &replayTimer{}
	fixed := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, err := battle.NewOrchestrator(&battle.Config{
		CharacterRepo:  s.characterRepo,
		ItemRepo:       s.itemRepo,
		FoeRepo:        s.foeRepo,
		QuestionRepo:   s.questionRepo,
		EncounterRepo:  s.encounterRepo,
		SubmissionRepo: s.submissionRepo,
		IDGenerator:    idgen.NewSequential("test"),
		Clock:          fixed,
		Timers:         func() turntimer.Timer { return rt },
	})
	s.Require().NoError(err)

	_, err = svc.StartEncounter(s.ctx, &battle.StartEncounterInput{OwnerID: "owner-1", EncounterID: "goblin-cave"})
	s.Require().NoError(err)
	_, err = svc.BeginBattle(s.ctx, &battle.BeginBattleInput{OwnerID: "owner-1"})
	s.Require().NoError(err)

	answered, err := svc.SubmitAnswer(s.ctx, &battle.SubmitAnswerInput{OwnerID: "owner-1", ChoiceIndex: 1})
	s.Require().NoError(err)
	s.Require().True(answered.Correct)
	s.Require().Len(rt.fires, 2, "first question plus the re-arm for the second")

	// Replay the first question's expiry, cancelled by the answer
	rt.fires[0]()

	out, err := svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(battle.PhaseBattle, out.State.Phase, "stale expiry must not pause the next question")
	s.Equal(1, out.State.TurnIndex)
	s.Equal(effectiveMax, out.State.PlayerHP, "stale expiry must not deal timeout damage")

	// The live countdown for the second question still works
	rt.fires[1]()
	out, err = svc.GetState(s.ctx, &battle.GetStateInput{OwnerID: "owner-1"})
	s.Require().NoError(err)
	s.Equal(battle.PhasePaused, out.State.Phase)
	s.Equal(effectiveMax-incomingDamage, out.State.PlayerHP)
}

func TestNewOrchestratorValidatesConfig(t *testing.T) {
	_, err := battle.NewOrchestrator(&battle.Config{})
	if err == nil {
		t.Fatal("expected config validation error")
	}
}

// TestPersistFailureKeepsBattleRunning drives the orchestrator with a
// character repository whose writes fail: the turn still resolves and
// the player sees a warning instead of an aborted battle.
func TestPersistFailureKeepsBattleRunning(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client, cleanup := testutils.CreateTestRedisClient(t)
	defer cleanup()

	ctx := context.Background()
	fixed := clock.NewFixed(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	itemRepo, err := items.NewRedis(&items.RedisConfig{Client: client})
	if err != nil {
		t.Fatal(err)
	}
	foeRepo, err := foes.NewRedis(&foes.RedisConfig{Client: client})
	if err != nil {
		t.Fatal(err)
	}
	questionRepo, err := questions.NewRedis(&questions.RedisConfig{Client: client})
	if err != nil {
		t.Fatal(err)
	}
	encounterRepo, err := encounters.NewRedis(&encounters.RedisConfig{Client: client})
	if err != nil {
		t.Fatal(err)
	}
	submissionRepo, err := submissions.NewRedis(&submissions.RedisConfig{Client: client, Clock: fixed})
	if err != nil {
		t.Fatal(err)
	}

	foe := &entities.Foe{ID: "goblin", Name: "Goblin", MaxHP: 10, AttackDamage: 3}
	if _, err := foeRepo.Put(ctx, foes.PutInput{Foe: foe}); err != nil {
		t.Fatal(err)
	}
	q := &entities.Question{
		ID: "q1", PromptText: "1 + 1 = ?",
		Choices: []string{"2", "3"}, CorrectIndex: 0,
		Tags: []string{"arith"},
	}
	if err := q.Normalize(); err != nil {
		t.Fatal(err)
	}
	if _, err := questionRepo.Put(ctx, questions.PutInput{Question: q}); err != nil {
		t.Fatal(err)
	}
	enc := &entities.EncounterDefinition{
		ID: "cave", Title: "Cave",
		FoeIDs: []string{"goblin"}, QuestionTags: []string{"arith"},
	}
	if err := enc.Normalize(); err != nil {
		t.Fatal(err)
	}
	if _, err := encounterRepo.Put(ctx, encounters.PutInput{Encounter: enc}); err != nil {
		t.Fatal(err)
	}

	character := entities.NewStarter("owner-1", "Tess", fixed.Now())
	mockRepo := charactersmock.NewMockRepository(ctrl)
	mockRepo.EXPECT().
		Get(gomock.Any(), characters.GetInput{OwnerID: "owner-1"}).
		Return(&characters.GetOutput{Character: character}, nil)
	mockRepo.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		Return(nil, errors.Internal("redis down")).
		AnyTimes()

	timer := turntimer.NewManual()
	svc, err := battle.NewOrchestrator(&battle.Config{
		CharacterRepo:  mockRepo,
		ItemRepo:       itemRepo,
		FoeRepo:        foeRepo,
		QuestionRepo:   questionRepo,
		EncounterRepo:  encounterRepo,
		SubmissionRepo: submissionRepo,
		IDGenerator:    idgen.NewSequential("test"),
		Clock:          fixed,
		Timers:         func() turntimer.Timer { return timer },
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.StartEncounter(ctx, &battle.StartEncounterInput{OwnerID: "owner-1", EncounterID: "cave"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.BeginBattle(ctx, &battle.BeginBattleInput{OwnerID: "owner-1"}); err != nil {
		t.Fatal(err)
	}

	out, err := svc.SubmitAnswer(ctx, &battle.SubmitAnswerInput{OwnerID: "owner-1", ChoiceIndex: 0})
	if err != nil {
		t.Fatalf("turn should resolve despite the failed save: %v", err)
	}
	if !out.Correct {
		t.Error("expected a correct answer")
	}
	if out.State.Phase != battle.PhaseBattle && out.State.Phase != battle.PhaseLost {
		t.Errorf("unexpected phase %s", out.State.Phase)
	}
	if out.State.Message != "Warning: progress could not be saved." {
		t.Errorf("expected save warning, got %q", out.State.Message)
	}
}
