// Package battle implements the encounter state machine: the timed
// turn loop where answering questions deals damage, wrong answers and
// timeouts hurt the player, and victory pays out rewards.
package battle

//go:generate mockgen -destination=mock/mock_service.go -package=battlemock github.com/mathquest/battle-api/internal/orchestrators/battle Service

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/mathquest/battle-api/internal/engine/durability"
	"github.com/mathquest/battle-api/internal/engine/progression"
	"github.com/mathquest/battle-api/internal/engine/stats"
	"github.com/mathquest/battle-api/internal/engine/turntimer"
	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/errors"
	"github.com/mathquest/battle-api/internal/pkg/clock"
	"github.com/mathquest/battle-api/internal/pkg/idgen"
	"github.com/mathquest/battle-api/internal/repositories/characters"
	"github.com/mathquest/battle-api/internal/repositories/encounters"
	"github.com/mathquest/battle-api/internal/repositories/foes"
	"github.com/mathquest/battle-api/internal/repositories/items"
	"github.com/mathquest/battle-api/internal/repositories/questions"
	"github.com/mathquest/battle-api/internal/repositories/submissions"
)

// GoldPenaltyRate is the share of current gold lost on defeat,
// rounded up
const GoldPenaltyRate = 0.2

// Service defines the interface for battle operations
type Service interface {
	// ListEncounters returns the encounters available in the lobby
	ListEncounters(ctx context.Context, input *ListEncountersInput) (*ListEncountersOutput, error)

	// StartEncounter loads an encounter's foe and question pool and
	// opens a session in the intro phase. Missing foes or an empty
	// question pool abort the start; the player stays in the lobby.
	StartEncounter(ctx context.Context, input *StartEncounterInput) (*StartEncounterOutput, error)

	// BeginBattle confirms readiness and arms the first question's
	// timer
	BeginBattle(ctx context.Context, input *BeginBattleInput) (*BeginBattleOutput, error)

	// SubmitAnswer resolves the current turn with a choice
	SubmitAnswer(ctx context.Context, input *SubmitAnswerInput) (*SubmitAnswerOutput, error)

	// SkipQuestion forfeits the current turn, taking foe damage
	SkipQuestion(ctx context.Context, input *SkipQuestionInput) (*SkipQuestionOutput, error)

	// AcknowledgeTurn resumes after a wrong answer or timeout pause
	AcknowledgeTurn(ctx context.Context, input *AcknowledgeTurnInput) (*AcknowledgeTurnOutput, error)

	// Escape flees mid-battle, keeping current HP and paying no gold
	Escape(ctx context.Context, input *EscapeInput) (*EscapeOutput, error)

	// GetState returns a snapshot of the session
	GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error)

	// Abandon discards the session, cancelling any pending timer
	Abandon(ctx context.Context, input *AbandonInput) (*AbandonOutput, error)
}

// Config holds the dependencies for the battle orchestrator
type Config struct {
	CharacterRepo  characters.Repository
	ItemRepo       items.Repository
	FoeRepo        foes.Repository
	QuestionRepo   questions.Repository
	EncounterRepo  encounters.Repository
	SubmissionRepo submissions.Repository

	IDGenerator idgen.Generator
	Clock       clock.Clock

	// Timers creates the per-session countdown; defaults to wall
	// clock timers
	Timers turntimer.Factory

	// Rand drives question shuffling; defaults to a time-seeded source
	Rand *rand.Rand
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.CharacterRepo == nil {
		vb.RequiredField("CharacterRepo")
	}
	if c.ItemRepo == nil {
		vb.RequiredField("ItemRepo")
	}
	if c.FoeRepo == nil {
		vb.RequiredField("FoeRepo")
	}
	if c.QuestionRepo == nil {
		vb.RequiredField("QuestionRepo")
	}
	if c.EncounterRepo == nil {
		vb.RequiredField("EncounterRepo")
	}
	if c.SubmissionRepo == nil {
		vb.RequiredField("SubmissionRepo")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}

	return vb.Build()
}

// session is the ephemeral state of one run, discarded when the
// player abandons or starts a fresh encounter
type session struct {
	ownerID   string
	encounter *entities.EncounterDefinition
	foe       *entities.Foe
	questions []*entities.Question
	defs      map[string]entities.ItemDefinition

	// character is the in-memory working copy; its record is saved
	// after every resolved action
	character *entities.Character

	idx      int
	playerHP int
	foeHP    int
	phase    Phase

	timer        turntimer.Timer
	timerSeconds float64

	// armSeq is the orchestrator counter value captured by the most
	// recent Arm; an expiry callback carrying any other value is stale
	armSeq uint64

	message     string
	lossReason  LossReason
	reward      *progression.Summary
	goldPenalty int
}

type orchestrator struct {
	characterRepo  characters.Repository
	itemRepo       items.Repository
	foeRepo        foes.Repository
	questionRepo   questions.Repository
	encounterRepo  encounters.Repository
	submissionRepo submissions.Repository

	idGen  idgen.Generator
	clock  clock.Clock
	timers turntimer.Factory
	rand   *rand.Rand

	// mu serializes every transition, including timer expiry. All
	// session state is guarded by it.
	mu       sync.Mutex
	sessions map[string]*session

	// armSeq increments on every timer arm, across all sessions
	armSeq uint64
}

// NewOrchestrator creates a new battle orchestrator with the provided
// dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	timers := cfg.Timers
	if timers == nil {
		timers = turntimer.NewWallFactory()
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(c.Now().UnixNano())) // #nosec G404 // shuffle, not crypto
	}

	return &orchestrator{
		characterRepo:  cfg.CharacterRepo,
		itemRepo:       cfg.ItemRepo,
		foeRepo:        cfg.FoeRepo,
		questionRepo:   cfg.QuestionRepo,
		encounterRepo:  cfg.EncounterRepo,
		submissionRepo: cfg.SubmissionRepo,
		idGen:          cfg.IDGenerator,
		clock:          c,
		timers:         timers,
		rand:           rng,
		sessions:       make(map[string]*session),
	}, nil
}

func (o *orchestrator) ListEncounters(ctx context.Context, input *ListEncountersInput) (*ListEncountersOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out, err := o.encounterRepo.List(ctx, encounters.ListInput{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list encounters")
	}

	return &ListEncountersOutput{Encounters: out.Encounters}, nil
}

func (o *orchestrator) StartEncounter(ctx context.Context, input *StartEncounterInput) (*StartEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.OwnerID == "" {
		return nil, errors.InvalidArgument("owner ID is required")
	}
	if input.EncounterID == "" {
		return nil, errors.InvalidArgument("encounter ID is required")
	}

	encOut, err := o.encounterRepo.Get(ctx, encounters.GetInput{ID: input.EncounterID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load encounter %s", input.EncounterID)
	}
	enc := encOut.Encounter

	foeOut, err := o.foeRepo.Get(ctx, foes.GetInput{ID: enc.PrimaryFoeID()})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load foe %s", enc.PrimaryFoeID())
	}
	foe := foeOut.Foe

	poolOut, err := o.questionRepo.ListByAnyTag(ctx, questions.ListByAnyTagInput{Tags: enc.QuestionTags})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load question pool")
	}
	if len(poolOut.Questions) == 0 {
		return nil, errors.NotFoundf("no questions found for tags %v", enc.QuestionTags).
			WithMeta("encounter_id", enc.ID)
	}

	charOut, err := o.characterRepo.Get(ctx, characters.GetInput{OwnerID: input.OwnerID})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load character for owner %s", input.OwnerID)
	}
	character := charOut.Character

	defs, err := o.loadItemDefinitions(ctx)
	if err != nil {
		return nil, err
	}

	pool := o.sequenceQuestions(enc, poolOut.Questions)

	resolver := stats.NewResolver(character, defs)
	maxHP := resolver.EffectiveMaxHP()

	// A surviving injury carries into the next battle; the dead (or
	// fresh) start at full
	startHP := character.HP
	if startHP <= 0 || startHP > maxHP {
		startHP = maxHP
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	// A fresh start replaces any previous session for this owner
	if old, ok := o.sessions[input.OwnerID]; ok && old.timer != nil {
		old.timer.Cancel()
	}

	s := &session{
		ownerID:   input.OwnerID,
		encounter: enc,
		foe:       foe,
		questions: pool,
		defs:      defs,
		character: character,
		playerHP:  startHP,
		foeHP:     foe.MaxHP,
		phase:     PhaseIntro,
		timer:     o.timers(),
	}
	o.sessions[input.OwnerID] = s

	slog.InfoContext(ctx, "encounter started",
		"owner_id", input.OwnerID,
		"encounter_id", enc.ID,
		"foe_id", foe.ID,
		"questions", len(pool),
	)

	return &StartEncounterOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) BeginBattle(ctx context.Context, input *BeginBattleInput) (*BeginBattleOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.phase != PhaseIntro {
		return nil, errors.FailedPreconditionf("cannot begin battle from phase %s", s.phase)
	}

	s.phase = PhaseBattle
	s.message = ""
	o.armTimer(ctx, s)

	return &BeginBattleOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) SubmitAnswer(ctx context.Context, input *SubmitAnswerInput) (*SubmitAnswerOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.phase == PhasePaused {
		return nil, errors.FailedPrecondition("acknowledge the previous turn first")
	}
	if s.phase != PhaseBattle {
		return nil, errors.FailedPreconditionf("cannot answer in phase %s", s.phase)
	}

	q := s.questions[s.idx]
	if input.ChoiceIndex < 0 || input.ChoiceIndex >= len(q.Choices) {
		return nil, errors.InvalidArgumentf("choice index %d out of range", input.ChoiceIndex)
	}

	// Any stale timeout for this question must be dropped before the
	// turn resolves
	s.timer.Cancel()

	correct := input.ChoiceIndex == q.CorrectIndex
	choice := input.ChoiceIndex
	o.recordSubmission(ctx, s, q, &choice, correct)

	if correct {
		o.resolveHit(ctx, s)
	} else {
		o.resolveFoeAttack(ctx, s, "Wrong! You took damage.", true)
	}

	return &SubmitAnswerOutput{Correct: correct, State: o.snapshot(s)}, nil
}

func (o *orchestrator) SkipQuestion(ctx context.Context, input *SkipQuestionInput) (*SkipQuestionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.phase != PhaseBattle {
		return nil, errors.FailedPreconditionf("cannot skip in phase %s", s.phase)
	}

	s.timer.Cancel()
	o.recordSubmission(ctx, s, s.questions[s.idx], nil, false)

	// Skips advance immediately; only wrong answers and timeouts pause
	o.resolveFoeAttack(ctx, s, "Skipped! The foe hit you.", false)

	return &SkipQuestionOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) AcknowledgeTurn(ctx context.Context, input *AcknowledgeTurnInput) (*AcknowledgeTurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.phase != PhasePaused {
		return nil, errors.FailedPreconditionf("nothing to acknowledge in phase %s", s.phase)
	}

	s.phase = PhaseBattle
	s.message = ""
	o.advanceTurn(ctx, s)

	return &AcknowledgeTurnOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) Escape(ctx context.Context, input *EscapeInput) (*EscapeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}
	if s.phase != PhaseBattle && s.phase != PhasePaused {
		return nil, errors.FailedPreconditionf("cannot escape from phase %s", s.phase)
	}

	s.timer.Cancel()
	s.phase = PhaseEscaped
	s.message = "You fled the battle."

	// The pending question is left unresolved; injury carries over,
	// no gold penalty
	s.character.HP = s.playerHP
	o.persistCharacter(ctx, s, "escape")

	slog.InfoContext(ctx, "player escaped",
		"owner_id", s.ownerID,
		"encounter_id", s.encounter.ID,
		"player_hp", s.playerHP,
	)

	return &EscapeOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) GetState(ctx context.Context, input *GetStateInput) (*GetStateOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.liveSession(input.OwnerID)
	if err != nil {
		return nil, err
	}

	return &GetStateOutput{State: o.snapshot(s)}, nil
}

func (o *orchestrator) Abandon(ctx context.Context, input *AbandonInput) (*AbandonOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.sessions[input.OwnerID]; ok {
		s.timer.Cancel()
		delete(o.sessions, input.OwnerID)
	}

	return &AbandonOutput{}, nil
}

// handleTimeout is the timer expiry callback. A wall-clock timer can
// pass its own staleness check and then lose the lock race against a
// submission that cancels it, so the arm sequence captured at Arm time
// is compared again here, under o.mu, before the timeout resolves
// anything. A mismatch means the turn that armed this countdown has
// already been resolved.
func (o *orchestrator) handleTimeout(ownerID string, seq uint64) {
	ctx := context.Background()

	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[ownerID]
	if !ok || s.phase != PhaseBattle || s.armSeq != seq {
		return
	}

	slog.InfoContext(ctx, "question timed out",
		"owner_id", ownerID,
		"question_index", s.idx,
	)

	o.recordSubmission(ctx, s, s.questions[s.idx], nil, false)
	o.resolveFoeAttack(ctx, s, "Time's up! You took damage.", true)
}

// liveSession must be called with o.mu held
func (o *orchestrator) liveSession(ownerID string) (*session, error) {
	if ownerID == "" {
		return nil, errors.InvalidArgument("owner ID is required")
	}
	s, ok := o.sessions[ownerID]
	if !ok {
		return nil, errors.NotFoundf("no active battle for owner %s", ownerID)
	}
	return s, nil
}

// resolveHit applies the player's attack after a correct answer
func (o *orchestrator) resolveHit(ctx context.Context, s *session) {
	resolver := stats.NewResolver(s.character, s.defs)

	dmg := resolver.PlayerDamage() - s.foe.Defense
	if dmg < 0 {
		dmg = 0
	}
	s.foeHP -= dmg
	s.message = "Hit! You dealt damage."

	if res := durability.Degrade(s.character, entities.SlotMainHand, 1); res.JustBroke {
		s.message = "Your " + res.ItemID + " broke!"
	}
	s.character.HP = s.playerHP
	o.persistCharacter(ctx, s, "attack")

	if s.foeHP <= 0 {
		s.foeHP = 0
		o.resolveWin(ctx, s)
		return
	}

	o.advanceTurn(ctx, s)
}

// resolveFoeAttack applies the foe's attack after a wrong answer,
// timeout, or skip. pause controls whether the machine waits for an
// acknowledgment before the next question.
func (o *orchestrator) resolveFoeAttack(ctx context.Context, s *session, message string, pause bool) {
	resolver := stats.NewResolver(s.character, s.defs)

	s.playerHP -= resolver.IncomingDamage(s.foe.AttackDamage)
	s.message = message

	if res := durability.Degrade(s.character, entities.SlotArmor, 1); res.JustBroke {
		s.message = message + " Your " + res.ItemID + " broke!"
	}

	if s.playerHP <= 0 {
		s.playerHP = 0
		o.resolveLoss(ctx, s, LossReasonDefeated)
		return
	}

	s.character.HP = s.playerHP
	o.persistCharacter(ctx, s, "defend")

	if pause {
		s.phase = PhasePaused
		return
	}
	o.advanceTurn(ctx, s)
}

// advanceTurn moves to the next question or ends the run when the
// sequence is exhausted. Must be called in the battle phase.
func (o *orchestrator) advanceTurn(ctx context.Context, s *session) {
	s.idx++
	if s.idx >= len(s.questions) {
		s.message = "You ran out of turns!"
		o.resolveLoss(ctx, s, LossReasonOutOfTurns)
		return
	}
	o.armTimer(ctx, s)
}

// armTimer starts the countdown for the current question. Using a
// main-hand item's time bonus wears it down.
func (o *orchestrator) armTimer(ctx context.Context, s *session) {
	resolver := stats.NewResolver(s.character, s.defs)
	itemMult := resolver.TimerMultiplier()

	q := s.questions[s.idx]
	s.timerSeconds = turntimer.ResolveSeconds(q.TimeLimitSeconds, s.encounter.TimeMultiplier, itemMult)

	if itemMult > 1 {
		if res := durability.Degrade(s.character, entities.SlotMainHand, 1); res.JustBroke {
			s.message = "Your " + res.ItemID + " broke!"
		}
		o.persistCharacter(ctx, s, "timer bonus")
	}

	o.armSeq++
	seq := o.armSeq
	s.armSeq = seq

	ownerID := s.ownerID
	s.timer.Arm(turntimer.Duration(s.timerSeconds), func() {
		o.handleTimeout(ownerID, seq)
	})
}

// resolveWin pays out rewards and ends the run
func (o *orchestrator) resolveWin(ctx context.Context, s *session) {
	s.timer.Cancel()
	s.phase = PhaseWon

	// Apply heals level-up HP gains on top of the battle's remaining HP
	s.character.HP = s.playerHP
	summary := progression.Apply(s.character, s.encounter, s.defs, o.idGen, o.clock.Now())
	s.reward = &summary
	s.playerHP = s.character.HP
	s.message = "Victory!"
	o.persistCharacter(ctx, s, "victory reward")

	slog.InfoContext(ctx, "battle won",
		"owner_id", s.ownerID,
		"encounter_id", s.encounter.ID,
		"xp_awarded", summary.XPAwarded,
		"levels_gained", summary.LevelsGained,
		"drops", len(summary.Drops),
	)
}

// resolveLoss applies the gold penalty, respawns the character at
// full HP on record, and ends the run
func (o *orchestrator) resolveLoss(ctx context.Context, s *session, reason LossReason) {
	s.timer.Cancel()
	s.phase = PhaseLost
	s.lossReason = reason

	s.goldPenalty = int(math.Ceil(float64(s.character.Gold) * GoldPenaltyRate))
	s.character.Gold -= s.goldPenalty

	resolver := stats.NewResolver(s.character, s.defs)
	s.character.HP = resolver.EffectiveMaxHP()
	o.persistCharacter(ctx, s, "defeat")

	slog.InfoContext(ctx, "battle lost",
		"owner_id", s.ownerID,
		"encounter_id", s.encounter.ID,
		"reason", string(reason),
		"gold_penalty", s.goldPenalty,
	)
}

// persistCharacter saves the working copy. A failed write is surfaced
// as a status message and logged, and the battle continues on the
// in-memory state.
func (o *orchestrator) persistCharacter(ctx context.Context, s *session, action string) {
	_, err := o.characterRepo.Update(ctx, characters.UpdateInput{Character: s.character})
	if err != nil {
		slog.ErrorContext(ctx, "failed to persist character",
			"owner_id", s.ownerID,
			"action", action,
			"error", err.Error())
		s.message = "Warning: progress could not be saved."
	}
}

// recordSubmission appends to the answer history, fire-and-forget
func (o *orchestrator) recordSubmission(ctx context.Context, s *session, q *entities.Question, choice *int, correct bool) {
	_, err := o.submissionRepo.Record(ctx, submissions.RecordInput{
		Submission: &submissions.Submission{
			ID:            o.idGen.Generate(),
			OwnerID:       s.ownerID,
			EncounterID:   s.encounter.ID,
			QuestionID:    q.ID,
			SelectedIndex: choice,
			Correct:       correct,
			CreatedAt:     o.clock.Now(),
		},
	})
	if err != nil {
		slog.WarnContext(ctx, "failed to record submission",
			"owner_id", s.ownerID,
			"question_id", q.ID,
			"error", err.Error())
	}
}

// sequenceQuestions materializes the run's question order: shuffled
// when the encounter says so or when the pool lacks explicit ordering,
// otherwise stably sorted by the order field
func (o *orchestrator) sequenceQuestions(enc *entities.EncounterDefinition, pool []*entities.Question) []*entities.Question {
	seq := make([]*entities.Question, len(pool))
	copy(seq, pool)

	ordered := len(seq) > 0
	for _, q := range seq {
		if q.Order == nil {
			ordered = false
			break
		}
	}

	if enc.Shuffle || !ordered {
		o.rand.Shuffle(len(seq), func(i, j int) {
			seq[i], seq[j] = seq[j], seq[i]
		})
		return seq
	}

	sort.SliceStable(seq, func(i, j int) bool {
		return *seq[i].Order < *seq[j].Order
	})
	return seq
}

func (o *orchestrator) loadItemDefinitions(ctx context.Context) (map[string]entities.ItemDefinition, error) {
	out, err := o.itemRepo.List(ctx, items.ListInput{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load item definitions")
	}

	defs := make(map[string]entities.ItemDefinition, len(out.Definitions))
	for _, def := range out.Definitions {
		defs[def.ID] = *def
	}
	return defs, nil
}

// snapshot must be called with o.mu held
func (o *orchestrator) snapshot(s *session) *Snapshot {
	resolver := stats.NewResolver(s.character, s.defs)

	snap := &Snapshot{
		OwnerID:      s.ownerID,
		EncounterID:  s.encounter.ID,
		Title:        s.encounter.Title,
		Phase:        s.phase,
		FoeName:      s.foe.Name,
		FoeHP:        s.foeHP,
		FoeMaxHP:     s.foe.MaxHP,
		PlayerHP:     s.playerHP,
		PlayerMaxHP:  resolver.EffectiveMaxHP(),
		TurnIndex:    s.idx,
		TurnCount:    len(s.questions),
		TimerSeconds: s.timerSeconds,
		Message:      s.message,
		LossReason:   s.lossReason,
		Reward:       s.reward,
		GoldPenalty:  s.goldPenalty,
	}

	if !s.phase.Terminal() && s.idx < len(s.questions) {
		snap.Question = s.questions[s.idx]
	}

	return snap
}
