package battle

import (
	"github.com/mathquest/battle-api/internal/engine/progression"
	"github.com/mathquest/battle-api/internal/entities"
)

// Phase is the lifecycle phase of a battle session
type Phase string

// Battle phases. Intro and battle are live; won, lost, and escaped are
// terminal for the run. Paused is a battle sub-state entered after a
// wrong answer or timeout, blocking submissions and the timer until
// the player acknowledges.
const (
	PhaseIntro   Phase = "intro"
	PhaseBattle  Phase = "battle"
	PhasePaused  Phase = "paused"
	PhaseWon     Phase = "won"
	PhaseLost    Phase = "lost"
	PhaseEscaped Phase = "escaped"
)

// Terminal reports whether the phase ends the run
func (p Phase) Terminal() bool {
	return p == PhaseWon || p == PhaseLost || p == PhaseEscaped
}

// LossReason distinguishes how a battle was lost
type LossReason string

// Loss reasons
const (
	LossReasonDefeated   LossReason = "defeated"
	LossReasonOutOfTurns LossReason = "outOfTurns"
)

// Snapshot is a read-only view of a battle session for display
type Snapshot struct {
	OwnerID     string
	EncounterID string
	Title       string
	Phase       Phase

	FoeName  string
	FoeHP    int
	FoeMaxHP int

	PlayerHP    int
	PlayerMaxHP int

	// TurnIndex is the zero-based index of the current question;
	// TurnCount is the total length of the question sequence
	TurnIndex int
	TurnCount int

	// Question is the current question, nil once the phase is terminal
	Question *entities.Question

	// TimerSeconds is the resolved countdown for the current question
	TimerSeconds float64

	// Message is the most recent user-facing status line
	Message string

	// LossReason is set when Phase is lost
	LossReason LossReason

	// Reward is set when Phase is won
	Reward *progression.Summary

	// GoldPenalty is the gold lost on defeat
	GoldPenalty int
}

// StartEncounterInput defines the input for starting an encounter
type StartEncounterInput struct {
	OwnerID     string
	EncounterID string
}

// StartEncounterOutput defines the output for starting an encounter
type StartEncounterOutput struct {
	State *Snapshot
}

// BeginBattleInput defines the input for confirming readiness
type BeginBattleInput struct {
	OwnerID string
}

// BeginBattleOutput defines the output for confirming readiness
type BeginBattleOutput struct {
	State *Snapshot
}

// SubmitAnswerInput defines the input for answering the current question
type SubmitAnswerInput struct {
	OwnerID     string
	ChoiceIndex int
}

// SubmitAnswerOutput defines the output for answering the current question
type SubmitAnswerOutput struct {
	Correct bool
	State   *Snapshot
}

// SkipQuestionInput defines the input for skipping the current question
type SkipQuestionInput struct {
	OwnerID string
}

// SkipQuestionOutput defines the output for skipping the current question
type SkipQuestionOutput struct {
	State *Snapshot
}

// AcknowledgeTurnInput defines the input for acknowledging a paused turn
type AcknowledgeTurnInput struct {
	OwnerID string
}

// AcknowledgeTurnOutput defines the output for acknowledging a paused turn
type AcknowledgeTurnOutput struct {
	State *Snapshot
}

// EscapeInput defines the input for fleeing the battle
type EscapeInput struct {
	OwnerID string
}

// EscapeOutput defines the output for fleeing the battle
type EscapeOutput struct {
	State *Snapshot
}

// GetStateInput defines the input for reading the session state
type GetStateInput struct {
	OwnerID string
}

// GetStateOutput defines the output for reading the session state
type GetStateOutput struct {
	State *Snapshot
}

// ListEncountersInput defines the input for the lobby listing
type ListEncountersInput struct{}

// ListEncountersOutput defines the output for the lobby listing
type ListEncountersOutput struct {
	Encounters []*entities.EncounterDefinition
}

// AbandonInput defines the input for discarding a session
type AbandonInput struct {
	OwnerID string
}

// AbandonOutput defines the output for discarding a session
type AbandonOutput struct{}
