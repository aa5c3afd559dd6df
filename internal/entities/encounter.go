package entities

import "github.com/mathquest/battle-api/internal/errors"

// EncounterDefinition is the static configuration for a battle
type EncounterDefinition struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// FoeIDs lists the foes for this encounter; the first is primary
	FoeIDs []string `json:"foeIds" yaml:"foeIds"`

	// QuestionTags select the question pool: a question matching any
	// listed tag is eligible
	QuestionTags []string `json:"questionTags" yaml:"questionTags"`

	WinRewardXP   int      `json:"winRewardXp" yaml:"winRewardXp"`
	WinRewardGold int      `json:"winRewardGold" yaml:"winRewardGold"`
	WinItemDrops  []string `json:"winItemDrops,omitempty" yaml:"winItemDrops,omitempty"`

	// TimeMultiplier scales every question's base time limit
	TimeMultiplier float64 `json:"timeMultiplier" yaml:"timeMultiplier"`

	// Shuffle randomizes question order; otherwise questions are
	// sorted by their explicit order field
	Shuffle bool `json:"shuffle" yaml:"shuffle"`

	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Normalize applies defaults and validates the encounter at ingestion
func (e *EncounterDefinition) Normalize() error {
	vb := errors.NewValidationBuilder()

	if e.ID == "" {
		vb.RequiredField("id")
	}
	if e.Title == "" {
		vb.RequiredField("title")
	}
	if len(e.FoeIDs) == 0 {
		vb.RequiredField("foeIds")
	}
	if len(e.QuestionTags) == 0 {
		vb.RequiredField("questionTags")
	}
	if e.WinRewardXP < 0 {
		vb.InvalidField("winRewardXp", "must not be negative")
	}
	if e.WinRewardGold < 0 {
		vb.InvalidField("winRewardGold", "must not be negative")
	}
	if e.TimeMultiplier < 0 {
		vb.InvalidField("timeMultiplier", "must not be negative")
	}
	if e.TimeMultiplier == 0 {
		e.TimeMultiplier = 1
	}

	return vb.Build()
}

// PrimaryFoeID returns the encounter's primary foe
func (e *EncounterDefinition) PrimaryFoeID() string {
	if len(e.FoeIDs) == 0 {
		return ""
	}
	return e.FoeIDs[0]
}
