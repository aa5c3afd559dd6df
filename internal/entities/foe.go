package entities

import "github.com/mathquest/battle-api/internal/errors"

// Foe is a read-only combat opponent definition for one encounter
type Foe struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	MaxHP        int    `json:"maxHp" yaml:"maxHp"`
	AttackDamage int    `json:"attackDamage" yaml:"attackDamage"`
	Defense      int    `json:"defense,omitempty" yaml:"defense,omitempty"`
	ImageURL     string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Normalize validates the foe definition
func (f *Foe) Normalize() error {
	vb := errors.NewValidationBuilder()

	if f.ID == "" {
		vb.RequiredField("id")
	}
	if f.Name == "" {
		vb.RequiredField("name")
	}
	if f.MaxHP <= 0 {
		vb.InvalidField("maxHp", "must be positive")
	}
	if f.AttackDamage < 0 {
		vb.InvalidField("attackDamage", "must not be negative")
	}
	if f.Defense < 0 {
		vb.InvalidField("defense", "must not be negative")
	}

	return vb.Build()
}
