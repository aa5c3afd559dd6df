// Package entities defines the domain types for the battle engine:
// characters, items, foes, questions, and encounter definitions.
//
// All optional numeric fields are defaulted exactly once, at ingestion,
// by each type's Normalize method. Downstream code reads them as-is.
package entities

import (
	"time"

	"github.com/mathquest/battle-api/internal/errors"
)

// ItemCategory classifies an item definition
type ItemCategory string

// Item categories
const (
	ItemCategoryWeapon ItemCategory = "weapon"
	ItemCategoryArmor  ItemCategory = "armor"
	ItemCategoryPotion ItemCategory = "potion"
	ItemCategoryMisc   ItemCategory = "misc"
)

// Slot identifies an equipment position
type Slot string

// Equipment slots
const (
	SlotMainHand Slot = "mainHand"
	SlotOffHand  Slot = "offHand"
	SlotArmor    Slot = "armor"
	SlotHead     Slot = "head"
)

// Slots returns all equipment slots in a stable order
func Slots() []Slot {
	return []Slot{SlotMainHand, SlotOffHand, SlotArmor, SlotHead}
}

// StatModifier adjusts a base stat. Flat components are summed across
// equipment, Mult components are multiplied, and the final value is
// (base + sum of flats) * product of mults.
type StatModifier struct {
	Flat int     `json:"flat" yaml:"flat"`
	Mult float64 `json:"mult" yaml:"mult"`
}

// IsZero reports whether the modifier contributes nothing
func (m StatModifier) IsZero() bool {
	return m.Flat == 0 && (m.Mult == 0 || m.Mult == 1)
}

// ItemStats bundles the stat modifiers an item can carry
type ItemStats struct {
	Damage  StatModifier `json:"damage" yaml:"damage"`
	Defense StatModifier `json:"defense" yaml:"defense"`
	MaxHP   StatModifier `json:"maxHp" yaml:"maxHp"`
	Heal    StatModifier `json:"heal" yaml:"heal"`

	// TimeFactor scales the question timer when the item is in the
	// main hand. 1 means no effect.
	TimeFactor float64 `json:"timeFactor" yaml:"timeFactor"`
}

// ItemDefinition is the immutable template describing a kind of item,
// shared across all owners
type ItemDefinition struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Category    ItemCategory `json:"category" yaml:"category"`
	Price       int          `json:"price" yaml:"price"`

	// Slot is empty for items that cannot be equipped
	Slot  Slot      `json:"slot,omitempty" yaml:"slot,omitempty"`
	Stats ItemStats `json:"stats" yaml:"stats"`

	// MaxDurability of 0 means the item has no durability tracking
	MaxDurability int    `json:"maxDurability,omitempty" yaml:"maxDurability,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
}

// Normalize applies defaults and resolves the equip slot once at
// ingestion. Weapons without an explicit slot go to the main hand and
// armor to the armor slot; downstream code never re-infers slots.
func (d *ItemDefinition) Normalize() error {
	vb := errors.NewValidationBuilder()

	if d.ID == "" {
		vb.RequiredField("id")
	}
	if d.Name == "" {
		vb.RequiredField("name")
	}

	switch d.Category {
	case ItemCategoryWeapon:
		if d.Slot == "" {
			d.Slot = SlotMainHand
		}
	case ItemCategoryArmor:
		if d.Slot == "" {
			d.Slot = SlotArmor
		}
	case ItemCategoryPotion, ItemCategoryMisc:
		// Not equippable unless the content explicitly says so
	default:
		vb.InvalidField("category", "must be one of: weapon, armor, potion, misc")
	}

	if d.Slot != "" && !validSlot(d.Slot) {
		vb.Fieldf("slot", "unknown slot %q", d.Slot)
	}
	if d.MaxDurability < 0 {
		vb.InvalidField("maxDurability", "must not be negative")
	}

	if d.Stats.Damage.Mult == 0 {
		d.Stats.Damage.Mult = 1
	}
	if d.Stats.Defense.Mult == 0 {
		d.Stats.Defense.Mult = 1
	}
	if d.Stats.MaxHP.Mult == 0 {
		d.Stats.MaxHP.Mult = 1
	}
	if d.Stats.Heal.Mult == 0 {
		d.Stats.Heal.Mult = 1
	}
	if d.Stats.TimeFactor == 0 {
		d.Stats.TimeFactor = 1
	}

	return vb.Build()
}

// HasDurability reports whether instances of this item wear out
func (d *ItemDefinition) HasDurability() bool {
	return d.MaxDurability > 0
}

func validSlot(s Slot) bool {
	for _, known := range Slots() {
		if s == known {
			return true
		}
	}
	return false
}

// InventoryItem is one concrete instance of an ItemDefinition owned by
// a character
type InventoryItem struct {
	ItemID     string    `json:"itemId"`
	InstanceID string    `json:"instanceId"`
	ObtainedAt time.Time `json:"obtainedAt"`

	// Durability fields are only meaningful when MaxDurability > 0
	Durability    int `json:"durability,omitempty"`
	MaxDurability int `json:"maxDurability,omitempty"`
}

// Tracked reports whether this instance has durability tracking
func (i *InventoryItem) Tracked() bool {
	return i.MaxDurability > 0
}

// Broken reports whether this instance has worn out. A broken item
// stays equipped but contributes no stats.
func (i *InventoryItem) Broken() bool {
	return i.Tracked() && i.Durability <= 0
}

// NewInventoryItem instantiates a fresh item from its definition, at
// full durability when the definition tracks it
func NewInventoryItem(def *ItemDefinition, instanceID string, obtainedAt time.Time) InventoryItem {
	item := InventoryItem{
		ItemID:     def.ID,
		InstanceID: instanceID,
		ObtainedAt: obtainedAt,
	}
	if def.HasDurability() {
		item.Durability = def.MaxDurability
		item.MaxDurability = def.MaxDurability
	}
	return item
}
