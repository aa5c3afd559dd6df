// Package stats derives effective combat numbers from a character's
// base stats plus currently equipped, non-broken items.
//
// Stat modifiers combine additively then multiplicatively per stat:
// (base + sum of flat components) * product of mult components.
package stats

import (
	"math"

	"github.com/mathquest/battle-api/internal/entities"
)

// Resolver computes damage, defense, max HP, and timer numbers for one
// character snapshot. It performs no I/O and mutates nothing.
type Resolver struct {
	character *entities.Character
	defs      map[string]entities.ItemDefinition
}

// NewResolver creates a resolver over the given character and item
// definition catalog
func NewResolver(character *entities.Character, defs map[string]entities.ItemDefinition) *Resolver {
	return &Resolver{
		character: character,
		defs:      defs,
	}
}

// eachEquipped visits every equipped, non-broken item alongside its
// definition. Empty slots, dangling equipment references, unknown item
// IDs, and broken items are skipped.
func (r *Resolver) eachEquipped(visit func(item *entities.InventoryItem, def *entities.ItemDefinition)) {
	for _, slot := range entities.Slots() {
		item := r.character.EquippedItem(slot)
		if item == nil || item.Broken() {
			continue
		}
		def, ok := r.defs[item.ItemID]
		if !ok {
			continue
		}
		visit(item, &def)
	}
}

// TimerMultiplier returns the time factor of the main-hand item, or 1
// when the slot is empty, the item is broken, or it carries no factor
func (r *Resolver) TimerMultiplier() float64 {
	item := r.character.EquippedItem(entities.SlotMainHand)
	if item == nil || item.Broken() {
		return 1
	}
	def, ok := r.defs[item.ItemID]
	if !ok || def.Stats.TimeFactor <= 0 {
		return 1
	}
	return def.Stats.TimeFactor
}

// PlayerDamage returns the damage dealt per correct answer:
// ceil((base + sum of flats) * product of mults), never negative
func (r *Resolver) PlayerDamage() int {
	totalFlat := 0
	totalMult := 1.0

	r.eachEquipped(func(_ *entities.InventoryItem, def *entities.ItemDefinition) {
		mod := def.Stats.Damage
		if mod.IsZero() {
			return
		}
		totalFlat += mod.Flat
		if mod.Mult > 0 {
			totalMult *= mod.Mult
		}
	})

	dmg := int(math.Ceil(float64(r.character.BaseDamage+totalFlat) * totalMult))
	if dmg < 0 {
		return 0
	}
	return dmg
}

// IncomingDamage reduces a foe's raw attack by the character's
// defense: ceil(max(0, raw - flatDefense) * defenseMult).
//
// Flat defense is base defense plus every equipped item's flat defense
// component; the multiplier is the product of their mult components
// (a resistance below 1 shrinks what gets through).
func (r *Resolver) IncomingDamage(rawFoeDamage int) int {
	flatDef := r.character.BaseDefense
	defMult := 1.0

	r.eachEquipped(func(_ *entities.InventoryItem, def *entities.ItemDefinition) {
		mod := def.Stats.Defense
		if mod.IsZero() {
			return
		}
		flatDef += mod.Flat
		if mod.Mult > 0 {
			defMult *= mod.Mult
		}
	})

	reduced := rawFoeDamage - flatDef
	if reduced <= 0 {
		return 0
	}
	return int(math.Ceil(float64(reduced) * defMult))
}

// EffectiveMaxHP returns base max HP plus the flat max-HP component of
// every equipped, non-broken item. Mult components do not apply to max
// HP.
func (r *Resolver) EffectiveMaxHP() int {
	maxHP := r.character.BaseMaxHP

	r.eachEquipped(func(_ *entities.InventoryItem, def *entities.ItemDefinition) {
		maxHP += def.Stats.MaxHP.Flat
	})

	return maxHP
}
