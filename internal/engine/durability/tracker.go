// Package durability degrades equipped items on qualifying actions and
// reports breakage transitions.
//
// Wear policy: the main hand degrades by 1 on every correct answer and
// whenever its timer bonus extends the question timer; armor degrades
// by 1 on every incorrect answer and on every timeout. Broken items
// stay equipped and in inventory until the player acts.
package durability

import (
	"github.com/mathquest/battle-api/internal/entities"
)

// Result describes what a Degrade call did
type Result struct {
	// Degraded is true when an item actually lost durability
	Degraded bool

	// JustBroke is true only on the transition from >0 to 0, so a
	// "your item broke" message fires exactly once
	JustBroke bool

	// InstanceID and ItemID identify the affected item, when any
	InstanceID string
	ItemID     string
}

// Degrade reduces the durability of the item in the given slot by
// amount, flooring at zero. It is a no-op when the slot is empty, the
// equipment reference is dangling, or the item has no durability
// tracking. The caller is responsible for persisting the mutated
// inventory before consulting the stat resolver again.
func Degrade(c *entities.Character, slot entities.Slot, amount int) Result {
	if amount <= 0 {
		return Result{}
	}

	item := c.EquippedItem(slot)
	if item == nil || !item.Tracked() {
		return Result{}
	}

	oldDurability := item.Durability
	newDurability := oldDurability - amount
	if newDurability < 0 {
		newDurability = 0
	}
	item.Durability = newDurability

	return Result{
		Degraded:   newDurability != oldDurability,
		JustBroke:  oldDurability > 0 && newDurability == 0,
		InstanceID: item.InstanceID,
		ItemID:     item.ItemID,
	}
}
