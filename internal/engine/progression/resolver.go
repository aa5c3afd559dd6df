// Package progression applies victory rewards: experience, multi-level
// level-ups with milestone bonuses, gold, and item drops.
package progression

import (
	"math"
	"time"

	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/pkg/idgen"
)

// LevelCap is the maximum attainable level
const LevelCap = 100

// HPPerLevel is the max-HP gain per level before the milestone boost
const HPPerLevel = 5

// Threshold returns the XP required to advance from the given level to
// the next: floor(100 * 1.1^(level-1))
func Threshold(level int) int {
	return int(math.Floor(100 * math.Pow(1.1, float64(level-1))))
}

// milestone levels (divisible by 10) grant enhanced bonuses
func milestone(level int) bool {
	return level%10 == 0
}

// tier grows every ten levels
func tier(level int) int {
	return level/10 + 1
}

// Summary reports everything a victory changed, for the level-up and
// loot display
type Summary struct {
	XPAwarded   int
	GoldAwarded int

	StartLevel   int
	EndLevel     int
	LevelsGained int

	HPGained      int
	AttackGained  int
	DefenseGained int

	Drops []entities.InventoryItem
}

// Apply adds the encounter's rewards to the character: XP with chained
// level-ups, gold, and one fresh inventory item per declared drop.
// The character is mutated in place; persisting it is the caller's
// job.
func Apply(
	c *entities.Character,
	enc *entities.EncounterDefinition,
	defs map[string]entities.ItemDefinition,
	idGen idgen.Generator,
	now time.Time,
) Summary {
	summary := Summary{
		XPAwarded:   enc.WinRewardXP,
		GoldAwarded: enc.WinRewardGold,
		StartLevel:  c.Level,
	}

	c.XP += enc.WinRewardXP

	for c.Level < LevelCap && c.XP >= Threshold(c.Level) {
		c.XP -= Threshold(c.Level)
		c.Level++

		boost := 1
		if milestone(c.Level) {
			boost = tier(c.Level)
		}

		hpGain := HPPerLevel * boost
		c.BaseMaxHP += hpGain
		c.HP += hpGain
		c.BaseDamage += boost

		summary.HPGained += hpGain
		summary.AttackGained += boost

		if milestone(c.Level) {
			defGain := tier(c.Level)
			c.BaseDefense += defGain
			summary.DefenseGained += defGain
		}
	}

	summary.EndLevel = c.Level
	summary.LevelsGained = c.Level - summary.StartLevel

	c.Gold += enc.WinRewardGold

	for _, itemID := range enc.WinItemDrops {
		def, ok := defs[itemID]
		if !ok {
			// Unknown drop ids are skipped rather than failing the win
			continue
		}
		item := entities.NewInventoryItem(&def, idGen.Generate(), now)
		c.Inventory = append(c.Inventory, item)
		summary.Drops = append(summary.Drops, item)
	}

	return summary
}
