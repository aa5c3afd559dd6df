package progression_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mathquest/battle-api/internal/engine/progression"
	"github.com/mathquest/battle-api/internal/entities"
	"github.com/mathquest/battle-api/internal/pkg/idgen"
)

func newTestCharacter() *entities.Character {
	return entities.NewStarter("owner-1", "Tess", time.Now())
}

func encounterWithXP(xp, gold int) *entities.EncounterDefinition {
	enc := &entities.EncounterDefinition{
		ID:            "enc-1",
		Title:         "Goblin Gate",
		FoeIDs:        []string{"goblin"},
		QuestionTags:  []string{"level1"},
		WinRewardXP:   xp,
		WinRewardGold: gold,
	}
	if err := enc.Normalize(); err != nil {
		panic(err)
	}
	return enc
}

func TestThresholdCurve(t *testing.T) {
	assert.Equal(t, 100, progression.Threshold(1))
	assert.Equal(t, 110, progression.Threshold(2))
	assert.Equal(t, 121, progression.Threshold(3))
}

func TestApplyNoLevelUp(t *testing.T) {
	c := newTestCharacter()
	summary := progression.Apply(c, encounterWithXP(50, 7), nil, idgen.NewSequential("drop"), time.Now())

	assert.Equal(t, 50, c.XP)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, 0, summary.LevelsGained)
	assert.Equal(t, entities.StarterGold+7, c.Gold)
}

func TestApplySingleLevelUp(t *testing.T) {
	c := newTestCharacter()
	startMaxHP := c.BaseMaxHP
	startHP := c.HP
	startDamage := c.BaseDamage

	// Exactly the level-1 threshold: levels up exactly once, XP back
	// to zero
	summary := progression.Apply(c, encounterWithXP(100, 0), nil, idgen.NewSequential("drop"), time.Now())

	assert.Equal(t, 2, c.Level)
	assert.Equal(t, 0, c.XP)
	assert.Equal(t, 1, summary.LevelsGained)
	assert.Equal(t, startMaxHP+5, c.BaseMaxHP)
	assert.Equal(t, startHP+5, c.HP, "current HP gains alongside max HP")
	assert.Equal(t, startDamage+1, c.BaseDamage)
	assert.Equal(t, 0, summary.DefenseGained, "no milestone crossed")
}

func TestApplyChainedLevelUps(t *testing.T) {
	c := newTestCharacter()

	// 100 + 110 = 210 covers levels 1->2 and 2->3 with 5 left over
	summary := progression.Apply(c, encounterWithXP(215, 0), nil, idgen.NewSequential("drop"), time.Now())

	assert.Equal(t, 3, c.Level)
	assert.Equal(t, 5, c.XP)
	assert.Equal(t, 2, summary.LevelsGained)
	assert.Equal(t, 10, summary.HPGained)
	assert.Equal(t, 2, summary.AttackGained)
}

func TestApplyMilestoneBonus(t *testing.T) {
	c := newTestCharacter()
	c.Level = 9
	c.XP = 0

	summary := progression.Apply(c, encounterWithXP(progression.Threshold(9), 0), nil, idgen.NewSequential("drop"), time.Now())

	require.Equal(t, 10, c.Level)
	// Level 10: tier = 10/10 + 1 = 2, so boosted gains
	assert.Equal(t, 10, summary.HPGained, "5 * tier 2")
	assert.Equal(t, 2, summary.AttackGained, "boost = tier 2")
	assert.Equal(t, 2, summary.DefenseGained, "defense only on milestones")
}

func TestApplyLevelCap(t *testing.T) {
	c := newTestCharacter()
	c.Level = progression.LevelCap

	summary := progression.Apply(c, encounterWithXP(1000000, 0), nil, idgen.NewSequential("drop"), time.Now())

	assert.Equal(t, progression.LevelCap, c.Level)
	assert.Equal(t, 0, summary.LevelsGained)
	assert.Equal(t, 1000000, c.XP, "XP accrues but no further levels")
}

func TestApplyItemDrops(t *testing.T) {
	c := newTestCharacter()
	enc := encounterWithXP(10, 0)
	enc.WinItemDrops = []string{"iron-sword", "no-such-item"}

	sword := entities.ItemDefinition{
		ID:            "iron-sword",
		Name:          "Iron Sword",
		Category:      entities.ItemCategoryWeapon,
		MaxDurability: 10,
	}
	require.NoError(t, sword.Normalize())
	defs := map[string]entities.ItemDefinition{sword.ID: sword}

	summary := progression.Apply(c, enc, defs, idgen.NewSequential("drop"), time.Now())

	require.Len(t, summary.Drops, 1, "unknown drop ids are skipped")
	drop := summary.Drops[0]
	assert.Equal(t, "iron-sword", drop.ItemID)
	assert.NotEmpty(t, drop.InstanceID)
	assert.Equal(t, 10, drop.Durability, "drops arrive at full durability")
	assert.Len(t, c.Inventory, 1)
}

// A character at exactly the next threshold levels exactly once unless
// the remainder also covers the following threshold.
func TestPropertyLevelUpBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.IntRange(1, 98).Draw(t, "level")

		c := newTestCharacter()
		c.Level = level

		progression.Apply(c, encounterWithXP(progression.Threshold(level), 0), nil, idgen.NewSequential("drop"), time.Now())

		if c.Level != level+1 {
			t.Fatalf("exact threshold from level %d gave level %d", level, c.Level)
		}
		if c.XP >= progression.Threshold(c.Level) {
			t.Fatalf("leftover XP %d should not cover the next threshold", c.XP)
		}
	})
}

// XP never goes negative and the level never exceeds the cap.
func TestPropertyProgressionInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		level := rapid.IntRange(1, 100).Draw(t, "level")
		xp := rapid.IntRange(0, 99).Draw(t, "xp")
		award := rapid.IntRange(0, 100000).Draw(t, "award")

		c := newTestCharacter()
		c.Level = level
		c.XP = xp

		progression.Apply(c, encounterWithXP(award, 0), nil, idgen.NewSequential("drop"), time.Now())

		if c.XP < 0 {
			t.Fatalf("negative XP: %d", c.XP)
		}
		if c.Level > progression.LevelCap {
			t.Fatalf("level %d exceeds cap", c.Level)
		}
		if c.Level < level {
			t.Fatalf("level went backwards: %d -> %d", level, c.Level)
		}
	})
}
