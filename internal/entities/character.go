package entities

import "time"

// Starter values applied at character creation
const (
	StarterLevel      = 1
	StarterMaxHP      = 20
	StarterBaseDamage = 1
	StarterGold       = 10
)

// Equipment maps a slot to the instance ID of the equipped inventory
// item. A missing or empty entry means the slot is empty.
type Equipment map[Slot]string

// Character is a player's persistent combatant record
type Character struct {
	OwnerID string `json:"ownerId"`
	Name    string `json:"name"`

	Level int `json:"level"`
	XP    int `json:"xp"`
	Gold  int `json:"gold"`

	BaseMaxHP   int `json:"maxHp"`
	BaseDamage  int `json:"baseDamage"`
	BaseDefense int `json:"baseDefense"`

	// HP is current hit points, kept separate from max HP so injury
	// persists across sessions
	HP int `json:"hp"`

	Inventory []InventoryItem `json:"inventory"`
	Equipment Equipment       `json:"equipment"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewStarter creates a character with starter values
func NewStarter(ownerID, name string, now time.Time) *Character {
	return &Character{
		OwnerID:    ownerID,
		Name:       name,
		Level:      StarterLevel,
		Gold:       StarterGold,
		BaseMaxHP:  StarterMaxHP,
		BaseDamage: StarterBaseDamage,
		HP:         StarterMaxHP,
		Inventory:  []InventoryItem{},
		Equipment:  Equipment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// FindItem returns the inventory item with the given instance ID, or
// nil when it is not present
func (c *Character) FindItem(instanceID string) *InventoryItem {
	if instanceID == "" {
		return nil
	}
	for i := range c.Inventory {
		if c.Inventory[i].InstanceID == instanceID {
			return &c.Inventory[i]
		}
	}
	return nil
}

// EquippedItem returns the inventory item occupying the given slot.
// Returns nil for an empty slot or a dangling equipment reference; a
// dangling reference is tolerated rather than treated as an error.
func (c *Character) EquippedItem(slot Slot) *InventoryItem {
	if c.Equipment == nil {
		return nil
	}
	return c.FindItem(c.Equipment[slot])
}

// ClampHP keeps current HP within [0, maxHP]
func (c *Character) ClampHP(maxHP int) {
	if c.HP < 0 {
		c.HP = 0
	}
	if c.HP > maxHP {
		c.HP = maxHP
	}
}
