package character_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/game/character"
	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
)

func average() characteristic.Characteristics {
	return characteristic.FromValues([characteristic.Count]int{7, 8, 9, 10, 8, 7})
}

func TestBuilder_AssignedCharacter(t *testing.T) {
	c, err := character.NewBuilder("camp", "player").
		Name("Jamison").
		Background("", "Regina").
		Age(34).
		AssignCharacteristics(average()).
		AddSkill("Pilot", 2).
		AddSkill("gun   combat", 1).
		Credits(5000).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "camp", c.CampaignID)
	assert.Equal(t, "player", c.PlayerID)
	assert.Equal(t, character.DefaultSpecies, c.Species)
	assert.Equal(t, "Regina", c.Homeworld)
	assert.Equal(t, 34, c.Age)
	assert.Equal(t, "789A87", c.UPP())
	assert.Equal(t, 2, c.SkillLevel("pilot"))
	assert.Equal(t, 1, c.SkillLevel("Gun Combat"))
	assert.Equal(t, character.UntrainedLevel, c.SkillLevel("Astrogation"))
	assert.Equal(t, []string{"gun combat", "pilot"}, c.SkillNames())
	assert.Equal(t, 5000, c.Credits)
}

func TestBuilder_RollCharacteristics(t *testing.T) {
	b := character.NewBuilder("camp", "player").Name("Kelly").
		RollCharacteristics(dice.NewFixedSource(1, 2, 3, 4, 5, 6, 6, 6, 2, 2, 4, 3))
	require.Len(t, b.Rolls(), 6)
	assert.Equal(t, [characteristic.Count]int{3, 7, 11, 12, 4, 7}, b.Characteristics().Values())

	c, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, 11, c.Characteristics.Endurance)
}

// Property: rolled characteristics are always within 2-12 and build cleanly.
func TestProperty_RolledCharacteristicsValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		src := dice.NewSeededSource(rapid.Int64().Draw(rt, "seed"))
		c, err := character.NewBuilder("c", "p").Name("Rolled").RollCharacteristics(src).Build()
		if err != nil {
			rt.Fatal(err)
		}
		for _, v := range c.Characteristics.Values() {
			if v < 2 || v > 12 {
				rt.Fatalf("rolled %d outside 2-12", v)
			}
		}
	})
}

func TestBuilder_ReportsEveryProblem(t *testing.T) {
	bad := average()
	bad.Strength = 0
	bad.SocialStanding = 16
	_, err := character.NewBuilder("", "").
		Name("X").
		AssignCharacteristics(bad).
		AddSkill("", 1).
		AddSkill("Pilot", 7).
		Credits(-1).
		Build()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "campaign must be set")
	assert.Contains(t, msg, "player must be set")
	assert.Contains(t, msg, "name must be 2-64 characters")
	assert.Contains(t, msg, "strength must be between 1 and 15")
	assert.Contains(t, msg, "socialStanding must be between 1 and 15")
	assert.Contains(t, msg, "credits must not be negative")
	assert.ErrorIs(t, err, character.ErrInvalidSkill)
}

func TestBuilder_RequiresCharacteristics(t *testing.T) {
	_, err := character.NewBuilder("c", "p").Name("Nobody").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "characteristics must be rolled or assigned")
}

func TestCharacter_SetSkill(t *testing.T) {
	c := &character.Character{}
	require.NoError(t, c.SetSkill("Vacc Suit", 0))
	assert.Equal(t, 0, c.SkillLevel("vacc suit"))
	assert.ErrorIs(t, c.SetSkill("Vacc Suit", 5), character.ErrInvalidSkill)
	assert.ErrorIs(t, c.SetSkill("  ", 1), character.ErrInvalidSkill)
}

func TestCharacter_DMsAndPermission(t *testing.T) {
	c := &character.Character{ID: "ch", PlayerID: "p", CampaignID: "c", Characteristics: average()}
	dm, err := c.CharacteristicDM("INT")
	require.NoError(t, err)
	assert.Equal(t, 1, dm)
	_, err = c.CharacteristicDM("luck")
	assert.ErrorIs(t, err, characteristic.ErrUnknownCharacteristic)

	assert.Equal(t, 8, c.Secondary().PhysicalDamage)

	p := c.Permission()
	assert.Equal(t, "ch", p.ID)
	assert.Equal(t, "p", p.PlayerID)
	assert.Equal(t, "c", p.CampaignID)
}

func TestCharacter_UPPInvalid(t *testing.T) {
	c := &character.Character{Characteristics: characteristic.FromValues([characteristic.Count]int{-1, 1, 1, 1, 1, 1})}
	assert.Equal(t, "??????", c.UPP())
}
