package character

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/dice"
)

// DefaultSpecies is used when no species is chosen.
const DefaultSpecies = "Human"

// DefaultStartingAge is the age of a character who has not mustered out.
const DefaultStartingAge = 18

// Builder assembles a new character step by step, in the order the creation
// wizard asks for them. Steps record problems instead of failing fast; Build
// reports all of them at once.
type Builder struct {
	campaignID string
	playerID   string

	name      string
	species   string
	homeworld string
	age       int

	chars    characteristic.Characteristics
	assigned bool
	rolls    []dice.RollResult

	skills  map[string]int
	credits int
	notes   string
	errs    []error
}

// NewBuilder starts a character for playerID in campaignID.
func NewBuilder(campaignID, playerID string) *Builder {
	return &Builder{
		campaignID: campaignID,
		playerID:   playerID,
		species:    DefaultSpecies,
		age:        DefaultStartingAge,
		skills:     make(map[string]int),
	}
}

// Name sets the character's name.
func (b *Builder) Name(name string) *Builder {
	b.name = strings.TrimSpace(name)
	return b
}

// Background sets species and homeworld; blank values keep the defaults.
func (b *Builder) Background(species, homeworld string) *Builder {
	if s := strings.TrimSpace(species); s != "" {
		b.species = s
	}
	b.homeworld = strings.TrimSpace(homeworld)
	return b
}

// Age sets the character's age.
func (b *Builder) Age(age int) *Builder {
	b.age = age
	return b
}

// RollCharacteristics rolls 2d6 for each characteristic in STR..SOC order.
//
// Precondition: src must be non-nil.
// Postcondition: Rolls returns six results and every score is in [2, 12].
func (b *Builder) RollCharacteristics(src dice.Source) *Builder {
	expr := dice.MustParse("2d6")
	var vals [characteristic.Count]int
	b.rolls = b.rolls[:0]
	for i := range vals {
		r := dice.Roll(expr, src)
		b.rolls = append(b.rolls, r)
		vals[i] = r.FinalResult
	}
	b.chars = characteristic.FromValues(vals)
	b.assigned = true
	return b
}

// AssignCharacteristics sets the scores directly, e.g. after the player
// rearranges rolled values. Range is checked by Build.
func (b *Builder) AssignCharacteristics(c characteristic.Characteristics) *Builder {
	b.chars = c
	b.assigned = true
	return b
}

// Rolls returns the dice rolled by the last RollCharacteristics call.
func (b *Builder) Rolls() []dice.RollResult {
	return b.rolls
}

// Characteristics returns the scores assigned so far.
func (b *Builder) Characteristics() characteristic.Characteristics {
	return b.chars
}

// AddSkill grants a background skill at level.
func (b *Builder) AddSkill(name string, level int) *Builder {
	key := NormalizeSkill(name)
	switch {
	case key == "":
		b.errs = append(b.errs, fmt.Errorf("%w: name must not be empty", ErrInvalidSkill))
	case level < 0 || level > MaxSkillLevel:
		b.errs = append(b.errs, fmt.Errorf("%w: %s level %d must be between 0 and %d", ErrInvalidSkill, key, level, MaxSkillLevel))
	default:
		b.skills[key] = level
	}
	return b
}

// Credits sets starting funds.
func (b *Builder) Credits(cr int) *Builder {
	b.credits = cr
	return b
}

// Notes sets free-form notes.
func (b *Builder) Notes(notes string) *Builder {
	b.notes = notes
	return b
}

// Build returns the finished character.
//
// Postcondition: Returns a Character ready for persistence, or an error
// joining every problem recorded by the steps and found by Validate.
func (b *Builder) Build() (*Character, error) {
	errs := append([]error(nil), b.errs...)
	if b.campaignID == "" {
		errs = append(errs, errors.New("campaign must be set"))
	}
	if b.playerID == "" {
		errs = append(errs, errors.New("player must be set"))
	}
	if !b.assigned {
		errs = append(errs, errors.New("characteristics must be rolled or assigned"))
	}

	skills := make(map[string]int, len(b.skills))
	for k, v := range b.skills {
		skills[k] = v
	}
	c := &Character{
		CampaignID:      b.campaignID,
		PlayerID:        b.playerID,
		Name:            b.name,
		Species:         b.species,
		Homeworld:       b.homeworld,
		Age:             b.age,
		Characteristics: b.chars,
		Skills:          skills,
		Credits:         b.credits,
		Notes:           b.notes,
	}
	if b.assigned {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	} else if n := len(c.Name); n < 2 || n > 64 {
		errs = append(errs, errors.New("name must be 2-64 characters"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}
