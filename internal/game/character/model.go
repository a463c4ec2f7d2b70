// Package character defines the Traveller character model and the pure
// creation logic behind the character wizard.
package character

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cory-johannsen/traveller/internal/game/characteristic"
	"github.com/cory-johannsen/traveller/internal/game/permission"
)

// UntrainedLevel is the skill level used for a skill the character lacks.
const UntrainedLevel = -3

// MaxSkillLevel is the highest skill level a new character may start with.
const MaxSkillLevel = 4

// ErrInvalidSkill is returned for a blank skill name or an out-of-range level.
var ErrInvalidSkill = errors.New("invalid skill")

// Character is a player character's persistent state.
//
// ID, CreatedAt and UpdatedAt are set by the persistence layer; a zero ID
// indicates an unsaved character.
type Character struct {
	ID         string
	CampaignID string
	PlayerID   string

	Name      string
	Species   string
	Homeworld string
	Age       int

	Characteristics characteristic.Characteristics
	Skills          map[string]int
	Credits         int
	Notes           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Permission returns the ownership projection used by permission checks.
func (c *Character) Permission() *permission.Character {
	return &permission.Character{ID: c.ID, PlayerID: c.PlayerID, CampaignID: c.CampaignID}
}

// NormalizeSkill canonicalises a skill name for lookup ("gun combat" and
// "Gun Combat" are the same skill).
func NormalizeSkill(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SkillLevel returns the character's level in name, or UntrainedLevel when the
// character does not have the skill.
func (c *Character) SkillLevel(name string) int {
	lvl, ok := c.Skills[NormalizeSkill(name)]
	if !ok {
		return UntrainedLevel
	}
	return lvl
}

// SetSkill records a skill at the given level.
//
// Postcondition: Returns ErrInvalidSkill for a blank name or a level outside
// [0, MaxSkillLevel].
func (c *Character) SetSkill(name string, level int) error {
	key := NormalizeSkill(name)
	if key == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidSkill)
	}
	if level < 0 || level > MaxSkillLevel {
		return fmt.Errorf("%w: %s level %d must be between 0 and %d", ErrInvalidSkill, key, level, MaxSkillLevel)
	}
	if c.Skills == nil {
		c.Skills = make(map[string]int)
	}
	c.Skills[key] = level
	return nil
}

// SkillNames returns the character's skills sorted by name.
func (c *Character) SkillNames() []string {
	names := make([]string, 0, len(c.Skills))
	for n := range c.Skills {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CharacteristicDM returns the dice modifier of the named characteristic.
func (c *Character) CharacteristicDM(name string) (int, error) {
	v, err := c.Characteristics.Get(name)
	if err != nil {
		return 0, err
	}
	return characteristic.Modifier(v), nil
}

// UPP returns the character's Universal Personality Profile, or "??????"
// when a characteristic has no ehex digit.
func (c *Character) UPP() string {
	s, err := c.Characteristics.UPP()
	if err != nil {
		return "??????"
	}
	return s
}

// Secondary returns the derived damage thresholds and DMs.
func (c *Character) Secondary() characteristic.Secondary {
	return characteristic.DeriveSecondary(c.Characteristics)
}

// Validate reports every problem with c that would prevent it being saved.
func (c *Character) Validate() error {
	var errs []error
	if n := len(strings.TrimSpace(c.Name)); n < 2 || n > 64 {
		errs = append(errs, errors.New("name must be 2-64 characters"))
	}
	if c.Age < 0 {
		errs = append(errs, errors.New("age must not be negative"))
	}
	if c.Credits < 0 {
		errs = append(errs, errors.New("credits must not be negative"))
	}
	if err := characteristic.Validate(c.Characteristics).Err(); err != nil {
		errs = append(errs, err)
	}
	for name, lvl := range c.Skills {
		if lvl < 0 || lvl > MaxSkillLevel {
			errs = append(errs, fmt.Errorf("%w: %s level %d", ErrInvalidSkill, name, lvl))
		}
	}
	return errors.Join(errs...)
}
