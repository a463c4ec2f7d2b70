// Package characteristic implements the six Traveller characteristics, their
// dice modifiers, range validation and derived values.
package characteristic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/traveller/internal/game/ehex"
)

// Inclusive range accepted for every characteristic.
const (
	Min = 1
	Max = 15
)

// Field names as they appear in validation messages and persisted records.
const (
	FieldStrength       = "strength"
	FieldDexterity      = "dexterity"
	FieldEndurance      = "endurance"
	FieldIntelligence   = "intelligence"
	FieldEducation      = "education"
	FieldSocialStanding = "socialStanding"
)

// ErrUnknownCharacteristic is returned by Get for an unrecognised name.
var ErrUnknownCharacteristic = errors.New("unknown characteristic")

// ErrInvalidUPP is returned by ParseUPP for a malformed profile string.
var ErrInvalidUPP = errors.New("invalid UPP")

// Characteristics holds the six raw ability scores of a character.
type Characteristics struct {
	Strength       int `json:"strength" yaml:"strength"`
	Dexterity      int `json:"dexterity" yaml:"dexterity"`
	Endurance      int `json:"endurance" yaml:"endurance"`
	Intelligence   int `json:"intelligence" yaml:"intelligence"`
	Education      int `json:"education" yaml:"education"`
	SocialStanding int `json:"socialStanding" yaml:"social_standing"`
}

type field struct {
	name  string
	short string
	get   func(c Characteristics) int
}

// fields is the canonical STR, DEX, END, INT, EDU, SOC ordering.
var fields = []field{
	{FieldStrength, "STR", func(c Characteristics) int { return c.Strength }},
	{FieldDexterity, "DEX", func(c Characteristics) int { return c.Dexterity }},
	{FieldEndurance, "END", func(c Characteristics) int { return c.Endurance }},
	{FieldIntelligence, "INT", func(c Characteristics) int { return c.Intelligence }},
	{FieldEducation, "EDU", func(c Characteristics) int { return c.Education }},
	{FieldSocialStanding, "SOC", func(c Characteristics) int { return c.SocialStanding }},
}

// Modifier returns the dice modifier for a characteristic value.
//
// The table extends below Min and above Max so damaged or augmented values
// still map to a DM: <=0 → -3, 1-2 → -2, 3-5 → -1, 6-8 → 0, 9-11 → +1,
// 12-14 → +2, >=15 → +3.
func Modifier(value int) int {
	switch {
	case value <= 0:
		return -3
	case value <= 2:
		return -2
	case value <= 5:
		return -1
	case value <= 8:
		return 0
	case value <= 11:
		return 1
	case value <= 14:
		return 2
	default:
		return 3
	}
}

// ValidationResult reports every range violation found by Validate.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks that all six characteristics lie in [Min, Max].
//
// Postcondition: Errors holds one message per violating field in canonical
// order; IsValid is true iff Errors is empty.
func Validate(c Characteristics) ValidationResult {
	errs := make([]string, 0)
	for _, f := range fields {
		v := f.get(c)
		if v < Min || v > Max {
			errs = append(errs, fmt.Sprintf("%s must be between %d and %d", f.name, Min, Max))
		}
	}
	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Err converts a failed validation into an error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	return fmt.Errorf("invalid characteristics: %s", strings.Join(r.Errors, "; "))
}

// Secondary holds values derived from the raw characteristics.
type Secondary struct {
	PhysicalDamage   int `json:"physicalDamage"`
	MentalDamage     int `json:"mentalDamage"`
	StrengthDM       int `json:"strengthDM"`
	DexterityDM      int `json:"dexterityDM"`
	EnduranceDM      int `json:"enduranceDM"`
	IntelligenceDM   int `json:"intelligenceDM"`
	EducationDM      int `json:"educationDM"`
	SocialStandingDM int `json:"socialStandingDM"`
}

// DeriveSecondary computes damage thresholds and per-characteristic DMs.
//
// Postcondition: PhysicalDamage == floor((STR+END)/2) and
// MentalDamage == floor((INT+EDU)/2).
func DeriveSecondary(c Characteristics) Secondary {
	return Secondary{
		PhysicalDamage:   floorHalf(c.Strength + c.Endurance),
		MentalDamage:     floorHalf(c.Intelligence + c.Education),
		StrengthDM:       Modifier(c.Strength),
		DexterityDM:      Modifier(c.Dexterity),
		EnduranceDM:      Modifier(c.Endurance),
		IntelligenceDM:   Modifier(c.Intelligence),
		EducationDM:      Modifier(c.Education),
		SocialStandingDM: Modifier(c.SocialStanding),
	}
}

// floorHalf divides by two rounding toward negative infinity.
func floorHalf(n int) int {
	if n < 0 {
		return (n - 1) / 2
	}
	return n / 2
}

// Names returns the short characteristic labels in canonical order.
func Names() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.short
	}
	return out
}

// Get returns the value of the characteristic named by its short label
// (STR, DEX, ...) or its field name, case-insensitively.
//
// Postcondition: Returns the value, or ErrUnknownCharacteristic.
func (c Characteristics) Get(name string) (int, error) {
	for _, f := range fields {
		if strings.EqualFold(name, f.short) || strings.EqualFold(name, f.name) {
			return f.get(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCharacteristic, name)
}

// UPP renders the Universal Personality Profile, e.g. "789A87".
//
// Postcondition: Returns a six-character uppercase string, or an error when a
// value has no ehex digit.
func (c Characteristics) UPP() (string, error) {
	buf := make([]byte, len(fields))
	for i, f := range fields {
		d, err := ehex.Digit(f.get(c))
		if err != nil {
			return "", fmt.Errorf("%s: %w", f.name, err)
		}
		buf[i] = d
	}
	return string(buf), nil
}

// ParseUPP decodes a six-digit Universal Personality Profile.
//
// Postcondition: Returns the decoded scores, or an error wrapping ErrInvalidUPP.
// Range is not checked; use Validate.
func ParseUPP(s string) (Characteristics, error) {
	if len(s) != len(fields) {
		return Characteristics{}, fmt.Errorf("%w: %q must be %d digits", ErrInvalidUPP, s, len(fields))
	}
	vals := make([]int, len(fields))
	for i := range vals {
		v, err := ehex.Value(s[i])
		if err != nil {
			return Characteristics{}, fmt.Errorf("%w: %q: %v", ErrInvalidUPP, s, err)
		}
		vals[i] = v
	}
	return FromValues([Count]int(vals)), nil
}

// Count is the number of characteristics.
const Count = 6

// FromValues builds Characteristics from values in STR..SOC order.
func FromValues(v [Count]int) Characteristics {
	return Characteristics{
		Strength:       v[0],
		Dexterity:      v[1],
		Endurance:      v[2],
		Intelligence:   v[3],
		Education:      v[4],
		SocialStanding: v[5],
	}
}

// Values returns the scores in STR..SOC order.
func (c Characteristics) Values() [Count]int {
	var out [Count]int
	for i, f := range fields {
		out[i] = f.get(c)
	}
	return out
}
