// Package dice provides the randomness abstraction, dice notation parsing,
// roll results and the 2d6 task check used throughout the ruleset.
package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Modifier is a named bonus or penalty applied to a roll.
type Modifier struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// String formats the modifier as "name +v".
func (m Modifier) String() string {
	return fmt.Sprintf("%s %+d", m.Name, m.Value)
}

// ParseModifier reads a modifier written "name:+2", "name:-1" or a bare
// signed number ("+2"), which is named "mod".
func ParseModifier(s string) (Modifier, error) {
	name, value := "mod", s
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		name, value = strings.TrimSpace(s[:i]), s[i+1:]
		if name == "" {
			return Modifier{}, fmt.Errorf("modifier %q has an empty name", s)
		}
	} else if !strings.HasPrefix(s, "+") && !strings.HasPrefix(s, "-") {
		return Modifier{}, fmt.Errorf("modifier %q must be signed, e.g. +2 or cover:-2", s)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return Modifier{}, fmt.Errorf("modifier %q must end in a number", s)
	}
	return Modifier{Name: name, Value: v}, nil
}

// Well-known modifier names.
const (
	ModifierBase           = "base"
	ModifierSkill          = "skill"
	ModifierCharacteristic = "characteristic"
)

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total == sum(Individual) and
// FinalResult == Total + sum(AppliedModifiers[i].Value).
type RollResult struct {
	Notation         string     `json:"notation"`
	Individual       []int      `json:"individual"`
	Total            int        `json:"total"`
	AppliedModifiers []Modifier `json:"appliedModifiers"`
	FinalResult      int        `json:"finalResult"`
}

// ModifierTotal returns the sum of all applied modifier values.
func (r RollResult) ModifierTotal() int {
	sum := 0
	for _, m := range r.AppliedModifiers {
		sum += m.Value
	}
	return sum
}

// String returns a human-readable audit string in the format:
//
//	"2d6+3 → [4 5] +3 = 12"
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Notation, r.Individual, r.ModifierTotal(), r.FinalResult)
}

// Breakdown lists the applied modifiers, e.g. "skill +2, characteristic -1".
func (r RollResult) Breakdown() string {
	parts := make([]string, len(r.AppliedModifiers))
	for i, m := range r.AppliedModifiers {
		parts[i] = m.String()
	}
	return strings.Join(parts, ", ")
}

// Source is the randomness provider for dice rolls.
//
// Implementations MUST be safe for concurrent use.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}
