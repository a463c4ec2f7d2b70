package dice

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidNotation is returned by Parse for anything that is not
// "<count>d<sides>[+|-<modifier>]".
var ErrInvalidNotation = errors.New("dice: invalid notation")

var notationPattern = regexp.MustCompile(`^(\d+)d(\d+)([+-]\d+)?$`)

// Bounds on a single expression. Parse rejects anything larger so a roll
// never allocates without limit or overflows its total.
const (
	MaxCount    = 1000
	MaxSides    = 1000
	MaxModifier = 1000
)

// Expression represents a parsed dice expression ready to be rolled.
//
// Invariant: 1 <= Count <= MaxCount, 1 <= Sides <= MaxSides and
// |Modifier| <= MaxModifier after a successful Parse.
type Expression struct {
	Raw      string // original input string
	Count    int    // number of dice
	Sides    int    // faces per die
	Modifier int    // flat modifier (may be negative or zero)
}

// String renders the expression in canonical notation.
func (e Expression) String() string {
	if e.Modifier == 0 {
		return fmt.Sprintf("%dd%d", e.Count, e.Sides)
	}
	return fmt.Sprintf("%dd%d%+d", e.Count, e.Sides, e.Modifier)
}

// Parse parses a dice notation string such as "2d6", "3d8+2" or "1d20-1".
//
// A leading count is required: "d6" is rejected, as is any count, sides or
// modifier beyond MaxCount, MaxSides or MaxModifier.
// Postcondition: Returns an Expression, or an error wrapping ErrInvalidNotation.
func Parse(s string) (Expression, error) {
	m := notationPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("%w: %q", ErrInvalidNotation, s)
	}

	count, err := strconv.Atoi(m[1])
	if err != nil || count < 1 || count > MaxCount {
		return Expression{}, fmt.Errorf("%w: %q: die count must be 1-%d", ErrInvalidNotation, s, MaxCount)
	}
	sides, err := strconv.Atoi(m[2])
	if err != nil || sides < 1 || sides > MaxSides {
		return Expression{}, fmt.Errorf("%w: %q: die sides must be 1-%d", ErrInvalidNotation, s, MaxSides)
	}

	modifier := 0
	if m[3] != "" {
		modifier, err = strconv.Atoi(m[3])
		if err != nil || modifier < -MaxModifier || modifier > MaxModifier {
			return Expression{}, fmt.Errorf("%w: %q: modifier must be within ±%d", ErrInvalidNotation, s, MaxModifier)
		}
	}

	return Expression{
		Raw:      s,
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// MustParse parses expr and panics on error. Useful for package-level constants.
//
// Precondition: expr must be a valid dice expression.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
