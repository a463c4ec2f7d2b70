// Package hexgrid computes distances on a sector map addressed by 4-digit
// "CCRR" hex coordinates.
//
// Map hexes use an offset layout in which odd rows are shifted half a hex
// right. Offsets are converted to cube coordinates (q, r, s) with q+r+s == 0
// and the distance is max(|dq|, |dr|, |ds|).
package hexgrid

import (
	"errors"
	"fmt"
)

// ErrInvalidCoordinate is returned when a hex string is not exactly four
// decimal digits.
var ErrInvalidCoordinate = errors.New("hexgrid: invalid coordinate")

// MaxComponent is the largest column or row expressible in two digits.
const MaxComponent = 99

// Coordinate is a map hex: two-digit column then two-digit row.
type Coordinate struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// ParseCoordinate parses a coordinate such as "1910".
//
// Postcondition: Returns the Coordinate, or an error wrapping ErrInvalidCoordinate.
func ParseCoordinate(s string) (Coordinate, error) {
	if len(s) != 4 {
		return Coordinate{}, fmt.Errorf("%w: %q: want 4 digits", ErrInvalidCoordinate, s)
	}
	var v [4]int
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Coordinate{}, fmt.Errorf("%w: %q: non-digit %q", ErrInvalidCoordinate, s, c)
		}
		v[i] = int(c - '0')
	}
	return Coordinate{Column: v[0]*10 + v[1], Row: v[2]*10 + v[3]}, nil
}

// MustParse parses s and panics on error.
//
// Precondition: s must be a valid coordinate.
func MustParse(s string) Coordinate {
	c, err := ParseCoordinate(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Valid reports whether both components fit in two digits.
func (c Coordinate) Valid() bool {
	return c.Column >= 0 && c.Column <= MaxComponent && c.Row >= 0 && c.Row <= MaxComponent
}

// String renders the coordinate zero-padded to four characters.
func (c Coordinate) String() string {
	return fmt.Sprintf("%02d%02d", c.Column, c.Row)
}

type cube struct{ q, r, s int }

func (c Coordinate) cube() cube {
	q := c.Column - (c.Row-(c.Row&1))/2
	r := c.Row
	return cube{q: q, r: r, s: -q - r}
}

func fromCube(h cube) Coordinate {
	return Coordinate{Column: h.q + (h.r-(h.r&1))/2, Row: h.r}
}

// Distance returns the number of hex steps between a and b.
//
// Postcondition: Distance(a, a) == 0 and Distance(a, b) == Distance(b, a).
func Distance(a, b Coordinate) int {
	ca, cb := a.cube(), b.cube()
	return max(abs(ca.q-cb.q), abs(ca.r-cb.r), abs(ca.s-cb.s))
}

// DistanceBetween parses two coordinate strings and returns their distance.
func DistanceBetween(from, to string) (int, error) {
	a, err := ParseCoordinate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseCoordinate(to)
	if err != nil {
		return 0, err
	}
	return Distance(a, b), nil
}

var directions = [6]cube{
	{q: 1, r: 0, s: -1},
	{q: 1, r: -1, s: 0},
	{q: 0, r: -1, s: 1},
	{q: -1, r: 0, s: 1},
	{q: -1, r: 1, s: 0},
	{q: 0, r: 1, s: -1},
}

// Neighbors returns the adjacent hexes of c that lie on the addressable map.
//
// Postcondition: every returned coordinate is Valid and at Distance 1 from c.
func Neighbors(c Coordinate) []Coordinate {
	h := c.cube()
	out := make([]Coordinate, 0, len(directions))
	for _, d := range directions {
		n := fromCube(cube{q: h.q + d.q, r: h.r + d.r, s: h.s + d.s})
		if n.Valid() {
			out = append(out, n)
		}
	}
	return out
}

// WithinJump reports whether b is reachable from a by a single jump of the
// given rating.
func WithinJump(a, b Coordinate, jump int) bool {
	return jump >= 0 && Distance(a, b) <= jump
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
