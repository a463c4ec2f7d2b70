// Package uwp encodes and decodes Universal World Profiles and derives the
// trade classifications implied by them.
package uwp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/traveller/internal/game/ehex"
)

// Length is the length of every well-formed UWP string, e.g. "A788899-C".
const Length = 9

// hyphenIndex is the position of the separator before the tech level digit.
const hyphenIndex = 7

// Starports lists the valid starport classes, best to worst.
const Starports = "ABCDEX"

// ErrInvalidUWP is returned by Decode for malformed input.
var ErrInvalidUWP = errors.New("invalid UWP")

// ErrInvalidProfile is returned by Encode for a profile with unrepresentable fields.
var ErrInvalidProfile = errors.New("invalid world profile")

// Profile is a decoded Universal World Profile.
type Profile struct {
	Starport      byte `json:"starport"`
	Size          int  `json:"size"`
	Atmosphere    int  `json:"atmosphere"`
	Hydrographics int  `json:"hydrographics"`
	Population    int  `json:"population"`
	Government    int  `json:"government"`
	LawLevel      int  `json:"lawLevel"`
	TechLevel     int  `json:"techLevel"`
}

// digits returns pointers to the numeric fields in wire order, tech level last.
func (p *Profile) digits() []*int {
	return []*int{
		&p.Size, &p.Atmosphere, &p.Hydrographics, &p.Population,
		&p.Government, &p.LawLevel, &p.TechLevel,
	}
}

var digitNames = []string{
	"size", "atmosphere", "hydrographics", "population",
	"government", "lawLevel", "techLevel",
}

// ValidStarport reports whether c names a starport class. Lowercase is accepted.
func ValidStarport(c byte) bool {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	return strings.IndexByte(Starports, c) >= 0
}

// Decode parses a UWP string of the form "SSAHPGL-T".
//
// Letters are accepted in either case; the decoded Starport is uppercase.
// Postcondition: Returns the Profile, or an error wrapping ErrInvalidUWP.
func Decode(s string) (Profile, error) {
	if len(s) != Length {
		return Profile{}, fmt.Errorf("%w: %q must be %d characters", ErrInvalidUWP, s, Length)
	}
	if s[hyphenIndex] != '-' {
		return Profile{}, fmt.Errorf("%w: %q missing '-' before tech level", ErrInvalidUWP, s)
	}
	if !ValidStarport(s[0]) {
		return Profile{}, fmt.Errorf("%w: %q has invalid starport %q", ErrInvalidUWP, s, s[0])
	}

	p := Profile{Starport: strings.ToUpper(s[:1])[0]}
	raw := s[1:hyphenIndex] + s[hyphenIndex+1:]
	for i, dst := range p.digits() {
		v, err := ehex.Value(raw[i])
		if err != nil {
			return Profile{}, fmt.Errorf("%w: %q %s: %v", ErrInvalidUWP, s, digitNames[i], err)
		}
		*dst = v
	}
	return p, nil
}

// Encode renders p as an uppercase UWP string.
//
// Postcondition: Returns a Length-character string, or an error wrapping
// ErrInvalidProfile when the starport is unknown or a field is outside 0-35.
func Encode(p Profile) (string, error) {
	if !ValidStarport(p.Starport) {
		return "", fmt.Errorf("%w: starport %q", ErrInvalidProfile, p.Starport)
	}
	var b strings.Builder
	b.Grow(Length)
	b.WriteByte(strings.ToUpper(string(p.Starport))[0])
	for i, v := range p.digits() {
		d, err := ehex.Digit(*v)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrInvalidProfile, digitNames[i], err)
		}
		if i == len(digitNames)-1 {
			b.WriteByte('-')
		}
		b.WriteByte(d)
	}
	return b.String(), nil
}

// String returns the encoded profile, or a placeholder for invalid profiles.
func (p Profile) String() string {
	s, err := Encode(p)
	if err != nil {
		return "?????????"
	}
	return s
}

// StarportQuality returns a short description of a starport class.
func StarportQuality(c byte) string {
	switch c {
	case 'A', 'a':
		return "Excellent"
	case 'B', 'b':
		return "Good"
	case 'C', 'c':
		return "Routine"
	case 'D', 'd':
		return "Poor"
	case 'E', 'e':
		return "Frontier"
	case 'X', 'x':
		return "No starport"
	}
	return "Unknown"
}
