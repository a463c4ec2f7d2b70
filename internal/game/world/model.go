// Package world models star systems and the sector maps that hold them.
package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
	"github.com/cory-johannsen/traveller/internal/game/uwp"
)

// Known base codes.
var baseCodes = map[string]string{
	"N": "Naval",
	"S": "Scout",
	"W": "Way station",
	"D": "Depot",
	"M": "Military",
}

// StarSystem is a world on a sector map.
//
// Hex and UWP hold their textual wire formats ("1910", "A788899-C").
type StarSystem struct {
	ID         string   `yaml:"-" json:"id,omitempty"`
	CampaignID string   `yaml:"-" json:"campaignId,omitempty"`
	Sector     string   `yaml:"-" json:"sector,omitempty"`
	Name       string   `yaml:"name" json:"name"`
	Hex        string   `yaml:"hex" json:"hex"`
	UWP        string   `yaml:"uwp" json:"uwp"`
	Bases      []string `yaml:"bases,omitempty" json:"bases,omitempty"`
	GasGiant   bool     `yaml:"gas_giant" json:"gasGiant"`
	Allegiance string   `yaml:"allegiance,omitempty" json:"allegiance,omitempty"`
	Notes      string   `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Coordinate parses the system's hex.
func (s *StarSystem) Coordinate() (hexgrid.Coordinate, error) {
	return hexgrid.ParseCoordinate(s.Hex)
}

// Profile decodes the system's UWP.
func (s *StarSystem) Profile() (uwp.Profile, error) {
	return uwp.Decode(s.UWP)
}

// TradeCodes returns the trade classifications of the system, or nil when
// its UWP does not decode.
func (s *StarSystem) TradeCodes() []uwp.Code {
	p, err := s.Profile()
	if err != nil {
		return nil
	}
	return uwp.TradeClassifications(p)
}

// JumpDistance returns the hex distance from s to other.
func (s *StarSystem) JumpDistance(other *StarSystem) (int, error) {
	return hexgrid.DistanceBetween(s.Hex, other.Hex)
}

// Normalize upper-cases the UWP and base codes and trims the name.
func (s *StarSystem) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.UWP = strings.ToUpper(strings.TrimSpace(s.UWP))
	for i, b := range s.Bases {
		s.Bases[i] = strings.ToUpper(strings.TrimSpace(b))
	}
}

// Validate checks the name, hex, UWP and base codes, reporting every problem.
func (s *StarSystem) Validate() error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if _, err := s.Coordinate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.Profile(); err != nil {
		errs = append(errs, err)
	}
	for _, b := range s.Bases {
		if _, ok := baseCodes[b]; !ok {
			errs = append(errs, fmt.Errorf("unknown base code %q", b))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("system %q at %q: %w", s.Name, s.Hex, errors.Join(errs...))
	}
	return nil
}

// BaseNames returns the descriptive names of the system's bases.
func (s *StarSystem) BaseNames() []string {
	out := make([]string, 0, len(s.Bases))
	for _, b := range s.Bases {
		if n, ok := baseCodes[b]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Sector is a named map of star systems.
type Sector struct {
	Name    string        `yaml:"name"`
	Systems []*StarSystem `yaml:"systems"`
}

// Validate checks every system and that no two systems share a hex.
//
// Postcondition: Returns nil, or an error joining all problems found.
func (s *Sector) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, errors.New("sector name must not be empty"))
	}
	seen := make(map[string]string, len(s.Systems))
	for _, sys := range s.Systems {
		if err := sys.Validate(); err != nil {
			errs = append(errs, err)
		}
		if prev, dup := seen[sys.Hex]; dup {
			errs = append(errs, fmt.Errorf("hex %s holds both %q and %q", sys.Hex, prev, sys.Name))
		}
		seen[sys.Hex] = sys.Name
	}
	if len(errs) > 0 {
		return fmt.Errorf("sector %q: %w", s.Name, errors.Join(errs...))
	}
	return nil
}

// System returns the system at hex.
func (s *Sector) System(hex string) (*StarSystem, bool) {
	for _, sys := range s.Systems {
		if sys.Hex == hex {
			return sys, true
		}
	}
	return nil, false
}

// SortSystems orders systems by hex.
func (s *Sector) SortSystems() {
	sort.Slice(s.Systems, func(i, j int) bool { return s.Systems[i].Hex < s.Systems[j].Hex })
}
