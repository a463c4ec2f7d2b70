package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
)

var (
	// ErrSectorNotFound is returned when no loaded sector has the given name.
	ErrSectorNotFound = errors.New("sector not found")
	// ErrSystemNotFound is returned when a sector has no system at the given hex.
	ErrSystemNotFound = errors.New("star system not found")
)

// Reachable is a system within jump range of an origin.
type Reachable struct {
	System   *StarSystem
	Distance int
}

// Atlas provides thread-safe access to the loaded sectors. Sector names are
// matched case-insensitively.
type Atlas struct {
	mu      sync.RWMutex
	sectors map[string]*Sector
}

// NewAtlas creates an Atlas from sectors.
//
// Postcondition: Returns an Atlas, or an error on duplicate sector names.
func NewAtlas(sectors []*Sector) (*Atlas, error) {
	a := &Atlas{}
	if err := a.Replace(sectors); err != nil {
		return nil, err
	}
	return a, nil
}

// Replace swaps the atlas contents for sectors atomically.
//
// Postcondition: On error the previous contents are kept.
func (a *Atlas) Replace(sectors []*Sector) error {
	idx := make(map[string]*Sector, len(sectors))
	for _, s := range sectors {
		key := strings.ToLower(s.Name)
		if _, dup := idx[key]; dup {
			return fmt.Errorf("duplicate sector name %q", s.Name)
		}
		idx[key] = s
	}
	a.mu.Lock()
	a.sectors = idx
	a.mu.Unlock()
	return nil
}

// Sector returns the sector named name.
func (a *Atlas) Sector(name string) (*Sector, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	s, ok := a.sectors[strings.ToLower(name)]
	return s, ok
}

// Sectors returns all loaded sectors sorted by name.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (a *Atlas) Sectors() []*Sector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*Sector, 0, len(a.sectors))
	for _, s := range a.sectors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SystemCount returns the number of systems across all sectors.
func (a *Atlas) SystemCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	n := 0
	for _, s := range a.sectors {
		n += len(s.Systems)
	}
	return n
}

// Lookup returns the system at hex in the named sector.
//
// Postcondition: Returns the system, or an error wrapping ErrSectorNotFound
// or ErrSystemNotFound.
func (a *Atlas) Lookup(sector, hex string) (*StarSystem, error) {
	s, ok := a.Sector(sector)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSectorNotFound, sector)
	}
	sys, ok := s.System(hex)
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrSystemNotFound, s.Name, hex)
	}
	return sys, nil
}

// Within returns every other system of the sector within jump hexes of hex,
// nearest first. The origin hex need not hold a system.
func (a *Atlas) Within(sector, hex string, jump int) ([]Reachable, error) {
	origin, err := hexgrid.ParseCoordinate(hex)
	if err != nil {
		return nil, err
	}
	s, ok := a.Sector(sector)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSectorNotFound, sector)
	}
	var out []Reachable
	for _, sys := range s.Systems {
		c, err := sys.Coordinate()
		if err != nil || c == origin {
			continue
		}
		if d := hexgrid.Distance(origin, c); hexgrid.WithinJump(origin, c, jump) {
			out = append(out, Reachable{System: sys, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].System.Hex < out[j].System.Hex
	})
	return out, nil
}
