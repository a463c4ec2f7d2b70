package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlSectorFile is the top-level YAML structure for sector files.
type yamlSectorFile struct {
	Sector Sector `yaml:"sector"`
}

// LoadSectorFromFile reads and validates a single sector YAML file.
//
// Precondition: path must point to a sector file.
// Postcondition: Returns a validated Sector or a non-nil error.
func LoadSectorFromFile(path string) (*Sector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sector file %s: %w", path, err)
	}
	return LoadSectorFromBytes(data)
}

// LoadSectorFromBytes parses and validates a sector from YAML bytes.
//
// Postcondition: Returns a validated Sector with normalized systems sorted
// by hex, or a non-nil error.
func LoadSectorFromBytes(data []byte) (*Sector, error) {
	var file yamlSectorFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing sector YAML: %w", err)
	}
	sec := file.Sector
	sec.Name = strings.TrimSpace(sec.Name)
	for _, sys := range sec.Systems {
		sys.Normalize()
		sys.Sector = sec.Name
	}
	if err := sec.Validate(); err != nil {
		return nil, fmt.Errorf("validating sector: %w", err)
	}
	sec.SortSystems()
	return &sec, nil
}

// LoadSectors loads every YAML file in dir as a sector.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all validated sectors (possibly none) or the first
// error encountered.
func LoadSectors(dir string) ([]*Sector, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	sectors := make([]*Sector, 0, len(files))
	for _, path := range files {
		sec, err := LoadSectorFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading sector from %s: %w", filepath.Base(path), err)
		}
		sectors = append(sectors, sec)
	}
	return sectors, nil
}

// MarshalSector renders a sector in the file format LoadSectorFromBytes reads.
func MarshalSector(s *Sector) ([]byte, error) {
	return yaml.Marshal(yamlSectorFile{Sector: *s})
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading sector directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !isYAML(e.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}
