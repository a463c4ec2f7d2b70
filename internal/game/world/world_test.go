package world_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/traveller/internal/game/uwp"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

const sampleSector = `
sector:
  name: Regina
  systems:
    - name: Regina
      hex: "1910"
      uwp: a788899-c
      bases: [n, S]
      gas_giant: true
      allegiance: Im
    - name: Yori
      hex: "2110"
      uwp: C560757-A
    - name: Efate
      hex: "1705"
      uwp: A646930-D
    - name: Pysadi
      hex: "2716"
      uwp: E120110-9
`

func loadSample(t *testing.T) *world.Sector {
	t.Helper()
	s, err := world.LoadSectorFromBytes([]byte(sampleSector))
	require.NoError(t, err)
	return s
}

func TestLoadSectorFromBytes(t *testing.T) {
	s := loadSample(t)
	assert.Equal(t, "Regina", s.Name)
	require.Len(t, s.Systems, 4)
	assert.Equal(t, "1705", s.Systems[0].Hex, "systems sorted by hex")

	regina, ok := s.System("1910")
	require.True(t, ok)
	assert.Equal(t, "A788899-C", regina.UWP)
	assert.Equal(t, []string{"N", "S"}, regina.Bases)
	assert.Equal(t, []string{"Naval", "Scout"}, regina.BaseNames())
	assert.Equal(t, "Regina", regina.Sector)
	assert.Equal(t, []uwp.Code{uwp.HighTech, uwp.Rich}, regina.TradeCodes())

	p, err := regina.Profile()
	require.NoError(t, err)
	assert.Equal(t, 12, p.TechLevel)
}

func TestLoadSectorFromBytes_Invalid(t *testing.T) {
	cases := map[string]string{
		"duplicate hex": `
sector:
  name: Dup
  systems:
    - {name: A, hex: "0101", uwp: A788899-C}
    - {name: B, hex: "0101", uwp: A788899-C}
`,
		"bad uwp": `
sector:
  name: Bad
  systems:
    - {name: A, hex: "0101", uwp: Z788899-C}
`,
		"bad hex": `
sector:
  name: Bad
  systems:
    - {name: A, hex: "101", uwp: A788899-C}
`,
		"bad base": `
sector:
  name: Bad
  systems:
    - {name: A, hex: "0101", uwp: A788899-C, bases: [Q]}
`,
		"no name": `
sector:
  systems: []
`,
		"not yaml": "sector: [",
	}
	for name, doc := range cases {
		_, err := world.LoadSectorFromBytes([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadSectorFromBytes_ReportsAllProblems(t *testing.T) {
	_, err := world.LoadSectorFromBytes([]byte(`
sector:
  name: Bad
  systems:
    - {name: A, hex: "01x1", uwp: A788899}
`))
	require.Error(t, err)
	assert.ErrorIs(t, err, uwp.ErrInvalidUWP)
	assert.Contains(t, err.Error(), "invalid coordinate")
}

func TestStarSystem_JumpDistance(t *testing.T) {
	s := loadSample(t)
	a, _ := s.System("1910")
	b, _ := s.System("2716")
	d, err := a.JumpDistance(b)
	require.NoError(t, err)
	assert.Equal(t, 11, d)
}

func TestMarshalSector_RoundTrip(t *testing.T) {
	s := loadSample(t)
	data, err := world.MarshalSector(s)
	require.NoError(t, err)
	again, err := world.LoadSectorFromBytes(data)
	require.NoError(t, err)
	require.Len(t, again.Systems, len(s.Systems))
	for i := range s.Systems {
		assert.Equal(t, s.Systems[i].Hex, again.Systems[i].Hex)
		assert.Equal(t, s.Systems[i].UWP, again.Systems[i].UWP)
	}
}

func writeSector(t *testing.T, dir, file, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
}

func TestLoadSectors(t *testing.T) {
	dir := t.TempDir()
	writeSector(t, dir, "regina.yaml", sampleSector)
	writeSector(t, dir, "README.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	sectors, err := world.LoadSectors(dir)
	require.NoError(t, err)
	require.Len(t, sectors, 1)

	writeSector(t, dir, "broken.yml", "sector: [")
	_, err = world.LoadSectors(dir)
	assert.Error(t, err)

	_, err = world.LoadSectors(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadSectors_ShippedContent(t *testing.T) {
	sectors, err := world.LoadSectors(filepath.Join("..", "..", "..", "content", "sectors"))
	require.NoError(t, err)
	require.NotEmpty(t, sectors)
}
