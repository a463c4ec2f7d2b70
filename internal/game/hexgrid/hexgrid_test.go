package hexgrid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/game/hexgrid"
)

func TestDistanceBetween_KnownVectors(t *testing.T) {
	cases := []struct {
		from, to string
		want     int
	}{
		{"0101", "0102", 1},
		{"0101", "0201", 1},
		{"0101", "0303", 3},
		{"1910", "2716", 11},
		{"1910", "1910", 0},
		{"0000", "0000", 0},
	}
	for _, c := range cases {
		got, err := hexgrid.DistanceBetween(c.from, c.to)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s -> %s", c.from, c.to)
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := hexgrid.ParseCoordinate("1910")
	require.NoError(t, err)
	assert.Equal(t, hexgrid.Coordinate{Column: 19, Row: 10}, c)
	assert.Equal(t, "1910", c.String())
	assert.Equal(t, "0102", hexgrid.Coordinate{Column: 1, Row: 2}.String())
}

func TestParseCoordinate_Invalid(t *testing.T) {
	for _, in := range []string{"", "101", "01010", "01a1", "-101", " 101", "ABCD"} {
		_, err := hexgrid.ParseCoordinate(in)
		assert.ErrorIs(t, err, hexgrid.ErrInvalidCoordinate, "input %q", in)
	}
	_, err := hexgrid.DistanceBetween("0101", "x")
	assert.ErrorIs(t, err, hexgrid.ErrInvalidCoordinate)
	_, err = hexgrid.DistanceBetween("x", "0101")
	assert.ErrorIs(t, err, hexgrid.ErrInvalidCoordinate)
	assert.Panics(t, func() { hexgrid.MustParse("1") })
}

func TestNeighbors(t *testing.T) {
	c := hexgrid.MustParse("1010")
	ns := hexgrid.Neighbors(c)
	require.Len(t, ns, 6)
	for _, n := range ns {
		assert.Equal(t, 1, hexgrid.Distance(c, n), n.String())
	}
	assert.NotEmpty(t, hexgrid.Neighbors(hexgrid.MustParse("0000")))
	assert.Less(t, len(hexgrid.Neighbors(hexgrid.MustParse("0000"))), 6)
}

func TestWithinJump(t *testing.T) {
	a := hexgrid.MustParse("1910")
	b := hexgrid.MustParse("2716")
	assert.False(t, hexgrid.WithinJump(a, b, 6))
	assert.True(t, hexgrid.WithinJump(a, b, 11))
	assert.True(t, hexgrid.WithinJump(a, a, 0))
	assert.False(t, hexgrid.WithinJump(a, a, -1))
}

func genCoordinate() *rapid.Generator[hexgrid.Coordinate] {
	return rapid.Custom(func(t *rapid.T) hexgrid.Coordinate {
		return hexgrid.Coordinate{
			Column: rapid.IntRange(0, 99).Draw(t, "column"),
			Row:    rapid.IntRange(0, 99).Draw(t, "row"),
		}
	})
}

func TestProperty_StringRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := genCoordinate().Draw(rt, "c")
		got, err := hexgrid.ParseCoordinate(c.String())
		if err != nil {
			rt.Fatal(err)
		}
		if got != c {
			rt.Fatalf("round trip %v -> %v", c, got)
		}
	})
}

// Property: Distance is a metric.
func TestProperty_DistanceMetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genCoordinate().Draw(rt, "a")
		b := genCoordinate().Draw(rt, "b")
		c := genCoordinate().Draw(rt, "c")
		if hexgrid.Distance(a, a) != 0 {
			rt.Fatalf("Distance(a, a) != 0 for %v", a)
		}
		ab := hexgrid.Distance(a, b)
		if ab != hexgrid.Distance(b, a) {
			rt.Fatalf("asymmetric distance for %v, %v", a, b)
		}
		if a != b && ab <= 0 {
			rt.Fatalf("distinct hexes %v, %v at distance %d", a, b, ab)
		}
		if hexgrid.Distance(a, c) > ab+hexgrid.Distance(b, c) {
			rt.Fatalf("triangle inequality violated for %v %v %v", a, b, c)
		}
	})
}

// Property: moving along a single row costs exactly the column difference.
func TestProperty_SameRowDistance(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		row := rapid.IntRange(0, 99).Draw(rt, "row")
		c1 := rapid.IntRange(0, 99).Draw(rt, "c1")
		c2 := rapid.IntRange(0, 99).Draw(rt, "c2")
		d := hexgrid.Distance(hexgrid.Coordinate{Column: c1, Row: row}, hexgrid.Coordinate{Column: c2, Row: row})
		want := c1 - c2
		if want < 0 {
			want = -want
		}
		if d != want {
			rt.Fatalf("row %d: distance %d, want %d", row, d, want)
		}
	})
}
