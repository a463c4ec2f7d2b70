package main

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/game/dice"
	"github.com/cory-johannsen/traveller/internal/game/world"
)

const sectorDir = "../../content/sectors"

func run(t interface{ Helper() }, src dice.Source, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(src)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRoll_WithModifiers(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(3, 4), "roll", "2d6", "cover:-2", "+1")
	require.NoError(t, err)
	assert.Equal(t, "2d6: [3 4] cover -2 mod +1 = 6\n", out)
}

func TestRoll_NegativeModifierIsNotAFlag(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(3, 4), "roll", "2D6", "-1")
	require.NoError(t, err)
	assert.Contains(t, out, "mod -1 = 6")
}

func TestRoll_Errors(t *testing.T) {
	_, err := run(t, dice.NewFixedSource(1), "roll", "two dice")
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)

	_, err = run(t, dice.NewFixedSource(1), "roll", "999999999999999999d6")
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)

	_, err = run(t, dice.NewFixedSource(1), "roll", "2d6", "cover")
	assert.Error(t, err)

	_, err = run(t, dice.NewFixedSource(1), "roll")
	assert.Error(t, err)
}

func TestRoll_SeedIsReproducible(t *testing.T) {
	first, err := run(t, nil, "--seed", "42", "roll", "3d6")
	require.NoError(t, err)
	second, err := run(t, nil, "--seed", "42", "roll", "3d6")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCheck_SkillAndCharacteristic(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(3, 4), "check", "--skill", "1", "--characteristic", "10", "difficult")
	require.NoError(t, err)
	assert.Equal(t, "2d6: [3 4] skill +1 characteristic +1 = 9 vs Difficult (10+): failure, effect -1\n", out)
}

func TestCheck_Defaults(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(4, 4), "check")
	require.NoError(t, err)
	assert.Equal(t, "2d6: [4 4] = 8 vs Average (8+): success, effect +0\n", out)
}

func TestCheck_NumericDifficultyAndModifiers(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(3, 4), "check", "--dm", "-1", "9", "aim:+2")
	require.NoError(t, err)
	assert.Contains(t, out, "characteristic -1 aim +2 = 8 vs 9+: failure, effect -1")
}

func TestCheck_Unskilled(t *testing.T) {
	out, err := run(t, dice.NewFixedSource(6, 6), "check", "--unskilled")
	require.NoError(t, err)
	assert.Contains(t, out, "skill -3 = 9")
	assert.Contains(t, out, "success, effect +1")
}

func TestCheck_Errors(t *testing.T) {
	_, err := run(t, dice.NewFixedSource(1), "check", "heroic")
	assert.Error(t, err)

	_, err = run(t, dice.NewFixedSource(1), "check", "--skill", "1", "--unskilled")
	assert.Error(t, err)

	_, err = run(t, dice.NewFixedSource(1), "check", "--characteristic", "7", "--dm", "1")
	assert.Error(t, err)
}

func TestUWP_Decode(t *testing.T) {
	out, err := run(t, nil, "uwp", "decode", "a788899-c")
	require.NoError(t, err)
	assert.Contains(t, out, "UWP A788899-C")
	assert.Contains(t, out, "Starport:      A (Excellent)")
	assert.Contains(t, out, "Tech level:    12")
	assert.Contains(t, out, "Trade codes:   Ht Ri")
}

func TestUWP_Encode(t *testing.T) {
	out, err := run(t, nil, "uwp", "encode", "--starport", "a", "--size", "7", "--atmosphere", "8",
		"--hydrographics", "8", "--population", "8", "--government", "9", "--law", "9", "--tech", "12")
	require.NoError(t, err)
	assert.Equal(t, "A788899-C\n", out)

	_, err = run(t, nil, "uwp", "encode", "--starport", "Q")
	assert.Error(t, err)
	_, err = run(t, nil, "uwp", "encode", "--starport", "AB")
	assert.Error(t, err)
}

func TestUWP_Trade(t *testing.T) {
	out, err := run(t, nil, "uwp", "trade", "A788899-C")
	require.NoError(t, err)
	assert.Equal(t, "Ht  High Tech\nRi  Rich\n", out)

	_, err = run(t, nil, "uwp", "trade", "A788899C")
	assert.Error(t, err)
}

func TestJump(t *testing.T) {
	out, err := run(t, nil, "jump", "1910", "1912")
	require.NoError(t, err)
	assert.Equal(t, "1910 to 1912: 2 parsecs (jump-2)\n", out)

	_, err = run(t, nil, "jump", "1910", "191")
	assert.Error(t, err)
}

func TestUPP(t *testing.T) {
	out, err := run(t, nil, "upp", "777a98")
	require.NoError(t, err)
	assert.Contains(t, out, "STR:  7 (+0)")
	assert.Contains(t, out, "INT: 10 (+1)")
	assert.Contains(t, out, "Damage thresholds: physical 7, mental 9")

	_, err = run(t, nil, "upp", "077777")
	assert.Error(t, err)
	_, err = run(t, nil, "upp", "7777")
	assert.Error(t, err)
}

func TestModifier(t *testing.T) {
	cases := map[string]string{"0": "-3\n", "2": "-2\n", "7": "+0\n", "12": "+2\n", "15": "+3\n"}
	for in, want := range cases {
		out, err := run(t, nil, "modifier", in)
		require.NoError(t, err, in)
		assert.Equal(t, want, out, in)
	}
	_, err := run(t, nil, "modifier", "x")
	assert.Error(t, err)
}

func TestSector_List(t *testing.T) {
	out, err := run(t, nil, "sector", "--dir", sectorDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Regina")
	assert.Contains(t, out, "11 systems")
}

func TestSector_SystemsAndNear(t *testing.T) {
	out, err := run(t, nil, "sector", "regina", "--dir", sectorDir)
	require.NoError(t, err)
	assert.Contains(t, out, "1910 Regina")
	assert.Contains(t, out, "Naval,Scout")

	out, err = run(t, nil, "sector", "Regina", "--dir", sectorDir, "--near", "1910", "--jump", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "J1  1810 Jenghe")
	assert.NotContains(t, out, "Dinomn")
}

func TestSector_Unknown(t *testing.T) {
	_, err := run(t, nil, "sector", "Nowhere", "--dir", sectorDir)
	assert.ErrorIs(t, err, world.ErrSectorNotFound)
}

// TestProperty_RollShowsFinalResult verifies that a fixed source always
// yields a line ending in the sum of its faces.
func TestProperty_RollShowsFinalResult(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := rapid.IntRange(1, 6).Draw(rt, "a")
		b := rapid.IntRange(1, 6).Draw(rt, "b")
		out, err := run(rt, dice.NewFixedSource(a, b), "roll", "2d6")
		require.NoError(rt, err)
		assert.True(rt, strings.HasSuffix(out, "= "+strconv.Itoa(a+b)+"\n"), out)
	})
}
