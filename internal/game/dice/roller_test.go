package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/game/dice"
)

func TestRollDice_NoModifiers(t *testing.T) {
	r, err := dice.RollDice("2d6", dice.NewCryptoSource())
	require.NoError(t, err)
	require.Len(t, r.Individual, 2)
	for _, d := range r.Individual {
		assert.GreaterOrEqual(t, d, 1)
		assert.LessOrEqual(t, d, 6)
	}
	assert.Empty(t, r.AppliedModifiers)
	assert.Equal(t, r.Total, r.FinalResult)
}

func TestRollDice_InlineAndCallerModifiers(t *testing.T) {
	src := dice.NewFixedSource(2, 5, 6)
	r, err := dice.RollDice("3d6-2", src,
		dice.Modifier{Name: "cover", Value: 1},
		dice.Modifier{Name: "range", Value: -4},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 5, 6}, r.Individual)
	assert.Equal(t, 13, r.Total)
	assert.Equal(t, []dice.Modifier{
		{Name: "base", Value: -2},
		{Name: "cover", Value: 1},
		{Name: "range", Value: -4},
	}, r.AppliedModifiers)
	assert.Equal(t, 8, r.FinalResult)
	assert.Equal(t, "3d6-2", r.Notation)
}

func TestRollDice_InvalidNotation(t *testing.T) {
	_, err := dice.RollDice("d6", dice.NewCryptoSource())
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)
}

func TestRollDice_OversizedNotationIsAnError(t *testing.T) {
	src := dice.NewSeededSource(1)
	for _, in := range []string{"999999999999999999d6", "2d999999999999999999"} {
		assert.NotPanics(t, func() {
			_, err := dice.RollDice(in, src)
			assert.ErrorIs(t, err, dice.ErrInvalidNotation, in)
		})
	}

	r := dice.NewLoggedRoller(src, zaptest.NewLogger(t), nil)
	_, err := r.RollDice("1001d6")
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)
}

func TestRollDice_ZeroInlineModifierNotRecorded(t *testing.T) {
	r, err := dice.RollDice("2d6+0", dice.NewSeededSource(7))
	require.NoError(t, err)
	assert.Empty(t, r.AppliedModifiers)
	assert.Equal(t, r.Total, r.FinalResult)
}

// Property: Total == sum(Individual) and FinalResult == Total + sum(modifiers).
func TestProperty_RollDice_Totals(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		expr := dice.Expression{
			Raw:      "NdS",
			Count:    rapid.IntRange(1, 20).Draw(rt, "count"),
			Sides:    rapid.IntRange(1, 20).Draw(rt, "sides"),
			Modifier: rapid.IntRange(-10, 10).Draw(rt, "inline"),
		}
		values := rapid.SliceOfN(rapid.IntRange(-5, 5), 0, 4).Draw(rt, "mods")
		mods := make([]dice.Modifier, len(values))
		for i, v := range values {
			mods[i] = dice.Modifier{Name: "m", Value: v}
		}

		r := dice.Roll(expr, dice.NewSeededSource(rapid.Int64().Draw(rt, "seed")), mods...)
		if len(r.Individual) != expr.Count {
			rt.Fatalf("len(Individual) = %d, want %d", len(r.Individual), expr.Count)
		}
		sum := 0
		for _, d := range r.Individual {
			if d < 1 || d > expr.Sides {
				rt.Fatalf("die %d outside [1, %d]", d, expr.Sides)
			}
			sum += d
		}
		if r.Total != sum {
			rt.Fatalf("Total %d != sum %d", r.Total, sum)
		}
		want := sum + expr.Modifier
		for _, v := range values {
			want += v
		}
		if r.FinalResult != want {
			rt.Fatalf("FinalResult %d != %d", r.FinalResult, want)
		}
	})
}

type recordingRecorder struct {
	rolls  int
	checks int
	last   bool
}

func (r *recordingRecorder) ObserveRoll(string, int)   { r.rolls++ }
func (r *recordingRecorder) ObserveTaskCheck(ok bool, _ int) {
	r.checks++
	r.last = ok
}

func TestRoller_LogsAndRecords(t *testing.T) {
	rec := &recordingRecorder{}
	roller := dice.NewLoggedRoller(dice.NewFixedSource(6, 6), zaptest.NewLogger(t), rec)

	r, err := roller.RollDice("2d6+1")
	require.NoError(t, err)
	assert.Equal(t, 13, r.FinalResult)
	assert.Equal(t, 1, rec.rolls)

	_, err = roller.RollDice("bogus")
	assert.ErrorIs(t, err, dice.ErrInvalidNotation)
	assert.Equal(t, 1, rec.rolls)

	res := roller.TaskCheck(0, 0, 8)
	assert.True(t, res.Success)
	assert.Equal(t, 1, rec.checks)
	assert.True(t, rec.last)
	assert.NotNil(t, roller.Source())
}

func TestRoller_NilRecorder(t *testing.T) {
	roller := dice.NewLoggedRoller(dice.NewSeededSource(7), zaptest.NewLogger(t), nil)
	assert.NotPanics(t, func() {
		_, _ = roller.RollDice("1d20")
		_ = roller.TaskCheck(1, 1, 8)
	})
}
