package ehex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/traveller/internal/game/ehex"
)

func TestDigit_Boundaries(t *testing.T) {
	d, err := ehex.Digit(0)
	require.NoError(t, err)
	assert.Equal(t, byte('0'), d)

	d, err = ehex.Digit(10)
	require.NoError(t, err)
	assert.Equal(t, byte('A'), d)

	d, err = ehex.Digit(35)
	require.NoError(t, err)
	assert.Equal(t, byte('Z'), d)
}

func TestDigit_OutOfRange(t *testing.T) {
	_, err := ehex.Digit(-1)
	assert.ErrorIs(t, err, ehex.ErrOutOfRange)
	_, err = ehex.Digit(36)
	assert.ErrorIs(t, err, ehex.ErrOutOfRange)
}

func TestValue_CaseInsensitive(t *testing.T) {
	upper, err := ehex.Value('C')
	require.NoError(t, err)
	lower, err := ehex.Value('c')
	require.NoError(t, err)
	assert.Equal(t, 12, upper)
	assert.Equal(t, upper, lower)
}

func TestValue_Invalid(t *testing.T) {
	for _, c := range []byte{'-', ' ', '!', 0xFF} {
		_, err := ehex.Value(c)
		assert.ErrorIs(t, err, ehex.ErrInvalidDigit, "byte %q", c)
	}
}

// Property: Value inverts Digit over the whole alphabet.
func TestProperty_DigitValueRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := rapid.IntRange(0, ehex.MaxValue).Draw(rt, "v")
		d, err := ehex.Digit(v)
		if err != nil {
			rt.Fatal(err)
		}
		got, err := ehex.Value(d)
		if err != nil {
			rt.Fatal(err)
		}
		if got != v {
			rt.Fatalf("Value(Digit(%d)) = %d", v, got)
		}
	})
}
