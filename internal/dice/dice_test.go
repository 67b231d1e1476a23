package dice

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		expr string
		want Spec
	}{
		{"d20", Spec{Count: 1, Sides: 20}},
		{"3d6", Spec{Count: 3, Sides: 6}},
		{"2d8+4", Spec{Count: 2, Sides: 8, Modifier: 4}},
		{"d20-1", Spec{Count: 1, Sides: 20, Modifier: -1}},
		{" 1 d 12 ", Spec{Count: 1, Sides: 12}},
		{"D6", Spec{Count: 1, Sides: 6}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.expr)
		require.NoError(t, err, tc.expr)
		require.Equal(t, tc.want, got, tc.expr)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"", "20", "d", "d1", "0d6", "2x8", "d6+", "999d6"} {
		_, err := Parse(expr)
		require.Error(t, err, expr)
	}
}

func TestRollBounds(t *testing.T) {
	t.Parallel()

	r := New(rand.NewSource(1))
	spec := Spec{Count: 4, Sides: 6, Modifier: 2}
	for i := 0; i < 500; i++ {
		roll := r.Roll(spec)
		require.Len(t, roll.Results, 4)
		sum := 0
		for _, v := range roll.Results {
			require.GreaterOrEqual(t, v, 1)
			require.LessOrEqual(t, v, 6)
			sum += v
		}
		require.Equal(t, sum+2, roll.Total)
		require.Zero(t, roll.Dropped)
	}
}

func TestRollAdvantageKeepsHigher(t *testing.T) {
	t.Parallel()

	r := New(rand.NewSource(7))
	spec := Spec{Count: 1, Sides: 20, Mode: ModeAdvantage}
	for i := 0; i < 500; i++ {
		roll := r.Roll(spec)
		require.Len(t, roll.Results, 1)
		require.GreaterOrEqual(t, roll.Results[0], roll.Dropped)
	}
}

func TestRollDisadvantageKeepsLower(t *testing.T) {
	t.Parallel()

	r := New(rand.NewSource(7))
	spec := Spec{Count: 1, Sides: 20, Mode: ModeDisadvantage}
	for i := 0; i < 500; i++ {
		roll := r.Roll(spec)
		require.LessOrEqual(t, roll.Results[0], roll.Dropped)
	}
}

func TestRollModeIgnoredOffD20(t *testing.T) {
	t.Parallel()

	r := New(rand.NewSource(3))
	roll := r.Roll(Spec{Count: 2, Sides: 6, Mode: ModeAdvantage})
	require.Len(t, roll.Results, 2)
	require.Zero(t, roll.Dropped)
}

func TestCriticalAndFumbleFlags(t *testing.T) {
	t.Parallel()

	r := New(rand.NewSource(11))
	sawCrit, sawFumble := false, false
	for i := 0; i < 2000 && !(sawCrit && sawFumble); i++ {
		roll := r.Roll(Spec{Count: 1, Sides: 20})
		if roll.Critical {
			require.Equal(t, 20, roll.Results[0])
			sawCrit = true
		}
		if roll.Fumble {
			require.Equal(t, 1, roll.Results[0])
			sawFumble = true
		}
	}
	require.True(t, sawCrit, "expected at least one natural 20 in 2000 rolls")
	require.True(t, sawFumble, "expected at least one natural 1 in 2000 rolls")
}

func TestSpecString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1d20", Spec{Count: 1, Sides: 20}.String())
	require.Equal(t, "2d8+4", Spec{Count: 2, Sides: 8, Modifier: 4}.String())
	require.Equal(t, "1d20-1 (adv)", Spec{Count: 1, Sides: 20, Modifier: -1, Mode: ModeAdvantage}.String())
}
