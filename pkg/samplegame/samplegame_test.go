package samplegame_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/samplegame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

func rpsSchema(t *testing.T) *symschema.Schema {
	t.Helper()
	s, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "all", Players: 2, Strategies: []string{"rock", "paper", "scissors"}},
	})
	require.NoError(t, err)
	return s
}

func TestNewSampleGame_ShapeViolations(t *testing.T) {
	s := rpsSchema(t)
	p, err := profile.New(s, []int{2, 0, 0})
	require.NoError(t, err)

	t.Run("wrong observation length", func(t *testing.T) {
		_, err := samplegame.NewSampleGame(s, []samplegame.SampleRow{
			{Profile: p, Payoffs: [][]float64{{1, 0}}},
		})
		require.Error(t, err)
	})
	t.Run("nonzero at unsupported strategy", func(t *testing.T) {
		_, err := samplegame.NewSampleGame(s, []samplegame.SampleRow{
			{Profile: p, Payoffs: [][]float64{{1, 2, 0}}},
		})
		require.Error(t, err)
	})
}

func TestToPayoffGame_CollapsesToMean(t *testing.T) {
	s := rpsSchema(t)
	p, err := profile.New(s, []int{1, 1, 0})
	require.NoError(t, err)
	sg, err := samplegame.NewSampleGame(s, []samplegame.SampleRow{
		{Profile: p, Payoffs: [][]float64{{-1, 1, 0}, {-2, 2, 0}, {0, 0, 0}}},
	})
	require.NoError(t, err)

	pg, err := sg.ToPayoffGame()
	require.NoError(t, err)
	got := pg.GetPayoffs(p)
	require.InDelta(t, -1.0, got[0], 1e-9)
	require.InDelta(t, 1.0, got[1], 1e-9)
}

func TestResample_SingleObservationIsNoop(t *testing.T) {
	s := rpsSchema(t)
	p, err := profile.New(s, []int{1, 1, 0})
	require.NoError(t, err)
	sg, err := samplegame.NewSampleGame(s, []samplegame.SampleRow{
		{Profile: p, Payoffs: [][]float64{{-1, 1, 0}}},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for _, gran := range []samplegame.Granularity{
		samplegame.PerProfile, samplegame.PerProfileRole, samplegame.PerProfileRoleStrategy,
	} {
		out := sg.Resample(gran, rng)
		rows := out.Rows()
		require.Len(t, rows, 1)
		require.Len(t, rows[0].Payoffs, 1)
		require.Equal(t, []float64{-1, 1, 0}, rows[0].Payoffs[0])
	}
}

func TestResample_PreservesShapeAndSupport(t *testing.T) {
	s := rpsSchema(t)
	p, err := profile.New(s, []int{1, 1, 0})
	require.NoError(t, err)
	sg, err := samplegame.NewSampleGame(s, []samplegame.SampleRow{
		{Profile: p, Payoffs: [][]float64{{-1, 1, 0}, {-2, 2, 0}, {-3, 3, 0}}},
	})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	for _, gran := range []samplegame.Granularity{
		samplegame.PerProfile, samplegame.PerProfileRole, samplegame.PerProfileRoleStrategy,
	} {
		out := sg.Resample(gran, rng)
		rows := out.Rows()
		require.Len(t, rows[0].Payoffs, 3)
		for _, obs := range rows[0].Payoffs {
			require.Equal(t, 0.0, obs[2], "unsupported strategy stays 0 under resampling")
			require.False(t, math.IsNaN(obs[0]))
		}
	}
}
