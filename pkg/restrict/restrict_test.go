package restrict_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/restrict"
	"github.com/behrlich/rolesym/pkg/rsgame"
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

func TestNew_RejectsEmptyRole(t *testing.T) {
	s := rpsSchema(t)
	_, err := restrict.New(s, []bool{false, false, false})
	require.Error(t, err)
}

func TestNew_SubSchemaKeepsNamesAndOrder(t *testing.T) {
	s := rpsSchema(t)
	// canonical order is paper, rock, scissors: keep rock and scissors, drop paper
	rz, err := restrict.New(s, []bool{false, true, true})
	require.NoError(t, err)

	sub := rz.Sub()
	require.Equal(t, 2, sub.NumStrats())
	require.Equal(t, []string{"rock", "scissors"}, sub.RoleStrategies(0))
}

func TestTranslateProfile_RoundTrip(t *testing.T) {
	s := rpsSchema(t)
	rz, err := restrict.New(s, []bool{true, false, true})
	require.NoError(t, err)

	p, err := profile.New(s, []int{1, 0, 1})
	require.NoError(t, err)

	sp, err := rz.TranslateProfile(p)
	require.NoError(t, err)
	require.Equal(t, profile.Profile{1, 1}, sp)

	back := rz.ExpandProfile(sp)
	require.True(t, back.Equal(p))
}

func TestTranslateProfile_RejectsOutsideMass(t *testing.T) {
	s := rpsSchema(t)
	rz, err := restrict.New(s, []bool{true, false, true})
	require.NoError(t, err)

	p, err := profile.New(s, []int{1, 1, 0})
	require.NoError(t, err)

	_, err = rz.TranslateProfile(p)
	require.Error(t, err)
}

func TestSubgame_FiltersAndTranslatesRows(t *testing.T) {
	s := rpsSchema(t)
	mk := func(counts []int, pay []float64) rsgame.PayoffRow {
		p, err := profile.New(s, counts)
		require.NoError(t, err)
		return rsgame.PayoffRow{Profile: p, Payoffs: pay}
	}
	g, err := rsgame.NewPayoffGame(s, []rsgame.PayoffRow{
		mk([]int{2, 0, 0}, []float64{0, 0, 0}),
		mk([]int{0, 0, 2}, []float64{0, 0, 0}),
		mk([]int{1, 0, 1}, []float64{1, 0, -1}),
		mk([]int{1, 1, 0}, []float64{-1, 1, 0}), // has rock, excluded from sub-game
	})
	require.NoError(t, err)

	rz, err := restrict.New(s, []bool{true, false, true})
	require.NoError(t, err)

	sub, err := restrict.Subgame(rz, g)
	require.NoError(t, err)
	require.True(t, sub.IsComplete(), "paper/scissors-only restriction of RPS is itself complete")
	require.Equal(t, 3, sub.NumProfiles())
}
