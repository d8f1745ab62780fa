package symschema_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

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

func TestNewSchema_CanonicalOrder(t *testing.T) {
	s, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "buyer", Players: 2, Strategies: []string{"high", "low"}},
		{Name: "auctioneer", Players: 1, Strategies: []string{"reserve", "open"}},
	})
	require.NoError(t, err)

	require.Equal(t, "auctioneer", s.RoleName(0), "roles sort lexicographically regardless of input order")
	require.Equal(t, "buyer", s.RoleName(1))
	require.Equal(t, []string{"open", "reserve"}, s.RoleStrategies(0), "strategies sort lexicographically within a role")
	require.Equal(t, 4, s.NumStrats())
}

func TestNewSchema_Violations(t *testing.T) {
	cases := []struct {
		name  string
		roles []symschema.RoleSpec
	}{
		{"no roles", nil},
		{"zero players", []symschema.RoleSpec{{Name: "r", Players: 0, Strategies: []string{"a"}}}},
		{"empty strategy set", []symschema.RoleSpec{{Name: "r", Players: 1, Strategies: nil}}},
		{"duplicate role", []symschema.RoleSpec{
			{Name: "r", Players: 1, Strategies: []string{"a"}},
			{Name: "r", Players: 1, Strategies: []string{"b"}},
		}},
		{"duplicate strategy", []symschema.RoleSpec{
			{Name: "r", Players: 1, Strategies: []string{"a", "a"}},
		}},
		{"empty role name", []symschema.RoleSpec{{Name: "", Players: 1, Strategies: []string{"a"}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := symschema.NewSchema(tc.roles)
			require.Error(t, err)
			var schemaErr *symschema.SchemaError
			require.ErrorAs(t, err, &schemaErr)
		})
	}
}

func TestStrategyIndex_RoundTrip(t *testing.T) {
	s := rpsSchema(t)
	idx, err := s.StrategyIndex("all", "paper")
	require.NoError(t, err)
	require.Equal(t, "paper", s.StrategyName(idx))
	require.Equal(t, 0, s.RoleOfStrategy(idx))

	_, err = s.StrategyIndex("all", "lizard")
	require.Error(t, err)
	_, err = s.StrategyIndex("nobody", "paper")
	require.Error(t, err)
}

func TestNumAllProfiles(t *testing.T) {
	s := rpsSchema(t)
	// C(2+3-1, 2) = C(4,2) = 6 legal profiles for 2 players, 3 strategies.
	require.Equal(t, 6, s.NumAllProfiles())
}

func TestRoleReduce(t *testing.T) {
	s, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "a", Players: 2, Strategies: []string{"x", "y"}},
		{Name: "b", Players: 1, Strategies: []string{"z"}},
	})
	require.NoError(t, err)

	sums := s.RoleReduce([]float64{0.25, 0.75, 1.0}, symschema.ReduceSum)
	require.InDeltaSlice(t, []float64{1.0, 1.0}, sums, 1e-12)

	maxes := s.RoleReduce([]float64{0.25, 0.75, 1.0}, symschema.ReduceMax)
	require.InDeltaSlice(t, []float64{0.75, 1.0}, maxes, 1e-12)

	withNaN := s.RoleReduce([]float64{math.NaN(), 0.75, 1.0}, symschema.ReduceFMaxNaN)
	require.InDelta(t, 0.75, withNaN[0], 1e-12, "fmax ignores NaN when another value is present")
	require.True(t, math.IsNaN(s.RoleReduce([]float64{math.NaN(), math.NaN(), 1.0}, symschema.ReduceFMaxNaN)[0]))
}

func TestRoleRepeat(t *testing.T) {
	s, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "a", Players: 2, Strategies: []string{"x", "y"}},
		{Name: "b", Players: 1, Strategies: []string{"z"}},
	})
	require.NoError(t, err)

	repeated := s.RoleRepeat([]float64{2, 5})
	require.Equal(t, []float64{2, 2, 5}, repeated)
}

func TestSchemaEqual(t *testing.T) {
	a := rpsSchema(t)
	b, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "all", Players: 2, Strategies: []string{"scissors", "rock", "paper"}},
	})
	require.NoError(t, err)
	require.True(t, a.Equal(b), "role/strategy order at input time must not affect equality")

	c, err := symschema.NewSchema([]symschema.RoleSpec{
		{Name: "all", Players: 3, Strategies: []string{"rock", "paper", "scissors"}},
	})
	require.NoError(t, err)
	require.False(t, a.Equal(c))
}
