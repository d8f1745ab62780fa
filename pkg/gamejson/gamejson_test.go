package gamejson_test

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/behrlich/rolesym/pkg/gamejson"
	"github.com/behrlich/rolesym/pkg/profile"
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

func idx(t *testing.T, s *symschema.Schema, role, strat string) int {
	t.Helper()
	i, err := s.StrategyIndex(role, strat)
	require.NoError(t, err)
	return i
}

func rpsGame(t *testing.T, s *symschema.Schema) *rsgame.PayoffGame {
	t.Helper()
	mk := func(counts []int, pay []float64) rsgame.PayoffRow {
		p, err := profile.New(s, counts)
		require.NoError(t, err)
		return rsgame.PayoffRow{Profile: p, Payoffs: pay}
	}
	// Canonical strategy order is paper, rock, scissors.
	g, err := rsgame.NewPayoffGame(s, []rsgame.PayoffRow{
		mk([]int{0, 2, 0}, []float64{0, 0, 0}),
		mk([]int{1, 1, 0}, []float64{1, -1, 0}),
		mk([]int{0, 1, 1}, []float64{0, 1, -1}),
	})
	require.NoError(t, err)
	return g
}

func TestGameDoc_SummaryRoundTrip(t *testing.T) {
	s := rpsSchema(t)
	g := rpsGame(t, s)

	doc := gamejson.ToDoc(g)
	back, err := gamejson.LoadPayoffGame(doc)
	require.NoError(t, err)
	require.True(t, g.Equal(back))
}

func TestGameDoc_JSONTextRoundTrip(t *testing.T) {
	s := rpsSchema(t)
	g := rpsGame(t, s)

	doc := gamejson.ToDoc(g)
	data, err := json.Marshal(doc)
	require.NoError(t, err)

	var decoded gamejson.GameDoc
	require.NoError(t, json.Unmarshal(data, &decoded))

	back, err := gamejson.LoadPayoffGame(decoded)
	require.NoError(t, err)
	require.True(t, g.Equal(back))
}

func TestGameDoc_RolesFormRoundTrip(t *testing.T) {
	raw := []byte(`{
		"roles": [
			{"name": "all", "count": 2, "strategies": ["rock", "paper", "scissors"]}
		],
		"profiles": [
			{"all": [["rock", 2, 0]]},
			{"all": [["rock", 1, -1], ["paper", 1, 1]]},
			{"all": [["rock", 1, 1], ["scissors", 1, -1]]}
		]
	}`)
	var decoded gamejson.GameDoc
	require.NoError(t, json.Unmarshal(raw, &decoded))

	got, err := gamejson.LoadPayoffGame(decoded)
	require.NoError(t, err)

	want := rpsGame(t, rpsSchema(t))
	require.True(t, got.Equal(want))

	// The canonical output form uses players/strategies, not roles.
	doc := gamejson.ToDoc(got)
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NotContains(t, string(data), `"roles"`)
	require.Contains(t, string(data), `"players"`)
}

func TestLoadSampleGame_CollapsesToMean(t *testing.T) {
	raw := []byte(`{
		"players": {"all": 2},
		"strategies": {"all": ["paper", "rock", "scissors"]},
		"profiles": [
			{"all": [["rock", 1, [-1, -2]], ["paper", 1, [1, 2]]]}
		]
	}`)
	var decoded gamejson.GameDoc
	require.NoError(t, json.Unmarshal(raw, &decoded))

	sample, err := gamejson.LoadSampleGame(decoded)
	require.NoError(t, err)

	pg, err := sample.ToPayoffGame()
	require.NoError(t, err)

	p, err := profile.New(pg.Schema(), []int{1, 1, 0})
	require.NoError(t, err)
	got := pg.GetPayoffs(p)
	require.InDelta(t, -1.5, got[idx(t, pg.Schema(), "all", "rock")], 1e-9)
}

func TestLoadPayoffGame_RejectsUnknownRole(t *testing.T) {
	raw := []byte(`{
		"players": {"all": 2},
		"strategies": {"all": ["rock", "paper", "scissors"]},
		"profiles": [
			{"ghost": [["rock", 2, 0]]}
		]
	}`)
	var decoded gamejson.GameDoc
	require.NoError(t, json.Unmarshal(raw, &decoded))
	_, err := gamejson.LoadPayoffGame(decoded)
	require.Error(t, err)
}

func TestLoadPayoffGame_RejectsUnknownStrategy(t *testing.T) {
	raw := []byte(`{
		"players": {"all": 2},
		"strategies": {"all": ["rock", "paper", "scissors"]},
		"profiles": [
			{"all": [["lizard", 2, 0]]}
		]
	}`)
	var decoded gamejson.GameDoc
	require.NoError(t, json.Unmarshal(raw, &decoded))
	_, err := gamejson.LoadPayoffGame(decoded)
	require.Error(t, err)
}

func TestProfilePlayerList_RoundTrip(t *testing.T) {
	s := rpsSchema(t)
	p, err := profile.New(s, []int{1, 1, 0})
	require.NoError(t, err)

	records := gamejson.ProfileToPlayerList(s, p)
	require.Len(t, records, 2)

	back, err := gamejson.ProfileFromPlayerList(s, records)
	require.NoError(t, err)
	require.True(t, back.Equal(p))
}

func TestProfilePlayerList_RejectsUnknownStrategy(t *testing.T) {
	s := rpsSchema(t)
	_, err := gamejson.ProfileFromPlayerList(s, []gamejson.ProfileRecord{
		{Role: "all", Strategy: "lizard"},
	})
	require.Error(t, err)
}

func TestPayoffPlayerList_AggregatesIdenticalRecords(t *testing.T) {
	s := rpsSchema(t)
	p, pay, err := gamejson.ProfileAndPayoffFromPlayerList(s, []gamejson.PayoffPlayerRecord{
		{Role: "all", Strategy: "rock", Payoff: -1},
		{Role: "all", Strategy: "rock", Payoff: -1},
	})
	require.NoError(t, err)
	require.Equal(t, 2, p[idx(t, s, "all", "rock")])
	require.False(t, math.IsNaN(pay[idx(t, s, "all", "rock")]))
}

func TestPayoffPlayerList_RejectsConflictingPayoffs(t *testing.T) {
	s := rpsSchema(t)
	_, _, err := gamejson.ProfileAndPayoffFromPlayerList(s, []gamejson.PayoffPlayerRecord{
		{Role: "all", Strategy: "rock", Payoff: -1},
		{Role: "all", Strategy: "rock", Payoff: 99},
	})
	require.Error(t, err)
}
