// Package samplegame implements the sampled payoff layer: a game where every
// profile carries a bag of independent payoff observations (one "sample
// block" each) rather than a single summary value, plus bootstrap resampling
// over those blocks at three independence granularities.
package samplegame

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/rsgame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// SampleError reports a violation of the sample-row invariants: a profile or
// observation vector of the wrong length, or a nonzero payoff off the
// profile's support.
type SampleError struct {
	Msg string
}

func (e *SampleError) Error() string { return "sample shape violation: " + e.Msg }

// Granularity selects how independently the bootstrap resample draws its
// replacement observations.
type Granularity int

const (
	// PerProfile resamples one observation index per profile and reuses it
	// across every strategy in that profile's row (the strongest
	// correlation: an entire simulation run is resampled as a unit).
	PerProfile Granularity = iota
	// PerProfileRole resamples independently per (profile, role).
	PerProfileRole
	// PerProfileRoleStrategy resamples independently per (profile, role,
	// strategy): the weakest correlation, closest to treating every payoff
	// entry as its own i.i.d. observation.
	PerProfileRoleStrategy
)

// SampleRow is one profile's bag of observations: Payoffs[k][s] is the k-th
// observed payoff to strategy s, defined (non-NaN) only where Profile[s] > 0.
type SampleRow struct {
	Profile profile.Profile
	Payoffs [][]float64
}

// SampleGame is an EmptyGame whose profiles carry a variable number of
// payoff observations apiece instead of one summary value.
type SampleGame struct {
	*rsgame.EmptyGame

	rows []SampleRow
}

// NewSampleGame validates rows and builds a SampleGame. Every row's
// observation vectors must have the profile's strategy count, and every
// observation must be exactly zero off the profile's support: any other
// value there, NaN included, is rejected. Samples (unlike summaries) never
// need a NaN placeholder — a sample that doesn't exist is simply absent
// from Payoffs.
func NewSampleGame(schema *symschema.Schema, rows []SampleRow) (*SampleGame, error) {
	n := schema.NumStrats()
	out := make([]SampleRow, len(rows))
	for i, row := range rows {
		if len(row.Profile) != n {
			return nil, &SampleError{Msg: fmt.Sprintf("row %d: profile has %d entries, want %d", i, len(row.Profile), n)}
		}
		obs := make([][]float64, len(row.Payoffs))
		for k, pay := range row.Payoffs {
			if len(pay) != n {
				return nil, &SampleError{Msg: fmt.Sprintf("row %d observation %d: has %d entries, want %d", i, k, len(pay), n)}
			}
			for s := 0; s < n; s++ {
				if row.Profile[s] > 0 {
					continue
				}
				if pay[s] != 0 {
					return nil, &SampleError{Msg: fmt.Sprintf("row %d observation %d: nonzero payoff at unsupported strategy %d", i, k, s)}
				}
			}
			cp := make([]float64, n)
			copy(cp, pay)
			obs[k] = cp
		}
		p := make(profile.Profile, n)
		copy(p, row.Profile)
		out[i] = SampleRow{Profile: p, Payoffs: obs}
	}
	return &SampleGame{EmptyGame: rsgame.NewEmptyGame(schema), rows: out}, nil
}

// NumObservations returns the number of samples backing profile index i.
func (g *SampleGame) NumObservations(i int) int { return len(g.rows[i].Payoffs) }

// Rows returns the game's sample rows in stored order.
func (g *SampleGame) Rows() []SampleRow {
	out := make([]SampleRow, len(g.rows))
	copy(out, g.rows)
	return out
}

// ToPayoffGame collapses every profile's observations to their mean,
// producing a plain rsgame.PayoffGame. A profile with zero observations is
// simply omitted (GetPayoffs on the result falls back to the usual
// missing-row NaN-on-support behavior).
func (g *SampleGame) ToPayoffGame(opts ...rsgame.Option) (*rsgame.PayoffGame, error) {
	rows := make([]rsgame.PayoffRow, 0, len(g.rows))
	for _, r := range g.rows {
		if len(r.Payoffs) == 0 {
			continue
		}
		mean := meanColumns(r.Payoffs, len(r.Profile))
		rows = append(rows, rsgame.PayoffRow{Profile: r.Profile, Payoffs: mean})
	}
	return rsgame.NewPayoffGame(g.Schema(), rows, opts...)
}

func meanColumns(obs [][]float64, n int) []float64 {
	sum := make([]float64, n)
	count := make([]int, n)
	for _, pay := range obs {
		for s, v := range pay {
			if math.IsNaN(v) {
				continue
			}
			sum[s] += v
			count[s]++
		}
	}
	out := make([]float64, n)
	for s := range out {
		if count[s] == 0 {
			out[s] = math.NaN()
			continue
		}
		out[s] = sum[s] / float64(count[s])
	}
	return out
}

// Resample draws a new SampleGame of the same shape by resampling, with
// replacement, the observation index used for each independence unit
// determined by gran. A profile with k observations always resamples from
// {0, ..., k-1}; when k == 1 every granularity is a no-op (there is only one
// observation to draw).
func (g *SampleGame) Resample(gran Granularity, rng *rand.Rand) *SampleGame {
	schema := g.Schema()
	out := make([]SampleRow, len(g.rows))
	for i, row := range g.rows {
		k := len(row.Payoffs)
		p := make(profile.Profile, len(row.Profile))
		copy(p, row.Profile)
		if k == 0 {
			out[i] = SampleRow{Profile: p}
			continue
		}
		resampled := make([][]float64, k)
		for rep := 0; rep < k; rep++ {
			resampled[rep] = resampleRow(schema, row, gran, rng)
		}
		out[i] = SampleRow{Profile: p, Payoffs: resampled}
	}
	return &SampleGame{EmptyGame: rsgame.NewEmptyGame(schema), rows: out}
}

// resampleRow draws one replacement observation vector for row under gran.
func resampleRow(schema *symschema.Schema, row SampleRow, gran Granularity, rng *rand.Rand) []float64 {
	k := len(row.Payoffs)
	n := len(row.Profile)
	result := make([]float64, n)

	switch gran {
	case PerProfile:
		idx := rng.Intn(k)
		copy(result, row.Payoffs[idx])
	case PerProfileRole:
		for r := 0; r < schema.NumRoles(); r++ {
			start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
			idx := rng.Intn(k)
			copy(result[start:end], row.Payoffs[idx][start:end])
		}
	case PerProfileRoleStrategy:
		for s := 0; s < n; s++ {
			if row.Profile[s] == 0 {
				continue
			}
			idx := rng.Intn(k)
			result[s] = row.Payoffs[idx][s]
		}
	}
	return result
}
