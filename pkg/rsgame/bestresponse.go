package rsgame

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/behrlich/rolesym/pkg/profile"
)

// BestResponse returns, for every role, a uniform distribution over that
// role's arg-max deviation-payoff strategies (NaN entries excluded); ties
// split mass equally. A role whose deviation payoffs are all NaN gets an
// all-NaN slice for its strategies. The normalization here follows the same
// regret-matching shape as a CFR strategy profile (sum the qualifying
// mass, then divide), just over the arg-max set instead of the
// positive-regret set.
//
// Arg-max membership uses floats.EqualWithinAbsOrRel rather than an exact
// float comparison: DeviationPayoffs' epsilon smoothing (see WithEpsilon)
// perturbs otherwise-equal payoffs by float64 noise, which an exact == would
// wrongly treat as a unique winner.
const bestResponseTol = 1e-9

func (g *PayoffGame) BestResponse(m profile.Mixture, opts ...Option) []float64 {
	devPay := g.DeviationPayoffs(m, opts...)
	schema := g.Schema()
	out := make([]float64, len(devPay))

	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)

		best := math.Inf(-1)
		anyReal := false
		for s := start; s < end; s++ {
			if math.IsNaN(devPay[s]) {
				continue
			}
			anyReal = true
			if devPay[s] > best {
				best = devPay[s]
			}
		}

		if !anyReal {
			for s := start; s < end; s++ {
				out[s] = math.NaN()
			}
			continue
		}

		winners := 0
		for s := start; s < end; s++ {
			if !math.IsNaN(devPay[s]) && floats.EqualWithinAbsOrRel(devPay[s], best, bestResponseTol, bestResponseTol) {
				winners++
			}
		}
		mass := 1.0 / float64(winners)
		for s := start; s < end; s++ {
			if !math.IsNaN(devPay[s]) && floats.EqualWithinAbsOrRel(devPay[s], best, bestResponseTol, bestResponseTol) {
				out[s] = mass
			} else {
				out[s] = 0
			}
		}
	}
	return out
}

// RegretOptions configures Regret's handling of missing payoff data.
type RegretOptions struct {
	// SkipMissing, when true, skips (rather than errors on) deviations
	// whose neighboring profile's payoff is missing from the game. When
	// false, a missing neighbor profile is reported as NaN regret.
	SkipMissing bool
}

// Regret returns the regret of profile p: the maximum, over every
// strategy s present in p and every same-role deviation s → s', of the
// payoff delta pay(p with one s replaced by s') − pay(p, s), clamped to be
// non-negative (a profile can never have negative regret: not deviating is
// always an option).
func (g *PayoffGame) Regret(p profile.Profile, ro RegretOptions) float64 {
	schema := g.Schema()
	basePay := g.GetPayoffs(p)

	regret := 0.0
	any := false
	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		for s := start; s < end; s++ {
			if p[s] == 0 {
				continue
			}
			for sp := start; sp < end; sp++ {
				if sp == s {
					continue
				}
				neighbor := make(profile.Profile, len(p))
				copy(neighbor, p)
				neighbor[s]--
				neighbor[sp]++

				idx := g.findRow(neighbor)
				if idx < 0 {
					if ro.SkipMissing {
						continue
					}
					return math.NaN()
				}
				delta := g.payoffs[idx][sp] - basePay[s]
				any = true
				if math.IsNaN(delta) {
					if ro.SkipMissing {
						continue
					}
					return math.NaN()
				}
				if delta > regret {
					regret = delta
				}
			}
		}
	}
	if !any {
		return 0
	}
	return regret
}
