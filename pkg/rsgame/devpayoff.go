package rsgame

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// devRepsCache lazily builds dev_reps[profile, strategy]: the log number of
// orderings in which one player of strategy s's role could be singled out
// for a deviation from profile p, evaluated in the opponent profile (p with
// one fewer s). This reduces to a closed form (see DESIGN.md):
//
//	dev_reps[p, s] = logMultinomial(p) + ln(p[s]) − ln(players_role(s))
//
// and is −∞ when p[s] == 0 (no player of s exists in p to single out).
func (g *PayoffGame) devRepsCache() [][]float64 {
	g.devRepsOnce.Do(func() {
		schema := g.Schema()
		n := schema.NumStrats()
		out := make([][]float64, len(g.profiles))
		for pi, p := range g.profiles {
			logMult := logMultinomial(schema, p)
			row := make([]float64, n)
			for s := 0; s < n; s++ {
				if p[s] == 0 {
					row[s] = math.Inf(-1)
					continue
				}
				r := schema.RoleOfStrategy(s)
				row[s] = logMult + math.Log(float64(p[s])) - math.Log(float64(schema.Players(r)))
			}
			out[pi] = row
		}
		g.devReps = out
	})
	return g.devReps
}

func logFactorial(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}

// logMultinomial returns Σ_r [ln(players_r!) − Σ_{t∈r} ln(p_t!)], the log
// of the number of distinct player-to-strategy assignments consistent with
// profile p.
func logMultinomial(schema *symschema.Schema, p profile.Profile) float64 {
	total := 0.0
	for r := 0; r < schema.NumRoles(); r++ {
		total += logFactorial(schema.Players(r))
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		for _, c := range p[start:end] {
			total -= logFactorial(c)
		}
	}
	return total
}

// DeviationPayoffs computes, for every strategy s, the expected payoff to a
// single deviating player playing s against the remaining players drawing
// i.i.d. from mixture m (spec.md §4.3). Entries are NaN wherever the game
// has no information to support them (e.g. every row touching that
// strategy is itself NaN, or ignore_incomplete leaves a zero-weight
// column).
func (g *PayoffGame) DeviationPayoffs(m profile.Mixture, opts ...Option) []float64 {
	o := applyOptions(append([]Option{WithIgnoreIncomplete(g.opts.ignoreIncomplete), WithEpsilon(g.opts.epsilon)}, opts...))
	n := g.Schema().NumStrats()
	lm := logMixture(m, o.epsilon)
	devReps := g.devRepsCache()

	numer := make([]float64, n)
	denom := make([]float64, n)
	for pi, p := range g.profiles {
		profLogProb := 0.0
		for i, c := range p {
			if c > 0 {
				profLogProb += float64(c) * lm[i]
			}
		}
		pay := g.payoffs[pi]
		reps := devReps[pi]
		for s := 0; s < n; s++ {
			if math.IsInf(reps[s], -1) || opponentBlocked(p, m, s) {
				continue
			}
			w := math.Exp(profLogProb + reps[s] - lm[s])
			if w == 0 {
				continue
			}
			if math.IsNaN(pay[s]) {
				numer[s] = math.NaN()
			} else if !math.IsNaN(numer[s]) {
				numer[s] += w * pay[s]
			}
			denom[s] += w
		}
	}

	out := make([]float64, n)
	for s := 0; s < n; s++ {
		if denom[s] == 0 {
			out[s] = math.NaN()
			continue
		}
		if o.ignoreIncomplete {
			out[s] = numer[s] / denom[s]
		} else {
			out[s] = numer[s]
		}
	}
	return out
}

// opponentBlocked reports whether the opponent profile for (p, s) — p with
// one fewer count of s — requires a positive count at some strategy i that
// has exactly zero mass in m. Such an opponent profile has zero probability
// under m regardless of the epsilon smoothing applied to logs elsewhere: ε
// exists only to keep intermediate logs finite, not to let a probability-0
// event leak a nonzero (if tiny) weight into the sums below.
func opponentBlocked(p profile.Profile, m profile.Mixture, s int) bool {
	for i, c := range p {
		if i == s {
			c--
		}
		if c > 0 && m[i] == 0 {
			return true
		}
	}
	return false
}

func logMixture(m profile.Mixture, eps float64) []float64 {
	lm := make([]float64, len(m))
	for i, v := range m {
		lm[i] = math.Log(v + eps)
	}
	return lm
}

// DeviationPayoffsJacobian returns both the deviation payoffs and their
// jacobian ∂dev_payoff[s]/∂m[t] as a NumStrats x NumStrats matrix, derived
// symbolically from the DeviationPayoffs formula using
// ∂w[p,s]/∂m[t] = w[p,s]·(p[t] − [s==t])/(m[t]+ε). Entries (s, t) are NaN
// where t has zero mass in m and no profile in the game has a positive
// count of t: there the derivative is
// undefined rather than zero.
func (g *PayoffGame) DeviationPayoffsJacobian(m profile.Mixture, opts ...Option) ([]float64, *mat.Dense) {
	o := applyOptions(append([]Option{WithIgnoreIncomplete(g.opts.ignoreIncomplete), WithEpsilon(g.opts.epsilon)}, opts...))
	n := g.Schema().NumStrats()
	lm := logMixture(m, o.epsilon)
	devReps := g.devRepsCache()

	numer := make([]float64, n)
	denom := make([]float64, n)
	// A[s][t] = Σ_p payoff[p,s] * w[p,s] * p[t]
	A := make([][]float64, n)
	// B[s][t] = Σ_p w[p,s] * p[t], needed for the ignore_incomplete quotient rule
	B := make([][]float64, n)
	for s := range A {
		A[s] = make([]float64, n)
		B[s] = make([]float64, n)
	}
	hasSupport := make([]bool, n) // any profile with positive count of t

	for pi, p := range g.profiles {
		profLogProb := 0.0
		for i, c := range p {
			if c > 0 {
				profLogProb += float64(c) * lm[i]
				hasSupport[i] = true
			}
		}
		pay := g.payoffs[pi]
		reps := devReps[pi]
		for s := 0; s < n; s++ {
			if math.IsInf(reps[s], -1) || opponentBlocked(p, m, s) {
				continue
			}
			w := math.Exp(profLogProb + reps[s] - lm[s])
			if w == 0 {
				continue
			}
			denom[s] += w
			payS := pay[s]
			if !math.IsNaN(payS) {
				numer[s] += w * payS
			} else {
				numer[s] = math.NaN()
			}
			for t, c := range p {
				if c == 0 {
					continue
				}
				B[s][t] += w * float64(c)
				if !math.IsNaN(payS) {
					A[s][t] += w * payS * float64(c)
				}
			}
		}
	}

	devPay := make([]float64, n)
	jac := mat.NewDense(n, n, nil)
	for s := 0; s < n; s++ {
		var ds float64
		if denom[s] == 0 {
			ds = math.NaN()
		} else if o.ignoreIncomplete {
			ds = numer[s] / denom[s]
		} else {
			ds = numer[s]
		}
		devPay[s] = ds

		for t := 0; t < n; t++ {
			var v float64
			switch {
			case denom[s] == 0:
				v = math.NaN()
			case o.ignoreIncomplete:
				// d(N/D)/dm[t] via the quotient rule, where N, D are
				// themselves sums over w(m); dN/dm[t] and dD/dm[t] share
				// the same w-derivative structure as the un-normalized
				// case below.
				dN := A[s][t]/(m[t]+o.epsilon) - kron(s, t)*numer[s]/(m[s]+o.epsilon)
				dD := B[s][t]/(m[t]+o.epsilon) - kron(s, t)*denom[s]/(m[s]+o.epsilon)
				v = (dN*denom[s] - numer[s]*dD) / (denom[s] * denom[s])
			default:
				v = A[s][t]/(m[t]+o.epsilon) - kron(s, t)*numer[s]/(m[s]+o.epsilon)
			}
			if m[t] == 0 && !hasSupport[t] {
				v = math.NaN()
			}
			jac.Set(s, t, v)
		}
	}

	return devPay, jac
}

func kron(s, t int) float64 {
	if s == t {
		return 1
	}
	return 0
}

// ExpectedPayoffs returns the expected payoff to each role under mixture m,
// exp_pay[r] = Σ_{s∈r} m[s] · dev_payoff[s], together with its jacobian:
// ∂exp_pay[r]/∂m[t] = Σ_{s∈r} [ m[s]·∂dev_payoff[s]/∂m[t] + dev_payoff[s]·[t==s] ].
func (g *PayoffGame) ExpectedPayoffs(m profile.Mixture, opts ...Option) ([]float64, *mat.Dense) {
	devPay, jac := g.DeviationPayoffsJacobian(m, opts...)
	schema := g.Schema()
	n := schema.NumStrats()

	expPay := schema.RoleReduce(mulElem(m, devPay), symschema.ReduceSum)
	expJac := mat.NewDense(schema.NumRoles(), n, nil)
	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		for t := 0; t < n; t++ {
			sum := 0.0
			for s := start; s < end; s++ {
				sum += m[s] * jac.At(s, t)
				if t == s {
					sum += devPay[s]
				}
			}
			expJac.Set(r, t, sum)
		}
	}
	return expPay, expJac
}

func mulElem(a profile.Mixture, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] * b[i]
	}
	return out
}
