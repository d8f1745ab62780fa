package rsgame

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// PayoffError reports a violation of the payoff-row invariants: a nonzero
// or NaN entry at an unsupported strategy, a repeated profile, or a
// row/profile length mismatch.
type PayoffError struct {
	Msg string
}

func (e *PayoffError) Error() string { return "payoff shape violation: " + e.Msg }

// PayoffRow is one (profile, payoff-vector) input row.
type PayoffRow struct {
	Profile profile.Profile
	Payoffs []float64
}

// PayoffGame is an EmptyGame plus a sparse set of payoff rows. Profiles are
// unique and canonicalized to lexicographic order on construction, which is
// also what Profile.Less defines and what GetPayoffs binary-searches
// against.
type PayoffGame struct {
	*EmptyGame

	profiles []profile.Profile
	payoffs  [][]float64
	opts     options

	devRepsOnce sync.Once
	devReps     [][]float64

	minMaxOnce     sync.Once
	minPay, maxPay float64
}

// NewPayoffGame validates rows against schema and builds a PayoffGame.
// Validation failures are PayoffError (row shape) or symschema/profile
// errors (profile shape), all raised here at construction; every numeric
// operation below assumes a validated game.
func NewPayoffGame(schema *symschema.Schema, rows []PayoffRow, opts ...Option) (*PayoffGame, error) {
	o := applyOptions(opts)
	n := schema.NumStrats()

	profiles := make([]profile.Profile, len(rows))
	payoffs := make([][]float64, len(rows))

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		if len(row.Payoffs) != n {
			return nil, &PayoffError{Msg: fmt.Sprintf("row %d: payoff vector has %d entries, want %d", i, len(row.Payoffs), n)}
		}
		if len(row.Profile) != n {
			return nil, &PayoffError{Msg: fmt.Sprintf("row %d: profile has %d entries, want %d", i, len(row.Profile), n)}
		}
		for s := 0; s < n; s++ {
			if row.Profile[s] > 0 {
				continue // NaN is allowed here: it marks missing data.
			}
			v := row.Payoffs[s]
			if math.IsNaN(v) {
				return nil, &PayoffError{Msg: fmt.Sprintf("row %d: NaN payoff at unsupported strategy %d", i, s)}
			}
			if v != 0 {
				return nil, &PayoffError{Msg: fmt.Sprintf("row %d: nonzero payoff %g at unsupported strategy %d", i, v, s)}
			}
		}

		key := profileKey(row.Profile)
		if seen[key] {
			return nil, &PayoffError{Msg: fmt.Sprintf("row %d: profile repeated", i)}
		}
		seen[key] = true

		p := make(profile.Profile, n)
		copy(p, row.Profile)
		pay := make([]float64, n)
		copy(pay, row.Payoffs)
		profiles[i] = p
		payoffs[i] = pay
	}

	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return profiles[order[a]].Less(profiles[order[b]]) })

	sortedProfiles := make([]profile.Profile, len(rows))
	sortedPayoffs := make([][]float64, len(rows))
	for i, idx := range order {
		sortedProfiles[i] = profiles[idx]
		sortedPayoffs[i] = payoffs[idx]
	}

	o.logger.Debug().
		Int("profiles", len(sortedProfiles)).
		Int("strategies", n).
		Msg("payoff game constructed")

	return &PayoffGame{
		EmptyGame: NewEmptyGame(schema),
		profiles:  sortedProfiles,
		payoffs:   sortedPayoffs,
		opts:      o,
	}, nil
}

func profileKey(p profile.Profile) string {
	b := make([]byte, 0, len(p)*4)
	for _, c := range p {
		b = append(b, byte(c>>24), byte(c>>16), byte(c>>8), byte(c))
	}
	return string(b)
}

// NumProfiles returns the number of stored rows.
func (g *PayoffGame) NumProfiles() int { return len(g.profiles) }

// Profiles returns the game's canonical-order profile rows.
func (g *PayoffGame) Profiles() []profile.Profile {
	out := make([]profile.Profile, len(g.profiles))
	copy(out, g.profiles)
	return out
}

// IsEmpty reports whether the game has no rows.
func (g *PayoffGame) IsEmpty() bool { return len(g.profiles) == 0 }

// IsComplete reports whether every legal profile of the schema is present.
func (g *PayoffGame) IsComplete() bool {
	return len(g.profiles) == g.Schema().NumAllProfiles()
}

// IsConstantSum reports whether every row's weighted total payoff
// (Σ_i profile[i] * payoff[i]) is equal across rows, within float64 noise.
func (g *PayoffGame) IsConstantSum() bool {
	if len(g.profiles) == 0 {
		return true
	}
	const tol = 1e-9
	first := weightedTotal(g.profiles[0], g.payoffs[0])
	for i := 1; i < len(g.profiles); i++ {
		t := weightedTotal(g.profiles[i], g.payoffs[i])
		if math.IsNaN(t) || math.Abs(t-first) > tol {
			return false
		}
	}
	return true
}

func weightedTotal(p profile.Profile, pay []float64) float64 {
	total := 0.0
	for i, c := range p {
		if c > 0 {
			total += float64(c) * pay[i]
		}
	}
	return total
}

// findRow returns the index of p in the canonical profile order, or -1.
func (g *PayoffGame) findRow(p profile.Profile) int {
	lo, hi := 0, len(g.profiles)
	for lo < hi {
		mid := (lo + hi) / 2
		if g.profiles[mid].Less(p) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(g.profiles) && g.profiles[lo].Equal(p) {
		return lo
	}
	return -1
}

// GetPayoffs returns the stored row for p if present; otherwise a row that
// is NaN on p's support and zero elsewhere (the spec's definition of an
// unobserved-but-legal profile).
func (g *PayoffGame) GetPayoffs(p profile.Profile) []float64 {
	if idx := g.findRow(p); idx >= 0 {
		out := make([]float64, len(g.payoffs[idx]))
		copy(out, g.payoffs[idx])
		return out
	}
	out := make([]float64, len(p))
	for i, c := range p {
		if c > 0 {
			out[i] = math.NaN()
		}
	}
	return out
}

// MinPayoff returns the minimum observed payoff among supported entries,
// cached lazily. NaN entries are ignored; an empty game returns NaN.
func (g *PayoffGame) MinPayoff() float64 {
	g.ensureMinMax()
	return g.minPay
}

// MaxPayoff returns the maximum observed payoff among supported entries,
// cached lazily.
func (g *PayoffGame) MaxPayoff() float64 {
	g.ensureMinMax()
	return g.maxPay
}

func (g *PayoffGame) ensureMinMax() {
	g.minMaxOnce.Do(func() {
		min, max := math.Inf(1), math.Inf(-1)
		found := false
		for i, p := range g.profiles {
			for s, c := range p {
				if c == 0 {
					continue
				}
				v := g.payoffs[i][s]
				if math.IsNaN(v) {
					continue
				}
				if !found || v < min {
					min = v
				}
				if !found || v > max {
					max = v
				}
				found = true
			}
		}
		if !found {
			min, max = math.NaN(), math.NaN()
		}
		g.minPay, g.maxPay = min, max
	})
}

// Equal reports structural equality: same schema, and the same set of
// (profile, payoff) rows independent of row order (spec.md §3 "Lifecycle").
func (g *PayoffGame) Equal(other *PayoffGame) bool {
	if other == nil || !g.Schema().Equal(other.Schema()) {
		return false
	}
	if len(g.profiles) != len(other.profiles) {
		return false
	}
	for i, p := range g.profiles {
		idx := other.findRow(p)
		if idx < 0 {
			return false
		}
		a, b := g.payoffs[i], other.payoffs[idx]
		for s := range a {
			if math.IsNaN(a[s]) && math.IsNaN(b[s]) {
				continue
			}
			if a[s] != b[s] {
				return false
			}
		}
	}
	return true
}
