// Package dominance implements the gains tensor and the three per-strategy
// dominance criteria (weak, strict, never-best-response) built from it, plus
// the iterated-elimination fixed-point loop over pkg/restrict sub-games.
package dominance

import (
	"math"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/restrict"
	"github.com/behrlich/rolesym/pkg/rsgame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// Criterion selects which dominance test Mask and DominatedBy apply.
type Criterion int

const (
	// Weak dominance: some same-role deviation never loses and sometimes
	// strictly gains.
	Weak Criterion = iota
	// Strict dominance: some same-role deviation strictly gains in every
	// profile supporting the dominated strategy.
	Strict
	// NeverBestResponse: no profile supporting the strategy has it (or a
	// zero-gain deviation from it) as the role's best available move.
	NeverBestResponse
)

// Options configures a dominance pass.
type Options struct {
	Criterion Criterion
	// Conditional selects how a missing opposing row (NaN gain) is
	// treated. true: NaN does not disprove dominance (it is skipped).
	// false: NaN breaks candidate dominance (spec.md §4.6).
	Conditional bool
}

// gain returns the payoff gain from deviating a single player of role
// schema.RoleOfStrategy(s) away from s to sprime, evaluated at profile p
// (which must have p[s] > 0): pay(p with one s replaced by sprime, sprime)
// − pay(p, s). NaN when the opposing profile's row is absent from g.
func gain(g *rsgame.PayoffGame, p profile.Profile, s, sprime int) float64 {
	after := make(profile.Profile, len(p))
	copy(after, p)
	after[s]--
	after[sprime]++

	before := g.GetPayoffs(p)
	afterPay := g.GetPayoffs(after)
	return afterPay[sprime] - before[s]
}

// supportingProfiles returns every profile in g with a positive count at s.
func supportingProfiles(g *rsgame.PayoffGame, s int) []profile.Profile {
	var out []profile.Profile
	for _, p := range g.Profiles() {
		if p[s] > 0 {
			out = append(out, p)
		}
	}
	return out
}

// strictlyDominatedBy reports whether sprime strictly dominates s: the gain
// of deviating s → sprime is > 0 in every profile supporting s (NaN handled
// per Options.Conditional), and at least one such profile exists.
func strictlyDominatedBy(g *rsgame.PayoffGame, s, sprime int, o Options) bool {
	profiles := supportingProfiles(g, s)
	if len(profiles) == 0 {
		return false
	}
	anyConfirmed := false
	for _, p := range profiles {
		gv := gain(g, p, s, sprime)
		if math.IsNaN(gv) {
			if o.Conditional {
				continue
			}
			return false
		}
		if gv <= 0 {
			return false
		}
		anyConfirmed = true
	}
	// A profile set where every entry is a skipped NaN has no concrete
	// evidence of dominance: conditional leniency excuses unknowns, it
	// does not manufacture a witness out of nothing.
	return anyConfirmed
}

// weaklyDominatedBy reports whether sprime weakly dominates s: never loses
// and strictly gains somewhere, over the profiles supporting s.
func weaklyDominatedBy(g *rsgame.PayoffGame, s, sprime int, o Options) bool {
	profiles := supportingProfiles(g, s)
	if len(profiles) == 0 {
		return false
	}
	anyStrict := false
	for _, p := range profiles {
		gv := gain(g, p, s, sprime)
		if math.IsNaN(gv) {
			if o.Conditional {
				continue
			}
			return false
		}
		if gv < 0 {
			return false
		}
		if gv > 0 {
			anyStrict = true
		}
	}
	return anyStrict
}

// neverBestResponse reports whether s is never a best response: in every
// profile supporting s, some same-role deviation strictly gains.
func neverBestResponse(g *rsgame.PayoffGame, s int, schema *symschema.Schema, o Options) bool {
	profiles := supportingProfiles(g, s)
	if len(profiles) == 0 {
		return false
	}
	r := schema.RoleOfStrategy(s)
	start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)

	anyConfirmed := false
	for _, p := range profiles {
		anyBetter := false
		sawNaN := false
		for sprime := start; sprime < end; sprime++ {
			if sprime == s {
				continue
			}
			gv := gain(g, p, s, sprime)
			if math.IsNaN(gv) {
				sawNaN = true
				continue
			}
			if gv > 0 {
				anyBetter = true
			}
		}
		if anyBetter {
			anyConfirmed = true
			continue
		}
		if o.Conditional && sawNaN {
			continue
		}
		return false
	}
	return anyConfirmed
}

// Mask returns, per strategy, whether it is dominated under o.Criterion.
func Mask(g *rsgame.PayoffGame, o Options) []bool {
	schema := g.Schema()
	n := schema.NumStrats()
	out := make([]bool, n)
	for s := 0; s < n; s++ {
		out[s] = isDominated(g, s, schema, o)
	}
	return out
}

func isDominated(g *rsgame.PayoffGame, s int, schema *symschema.Schema, o Options) bool {
	if o.Criterion == NeverBestResponse {
		return neverBestResponse(g, s, schema, o)
	}
	r := schema.RoleOfStrategy(s)
	start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
	for sprime := start; sprime < end; sprime++ {
		if sprime == s {
			continue
		}
		var dominated bool
		if o.Criterion == Strict {
			dominated = strictlyDominatedBy(g, s, sprime, o)
		} else {
			dominated = weaklyDominatedBy(g, s, sprime, o)
		}
		if dominated {
			return true
		}
	}
	return false
}

// DominatedBy returns, for every dominated strategy under Weak or Strict
// criteria, the index of one strategy that dominates it (the lowest-indexed
// witness). NeverBestResponse has no single dominating witness and is
// omitted from this diagnostic map.
func DominatedBy(g *rsgame.PayoffGame, o Options) map[int]int {
	out := make(map[int]int)
	if o.Criterion == NeverBestResponse {
		return out
	}
	schema := g.Schema()
	n := schema.NumStrats()
	for s := 0; s < n; s++ {
		r := schema.RoleOfStrategy(s)
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		for sprime := start; sprime < end; sprime++ {
			if sprime == s {
				continue
			}
			var dominated bool
			if o.Criterion == Strict {
				dominated = strictlyDominatedBy(g, s, sprime, o)
			} else {
				dominated = weaklyDominatedBy(g, s, sprime, o)
			}
			if dominated {
				out[s] = sprime
				break
			}
		}
	}
	return out
}

// IterateElimination repeatedly removes dominated strategies (per o) until
// a fixed point: no strategy is eliminated, or eliminating would leave some
// role with zero strategies. It returns the surviving mask over the
// original schema's strategy indices. The loop terminates because the
// surviving set strictly shrinks each iteration (spec.md §4.6).
func IterateElimination(g *rsgame.PayoffGame, o Options, popts ...rsgame.Option) ([]bool, error) {
	schema := g.Schema()
	mask := make([]bool, schema.NumStrats())
	for i := range mask {
		mask[i] = true
	}

	cur := g
	for {
		dominated := Mask(cur, o)
		eliminated := false
		curSchema := cur.Schema()
		newSubMask := make([]bool, curSchema.NumStrats())
		for i := range newSubMask {
			newSubMask[i] = !dominated[i]
			if dominated[i] {
				eliminated = true
			}
		}
		if !eliminated {
			break
		}
		if leavesRoleEmpty(curSchema, newSubMask) {
			break
		}

		rz, err := restrict.New(curSchema, newSubMask)
		if err != nil {
			return nil, err
		}
		sub, err := restrict.Subgame(rz, cur, popts...)
		if err != nil {
			return nil, err
		}

		// Fold newSubMask into the original-schema mask: a strategy still
		// marked true must also have survived this round's sub-mask.
		applySubMask(mask, curSchema, rz)

		cur = sub
	}
	return mask, nil
}

func leavesRoleEmpty(schema *symschema.Schema, mask []bool) bool {
	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		any := false
		for i := start; i < end; i++ {
			if mask[i] {
				any = true
				break
			}
		}
		if !any {
			return true
		}
	}
	return false
}

// applySubMask clears, in the original-index mask, every strategy of
// curSchema that did not survive into rz's sub-schema.
func applySubMask(mask []bool, curSchema *symschema.Schema, rz *restrict.Restriction) {
	survived := rz.Mask()
	origIdx := 0
	for i := range mask {
		if !mask[i] {
			continue
		}
		// mask tracks original-schema indices; curSchema is itself already
		// a restriction of the original, so we walk mask's true entries in
		// lockstep with curSchema's strategy order.
		if origIdx < len(survived) && !survived[origIdx] {
			mask[i] = false
		}
		origIdx++
	}
}
