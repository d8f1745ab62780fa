// Package restrict implements sub-games: a boolean strategy mask cut down to
// its own schema, with Translate round-tripping profiles and mixtures
// between the restricted and full strategy index spaces.
package restrict

import (
	"fmt"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/rsgame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// RestrictionError reports an invalid mask: wrong length, or a role left
// with zero strategies.
type RestrictionError struct {
	Msg string
}

func (e *RestrictionError) Error() string { return "restriction violation: " + e.Msg }

// Restriction is a boolean strategy mask over a full schema, together with
// the sub-schema it induces and the index mapping between the two spaces.
type Restriction struct {
	full   *symschema.Schema
	sub    *symschema.Schema
	mask   []bool
	toFull []int // sub strategy index -> full strategy index
	toSub  []int // full strategy index -> sub strategy index, or -1
}

// New builds a Restriction from mask (length full.NumStrats()). Every role
// must keep at least one strategy; the induced sub-schema's roles and
// strategies keep the full schema's names and relative order.
func New(full *symschema.Schema, mask []bool) (*Restriction, error) {
	if len(mask) != full.NumStrats() {
		return nil, &RestrictionError{Msg: fmt.Sprintf("mask has %d entries, want %d", len(mask), full.NumStrats())}
	}

	roles := make([]symschema.RoleSpec, full.NumRoles())
	for r := 0; r < full.NumRoles(); r++ {
		start, end := full.RoleStart(r), full.RoleStart(r)+full.NumRoleStrats(r)
		var kept []string
		for i := start; i < end; i++ {
			if mask[i] {
				kept = append(kept, full.StrategyName(i))
			}
		}
		if len(kept) == 0 {
			return nil, &RestrictionError{Msg: fmt.Sprintf("role %q has no surviving strategies", full.RoleName(r))}
		}
		roles[r] = symschema.RoleSpec{Name: full.RoleName(r), Players: full.Players(r), Strategies: kept}
	}

	sub, err := symschema.NewSchema(roles)
	if err != nil {
		return nil, err
	}

	toFull := make([]int, sub.NumStrats())
	toSub := make([]int, full.NumStrats())
	for i := range toSub {
		toSub[i] = -1
	}
	for i := 0; i < full.NumStrats(); i++ {
		if !mask[i] {
			continue
		}
		r := full.RoleOfStrategy(i)
		name := full.StrategyName(i)
		subIdx, err := sub.StrategyIndex(sub.RoleName(r), name)
		if err != nil {
			return nil, err
		}
		toFull[subIdx] = i
		toSub[i] = subIdx
	}

	m := make([]bool, len(mask))
	copy(m, mask)
	return &Restriction{full: full, sub: sub, mask: m, toFull: toFull, toSub: toSub}, nil
}

// Mask returns the boolean strategy mask in full-schema index order.
func (rz *Restriction) Mask() []bool {
	out := make([]bool, len(rz.mask))
	copy(out, rz.mask)
	return out
}

// Sub returns the restricted schema.
func (rz *Restriction) Sub() *symschema.Schema { return rz.sub }

// Full returns the schema the restriction was built from.
func (rz *Restriction) Full() *symschema.Schema { return rz.full }

// TranslateProfile reduces a full-schema profile to the sub-schema's index
// space. p must have zero count at every masked-out strategy (a profile
// outside the restriction has no sub-game representation).
func (rz *Restriction) TranslateProfile(p profile.Profile) (profile.Profile, error) {
	out := make(profile.Profile, rz.sub.NumStrats())
	for i, c := range p {
		if c == 0 {
			continue
		}
		si := rz.toSub[i]
		if si < 0 {
			return nil, &RestrictionError{Msg: fmt.Sprintf("profile has positive count at masked-out strategy %d", i)}
		}
		out[si] = c
	}
	return out, nil
}

// ExpandProfile lifts a sub-schema profile back into the full-schema index
// space, zero everywhere outside the restriction.
func (rz *Restriction) ExpandProfile(p profile.Profile) profile.Profile {
	out := make(profile.Profile, rz.full.NumStrats())
	for si, c := range p {
		out[rz.toFull[si]] = c
	}
	return out
}

// TranslateMixture reduces a full-schema mixture to the sub-schema's index
// space. Mass outside the restriction must be exactly zero.
func (rz *Restriction) TranslateMixture(m profile.Mixture) (profile.Mixture, error) {
	out := make(profile.Mixture, rz.sub.NumStrats())
	for i, v := range m {
		si := rz.toSub[i]
		if si < 0 {
			if v != 0 {
				return nil, &RestrictionError{Msg: fmt.Sprintf("mixture has positive mass at masked-out strategy %d", i)}
			}
			continue
		}
		out[si] = v
	}
	return out, nil
}

// ExpandMixture lifts a sub-schema mixture back into the full-schema index
// space, zero everywhere outside the restriction.
func (rz *Restriction) ExpandMixture(m profile.Mixture) profile.Mixture {
	out := make(profile.Mixture, rz.full.NumStrats())
	for si, v := range m {
		out[rz.toFull[si]] = v
	}
	return out
}

// Subgame restricts g's payoff rows down to the sub-schema: every row whose
// full profile lies entirely within the restriction is translated and kept,
// in the induced sub-game's own index space.
func Subgame(rz *Restriction, g *rsgame.PayoffGame, opts ...rsgame.Option) (*rsgame.PayoffGame, error) {
	var rows []rsgame.PayoffRow
	for _, p := range g.Profiles() {
		inside := true
		for i, c := range p {
			if c > 0 && !rz.mask[i] {
				inside = false
				break
			}
		}
		if !inside {
			continue
		}
		sp, err := rz.TranslateProfile(p)
		if err != nil {
			return nil, err
		}
		full := g.GetPayoffs(p)
		pay := make([]float64, rz.sub.NumStrats())
		for si := range pay {
			pay[si] = full[rz.toFull[si]]
		}
		rows = append(rows, rsgame.PayoffRow{Profile: sp, Payoffs: pay})
	}
	return rsgame.NewPayoffGame(rz.sub, rows, opts...)
}
