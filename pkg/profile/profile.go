// Package profile implements the profile and mixture vectors indexed by a
// symschema.Schema, plus the enumeration and sampling operations defined
// over them: all legal profiles, random profiles/mixtures, simplex grid
// mixtures, and random sub-game masks.
package profile

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/stat/distmv"

	"github.com/behrlich/rolesym/pkg/symschema"
)

// Profile is a non-negative integer count vector, one entry per global
// strategy index, whose role slices sum to that role's player count.
type Profile []int

// Mixture is a non-negative real probability vector, one entry per global
// strategy index, whose role slices each sum to 1.
type Mixture []float64

// ShapeError reports a profile or mixture that violates its role-sum
// invariant, has a negative/out-of-range entry, or has the wrong length.
type ShapeError struct {
	Msg string
}

func (e *ShapeError) Error() string { return "profile shape violation: " + e.Msg }

const mixtureTol = 1e-9

// New validates and returns a Profile over schema s. counts must have
// length s.NumStrats(), be non-negative, and each role's slice must sum to
// that role's player count.
func New(s *symschema.Schema, counts []int) (Profile, error) {
	if len(counts) != s.NumStrats() {
		return nil, &ShapeError{Msg: fmt.Sprintf("expected %d entries, got %d", s.NumStrats(), len(counts))}
	}
	for i, c := range counts {
		if c < 0 {
			return nil, &ShapeError{Msg: fmt.Sprintf("negative count %d at strategy %d", c, i)}
		}
	}
	for r := 0; r < s.NumRoles(); r++ {
		start, end := s.RoleStart(r), s.RoleStart(r)+s.NumRoleStrats(r)
		sum := 0
		for _, c := range counts[start:end] {
			sum += c
		}
		if sum != s.Players(r) {
			return nil, &ShapeError{Msg: fmt.Sprintf("role %q sums to %d, want %d players", s.RoleName(r), sum, s.Players(r))}
		}
	}
	p := make(Profile, len(counts))
	copy(p, counts)
	return p, nil
}

// Support reports, per strategy, whether the profile has a positive count.
func (p Profile) Support() []bool {
	out := make([]bool, len(p))
	for i, c := range p {
		out[i] = c > 0
	}
	return out
}

// Equal reports elementwise equality.
func (p Profile) Equal(other Profile) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Less gives a total order over profiles (lexicographic by count vector),
// used to canonicalize row order and to binary-search a sorted profile
// list.
func (p Profile) Less(other Profile) bool {
	for i := 0; i < len(p) && i < len(other); i++ {
		if p[i] != other[i] {
			return p[i] < other[i]
		}
	}
	return len(p) < len(other)
}

// String renders the profile as "role: <count>x<strat>, ...", with roles
// separated by "; " and zero-count strategies omitted.
func (p Profile) String(s *symschema.Schema) string {
	var b strings.Builder
	for r := 0; r < s.NumRoles(); r++ {
		if r > 0 {
			b.WriteString("; ")
		}
		b.WriteString(s.RoleName(r))
		b.WriteString(": ")
		start, end := s.RoleStart(r), s.RoleStart(r)+s.NumRoleStrats(r)
		first := true
		for i := start; i < end; i++ {
			if p[i] == 0 {
				continue
			}
			if !first {
				b.WriteString(", ")
			}
			first = false
			fmt.Fprintf(&b, "%dx%s", p[i], s.StrategyName(i))
		}
	}
	return b.String()
}

// NewMixture validates and returns a Mixture over schema s. probs must have
// length s.NumStrats(), be non-negative, and each role's slice must sum to 1
// within mixtureTol.
func NewMixture(s *symschema.Schema, probs []float64) (Mixture, error) {
	if len(probs) != s.NumStrats() {
		return nil, &ShapeError{Msg: fmt.Sprintf("expected %d entries, got %d", s.NumStrats(), len(probs))}
	}
	for i, v := range probs {
		if v < 0 {
			return nil, &ShapeError{Msg: fmt.Sprintf("negative probability %g at strategy %d", v, i)}
		}
	}
	for r := 0; r < s.NumRoles(); r++ {
		start, end := s.RoleStart(r), s.RoleStart(r)+s.NumRoleStrats(r)
		sum := 0.0
		for _, v := range probs[start:end] {
			sum += v
		}
		if math.Abs(sum-1) > mixtureTol {
			return nil, &ShapeError{Msg: fmt.Sprintf("role %q mixture sums to %g, want 1", s.RoleName(r), sum)}
		}
	}
	m := make(Mixture, len(probs))
	copy(m, probs)
	return m, nil
}

// Support reports, per strategy, whether the mixture places positive mass.
func (m Mixture) Support() []bool {
	out := make([]bool, len(m))
	for i, v := range m {
		out[i] = v > 0
	}
	return out
}

// AllProfiles enumerates every legal profile of s in a deterministic order:
// for each role, multisets of size Players(r) over its strategies are
// generated by recursively distributing player counts strategy by
// strategy (a colex-style enumeration over the stars-and-bars bijection),
// then the per-role lists are combined by Cartesian product across roles.
func AllProfiles(s *symschema.Schema) []Profile {
	perRole := make([][][]int, s.NumRoles())
	for r := 0; r < s.NumRoles(); r++ {
		perRole[r] = enumerateRoleCounts(s.NumRoleStrats(r), s.Players(r))
	}

	total := 1
	for _, lst := range perRole {
		total *= len(lst)
	}
	profiles := make([]Profile, 0, total)

	combo := make([]int, s.NumRoles())
	var rec func(r int)
	rec = func(r int) {
		if r == s.NumRoles() {
			p := make(Profile, s.NumStrats())
			for ri := 0; ri < s.NumRoles(); ri++ {
				copy(p[s.RoleStart(ri):s.RoleStart(ri)+s.NumRoleStrats(ri)], perRole[ri][combo[ri]])
			}
			profiles = append(profiles, p)
			return
		}
		for i := range perRole[r] {
			combo[r] = i
			rec(r + 1)
		}
	}
	rec(0)
	return profiles
}

// enumerateRoleCounts returns every non-negative integer vector of length
// numStrats summing to players, built by recursively assigning a count to
// each strategy position in turn.
func enumerateRoleCounts(numStrats, players int) [][]int {
	var result [][]int
	counts := make([]int, numStrats)
	var rec func(idx, remaining int)
	rec = func(idx, remaining int) {
		if idx == numStrats-1 {
			counts[idx] = remaining
			cp := make([]int, numStrats)
			copy(cp, counts)
			result = append(result, cp)
			return
		}
		for c := 0; c <= remaining; c++ {
			counts[idx] = c
			rec(idx+1, remaining-c)
		}
	}
	rec(0, players)
	return result
}

// RandomProfiles draws n profiles uniformly from the legal profile space of
// s (uniform over AllProfiles, not over the underlying player assignment).
func RandomProfiles(s *symschema.Schema, n int, rng *rand.Rand) []Profile {
	all := AllProfiles(s)
	out := make([]Profile, n)
	for i := range out {
		out[i] = all[rng.Intn(len(all))]
	}
	return out
}

// RandomMixtures draws n mixtures, each role slice drawn independently from
// a symmetric Dirichlet(1) distribution (uniform over the role's simplex).
func RandomMixtures(s *symschema.Schema, n int, rng *rand.Rand) []Mixture {
	out := make([]Mixture, n)
	for i := range out {
		m := make(Mixture, s.NumStrats())
		for r := 0; r < s.NumRoles(); r++ {
			k := s.NumRoleStrats(r)
			alpha := make([]float64, k)
			for j := range alpha {
				alpha[j] = 1
			}
			// NewDirichlet panics on k == 0, which can't happen: schemas
			// require at least one strategy per role.
			dir := distmv.NewDirichlet(alpha, rng)
			draw := dir.Rand(nil)
			copy(m[s.RoleStart(r):s.RoleStart(r)+k], draw)
		}
		out[i] = m
	}
	return out
}

// GridMixtures returns every mixture whose role slices lie on the
// resolution-k simplex grid: each role slice is a vector of non-negative
// integers summing to k, scaled by 1/k, combined by Cartesian product
// across roles.
func GridMixtures(s *symschema.Schema, k int) []Mixture {
	perRole := make([][][]int, s.NumRoles())
	for r := 0; r < s.NumRoles(); r++ {
		perRole[r] = enumerateRoleCounts(s.NumRoleStrats(r), k)
	}

	total := 1
	for _, lst := range perRole {
		total *= len(lst)
	}
	mixtures := make([]Mixture, 0, total)

	combo := make([]int, s.NumRoles())
	var rec func(r int)
	rec = func(r int) {
		if r == s.NumRoles() {
			m := make(Mixture, s.NumStrats())
			for ri := 0; ri < s.NumRoles(); ri++ {
				start := s.RoleStart(ri)
				for j, c := range perRole[ri][combo[ri]] {
					m[start+j] = float64(c) / float64(k)
				}
			}
			mixtures = append(mixtures, m)
			return
		}
		for i := range perRole[r] {
			combo[r] = i
			rec(r + 1)
		}
	}
	rec(0)
	return mixtures
}

// RandomSubgame returns a uniformly random boolean strategy mask with at
// least one true entry per role.
func RandomSubgame(s *symschema.Schema, rng *rand.Rand) []bool {
	mask := make([]bool, s.NumStrats())
	for r := 0; r < s.NumRoles(); r++ {
		start, n := s.RoleStart(r), s.NumRoleStrats(r)
		for {
			any := false
			for i := 0; i < n; i++ {
				v := rng.Intn(2) == 1
				mask[start+i] = v
				any = any || v
			}
			if any {
				break
			}
		}
	}
	return mask
}
