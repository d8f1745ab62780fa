// Package symschema describes the immutable role/strategy structure shared
// by every game in this module: which roles exist, how many players each
// role has, and which strategies a player of that role may choose.
package symschema

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/combin"
)

// ReduceOp selects the fold applied by Schema.RoleReduce.
type ReduceOp int

const (
	// ReduceSum sums a strategy-indexed vector within each role.
	ReduceSum ReduceOp = iota
	// ReduceMax takes the elementwise max within each role.
	ReduceMax
	// ReduceFMaxNaN is like ReduceMax but ignores NaN entries, the way
	// math.Max would if it didn't propagate NaN.
	ReduceFMaxNaN
)

// RoleSpec is the input to NewSchema: one role's name, player count, and
// strategy set, in whatever order the caller has them.
type RoleSpec struct {
	Name       string
	Players    int
	Strategies []string
}

// Schema is the immutable role/strategy layout of a game. Role order and,
// within each role, strategy order are both canonicalized to lexicographic
// on construction; every index used elsewhere in the module is relative to
// that canonical order.
type Schema struct {
	roleNames     []string
	strategies    [][]string
	playerCounts  []int
	numRoleStrats []int
	roleStarts    []int
	numStrats     int
}

// SchemaError reports a violation of the role/strategy invariants: duplicate
// or missing names, a role with fewer than one player, or an empty strategy
// set.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema violation: " + e.Msg }

// NewSchema validates and builds a Schema from a set of role specs. Role
// order in the input is irrelevant; the schema always canonicalizes to
// lexicographic role order and, within each role, lexicographic strategy
// order.
func NewSchema(roles []RoleSpec) (*Schema, error) {
	if len(roles) == 0 {
		return nil, &SchemaError{Msg: "at least one role is required"}
	}

	sorted := make([]RoleSpec, len(roles))
	copy(sorted, roles)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	seenRoles := make(map[string]bool, len(sorted))
	s := &Schema{
		roleNames:     make([]string, len(sorted)),
		strategies:    make([][]string, len(sorted)),
		playerCounts:  make([]int, len(sorted)),
		numRoleStrats: make([]int, len(sorted)),
		roleStarts:    make([]int, len(sorted)),
	}

	offset := 0
	for i, r := range sorted {
		if r.Name == "" {
			return nil, &SchemaError{Msg: "role name must not be empty"}
		}
		if seenRoles[r.Name] {
			return nil, &SchemaError{Msg: fmt.Sprintf("duplicate role name %q", r.Name)}
		}
		seenRoles[r.Name] = true

		if r.Players < 1 {
			return nil, &SchemaError{Msg: fmt.Sprintf("role %q must have at least 1 player, got %d", r.Name, r.Players)}
		}
		if len(r.Strategies) == 0 {
			return nil, &SchemaError{Msg: fmt.Sprintf("role %q must have at least one strategy", r.Name)}
		}

		strats := make([]string, len(r.Strategies))
		copy(strats, r.Strategies)
		sort.Strings(strats)

		seenStrats := make(map[string]bool, len(strats))
		for _, st := range strats {
			if st == "" {
				return nil, &SchemaError{Msg: fmt.Sprintf("role %q has an empty strategy name", r.Name)}
			}
			if seenStrats[st] {
				return nil, &SchemaError{Msg: fmt.Sprintf("role %q has duplicate strategy %q", r.Name, st)}
			}
			seenStrats[st] = true
		}

		s.roleNames[i] = r.Name
		s.strategies[i] = strats
		s.playerCounts[i] = r.Players
		s.numRoleStrats[i] = len(strats)
		s.roleStarts[i] = offset
		offset += len(strats)
	}
	s.numStrats = offset

	return s, nil
}

// NumRoles returns the number of roles.
func (s *Schema) NumRoles() int { return len(s.roleNames) }

// NumStrats returns the total strategy count across all roles.
func (s *Schema) NumStrats() int { return s.numStrats }

// RoleName returns the canonical name of role r.
func (s *Schema) RoleName(r int) string { return s.roleNames[r] }

// Players returns the player count of role r.
func (s *Schema) Players(r int) int { return s.playerCounts[r] }

// NumRoleStrats returns the strategy count of role r.
func (s *Schema) NumRoleStrats(r int) int { return s.numRoleStrats[r] }

// RoleStart returns the global strategy offset at which role r begins.
func (s *Schema) RoleStart(r int) int { return s.roleStarts[r] }

// RoleStrategies returns the canonical strategy names of role r.
func (s *Schema) RoleStrategies(r int) []string {
	out := make([]string, len(s.strategies[r]))
	copy(out, s.strategies[r])
	return out
}

// RoleIndex returns the index of the named role, or false if it doesn't
// exist.
func (s *Schema) RoleIndex(name string) (int, bool) {
	// Roles are few and already sorted; linear scan is simpler than
	// maintaining a parallel map and just as fast in practice.
	for i, n := range s.roleNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// StrategyIndex returns the global strategy index of (role, strategy), or
// an error if either name is unknown.
func (s *Schema) StrategyIndex(role, strategy string) (int, error) {
	r, ok := s.RoleIndex(role)
	if !ok {
		return 0, fmt.Errorf("unknown role %q", role)
	}
	for i, st := range s.strategies[r] {
		if st == strategy {
			return s.roleStarts[r] + i, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q in role %q", strategy, role)
}

// RoleOfStrategy returns the role index owning global strategy index i.
func (s *Schema) RoleOfStrategy(i int) int {
	for r := len(s.roleStarts) - 1; r >= 0; r-- {
		if i >= s.roleStarts[r] {
			return r
		}
	}
	return 0
}

// StrategyName returns the name of global strategy index i.
func (s *Schema) StrategyName(i int) string {
	r := s.RoleOfStrategy(i)
	return s.strategies[r][i-s.roleStarts[r]]
}

// NumAllProfiles returns the number of distinct legal profiles: the product
// over roles of C(players_r + strats_r - 1, players_r), the stars-and-bars
// count of multisets of size players_r drawn from strats_r strategies.
func (s *Schema) NumAllProfiles() int {
	total := 1
	for r := range s.roleNames {
		n := s.playerCounts[r] + s.numRoleStrats[r] - 1
		k := s.playerCounts[r]
		total *= combin.Binomial(n, k)
	}
	return total
}

// RoleReduce folds a strategy-indexed vector down to a role-indexed vector
// (length NumRoles) using op. PayoffGame.ExpectedPayoffs uses it to sum
// m[s]·dev_payoff[s] within each role.
func (s *Schema) RoleReduce(v []float64, op ReduceOp) []float64 {
	out := make([]float64, s.NumRoles())
	for r := range s.roleNames {
		start, end := s.roleStarts[r], s.roleStarts[r]+s.numRoleStrats[r]
		switch op {
		case ReduceSum:
			sum := 0.0
			for _, x := range v[start:end] {
				sum += x
			}
			out[r] = sum
		case ReduceMax:
			m := v[start]
			for _, x := range v[start:end] {
				if x > m {
					m = x
				}
			}
			out[r] = m
		case ReduceFMaxNaN:
			m := math.NaN()
			found := false
			for _, x := range v[start:end] {
				if math.IsNaN(x) {
					continue
				}
				if !found || x > m {
					m = x
					found = true
				}
			}
			out[r] = m
		}
	}
	return out
}

// RoleRepeat broadcasts a role-indexed vector (length NumRoles) up to a
// strategy-indexed vector (length NumStrats), repeating each role's value
// across its strategy slice.
func (s *Schema) RoleRepeat(w []float64) []float64 {
	out := make([]float64, s.numStrats)
	for r := range s.roleNames {
		start, end := s.roleStarts[r], s.roleStarts[r]+s.numRoleStrats[r]
		for i := start; i < end; i++ {
			out[i] = w[r]
		}
	}
	return out
}

// Equal reports whether two schemas describe the same roles, player counts,
// and strategy sets (all already canonicalized, so this is a plain
// structural comparison).
func (s *Schema) Equal(other *Schema) bool {
	if other == nil {
		return false
	}
	if len(s.roleNames) != len(other.roleNames) {
		return false
	}
	for r := range s.roleNames {
		if s.roleNames[r] != other.roleNames[r] {
			return false
		}
		if s.playerCounts[r] != other.playerCounts[r] {
			return false
		}
		if len(s.strategies[r]) != len(other.strategies[r]) {
			return false
		}
		for i := range s.strategies[r] {
			if s.strategies[r][i] != other.strategies[r][i] {
				return false
			}
		}
	}
	return true
}

func (s *Schema) String() string {
	out := ""
	for r := range s.roleNames {
		out += fmt.Sprintf("%s(%d): %v\n", s.roleNames[r], s.playerCounts[r], s.strategies[r])
	}
	return out
}
