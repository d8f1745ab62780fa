// Package rsgame implements the empty game and payoff game layers: profile
// enumeration over a schema, and the dense payoff table together with the
// deviation-payoff, jacobian, expected-payoff, best-response, and regret
// kernels computed over it.
package rsgame

import (
	"math/rand"
	"sync"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// EmptyGame is a schema with no payoff data: it only knows how to enumerate
// profiles, mixtures, and sub-game masks. PayoffGame embeds one.
type EmptyGame struct {
	schema *symschema.Schema

	allProfilesOnce sync.Once
	allProfiles     []profile.Profile
}

// NewEmptyGame wraps a schema as an EmptyGame.
func NewEmptyGame(schema *symschema.Schema) *EmptyGame {
	return &EmptyGame{schema: schema}
}

// Schema returns the underlying role/strategy schema.
func (g *EmptyGame) Schema() *symschema.Schema { return g.schema }

// AllProfiles returns every legal profile, computed once and cached.
func (g *EmptyGame) AllProfiles() []profile.Profile {
	g.allProfilesOnce.Do(func() {
		g.allProfiles = profile.AllProfiles(g.schema)
	})
	return g.allProfiles
}

// RandomProfiles draws n profiles uniformly from the legal profile space.
func (g *EmptyGame) RandomProfiles(n int, rng *rand.Rand) []profile.Profile {
	return profile.RandomProfiles(g.schema, n, rng)
}

// RandomMixtures draws n mixtures, Dirichlet(1) per role.
func (g *EmptyGame) RandomMixtures(n int, rng *rand.Rand) []profile.Mixture {
	return profile.RandomMixtures(g.schema, n, rng)
}

// GridMixtures returns every mixture on the resolution-k simplex grid.
func (g *EmptyGame) GridMixtures(k int) []profile.Mixture {
	return profile.GridMixtures(g.schema, k)
}

// RandomSubgame returns a uniformly random non-empty-per-role strategy
// mask.
func (g *EmptyGame) RandomSubgame(rng *rand.Rand) []bool {
	return profile.RandomSubgame(g.schema, rng)
}
