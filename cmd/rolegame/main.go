// Command rolegame loads a role-symmetric game from a JSON file and reports
// deviation payoffs, best response, and dominance/iterated-elimination
// results for a given or uniform mixture.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/behrlich/rolesym/pkg/dominance"
	"github.com/behrlich/rolesym/pkg/gamejson"
	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/rsgame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

func main() {
	gameFile := flag.String("game", "", "Path to a game JSON file (required)")
	mixtureStr := flag.String("mixture", "", "Comma-separated mixture, in schema strategy order (default: uniform per role)")
	conditional := flag.Bool("conditional", true, "Treat missing payoff rows as not disproving dominance")
	criterion := flag.String("criterion", "strict", "Dominance criterion: weak, strict, or nbr")
	eliminate := flag.Bool("eliminate", false, "Run iterated elimination instead of a single dominance pass")
	verbose := flag.Bool("verbose", false, "Show debug logging during game construction")

	flag.Parse()

	if *gameFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: rolegame --game=<path> [flags]\n\nFlags:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	doc, err := gamejson.LoadGameFile(*gameFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading game file: %v\n", err)
		os.Exit(1)
	}

	var opts []rsgame.Option
	if *verbose {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		opts = append(opts, rsgame.WithLogger(logger))
	}

	g, err := gamejson.LoadPayoffGame(doc, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading game: %v\n", err)
		os.Exit(1)
	}

	schema := g.Schema()
	fmt.Printf("Loaded game: %d roles, %d strategies, %d profiles (complete=%v)\n\n",
		schema.NumRoles(), schema.NumStrats(), g.NumProfiles(), g.IsComplete())

	m, err := parseOrUniformMixture(g, *mixtureStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing mixture: %v\n", err)
		os.Exit(1)
	}

	dev := g.DeviationPayoffs(m)
	best := g.BestResponse(m)
	fmt.Printf("=== DEVIATION PAYOFFS ===\n")
	for i := 0; i < schema.NumStrats(); i++ {
		fmt.Printf("  %s/%s: dev=%.4f  best_response=%.4f\n",
			schema.RoleName(schema.RoleOfStrategy(i)), schema.StrategyName(i), dev[i], best[i])
	}
	fmt.Println()

	crit, err := parseCriterion(*criterion)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	dopts := dominance.Options{Criterion: crit, Conditional: *conditional}

	if *eliminate {
		mask, err := dominance.IterateElimination(g, dopts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error running iterated elimination: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("=== ITERATED ELIMINATION (%s) ===\n", *criterion)
		printMask(schema, "survives", mask)
		return
	}

	fmt.Printf("=== DOMINANCE (%s, conditional=%v) ===\n", *criterion, *conditional)
	mask := dominance.Mask(g, dopts)
	printMask(schema, "dominated", mask)
	by := dominance.DominatedBy(g, dopts)
	for s, d := range by {
		fmt.Printf("  %s/%s dominated by %s/%s\n",
			schema.RoleName(schema.RoleOfStrategy(s)), schema.StrategyName(s),
			schema.RoleName(schema.RoleOfStrategy(d)), schema.StrategyName(d))
	}
}

func printMask(schema *symschema.Schema, label string, mask []bool) {
	for i, v := range mask {
		fmt.Printf("  %s/%s: %s=%v\n",
			schema.RoleName(schema.RoleOfStrategy(i)), schema.StrategyName(i), label, v)
	}
	fmt.Println()
}

func parseCriterion(s string) (dominance.Criterion, error) {
	switch strings.ToLower(s) {
	case "weak":
		return dominance.Weak, nil
	case "strict":
		return dominance.Strict, nil
	case "nbr", "neverbestresponse":
		return dominance.NeverBestResponse, nil
	default:
		return 0, fmt.Errorf("unknown criterion %q (want weak, strict, or nbr)", s)
	}
}

func parseOrUniformMixture(g *rsgame.PayoffGame, s string) (profile.Mixture, error) {
	schema := g.Schema()
	if s == "" {
		m := make(profile.Mixture, schema.NumStrats())
		for r := 0; r < schema.NumRoles(); r++ {
			start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
			share := 1.0 / float64(end-start)
			for i := start; i < end; i++ {
				m[i] = share
			}
		}
		return profile.NewMixture(schema, m)
	}

	parts := strings.Split(s, ",")
	if len(parts) != schema.NumStrats() {
		return nil, fmt.Errorf("mixture has %d entries, want %d", len(parts), schema.NumStrats())
	}
	vals := make([]float64, len(parts))
	for i, p := range parts {
		var v float64
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%g", &v); err != nil {
			return nil, fmt.Errorf("entry %d (%q) is not a number", i, p)
		}
		vals[i] = v
	}
	return profile.NewMixture(schema, vals)
}
