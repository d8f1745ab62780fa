// Package gamejson implements the external JSON boundary: a schema plus
// per-profile rows in one of three input shapes (compact "summary",
// per-sample "observations", and per-player "player-list"), and profile/
// payoff serialization in their own compact and player-list forms.
//
// Decoding follows the teacher's ToJSON/FromJSON convention (see
// pkg/solver/serialization.go): JSON-friendly Doc structs with their own
// (un)marshaling, converted to and from the domain types in this module by
// plain functions rather than methods on the domain types themselves.
package gamejson

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/behrlich/rolesym/pkg/profile"
	"github.com/behrlich/rolesym/pkg/rsgame"
	"github.com/behrlich/rolesym/pkg/samplegame"
	"github.com/behrlich/rolesym/pkg/symschema"
)

// FormatError reports a JSON boundary violation: an unknown role/strategy
// reference, a malformed triple, or ragged per-sample arrays within a row.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "game JSON violation: " + e.Msg }

// GameDoc is the wire shape of a whole game: players/strategies describe the
// schema, and each entry of Profiles is a role -> []tripleEntry row whose
// third element is either a summary float or a per-sample float array.
//
// On input, an equivalent "roles" form is also accepted in place of
// players/strategies: `"roles": [{"name", "count", "strategies": [...]},
// ...]` (spec.md §6). GameDoc.UnmarshalJSON folds it into Players/Strategies
// so the rest of this package only ever sees one shape; output always uses
// the canonical players/strategies/profiles form.
type GameDoc struct {
	Players    map[string]int             `json:"players"`
	Strategies map[string][]string        `json:"strategies"`
	Profiles   []map[string][]tripleEntry `json:"profiles"`
}

// rolesEntry is one element of the alternative "roles" input form.
type rolesEntry struct {
	Name       string   `json:"name"`
	Count      int      `json:"count"`
	Strategies []string `json:"strategies"`
}

// UnmarshalJSON decodes the canonical players/strategies/profiles shape and,
// when "roles" is present instead (or in addition), folds it into
// Players/Strategies.
func (d *GameDoc) UnmarshalJSON(data []byte) error {
	var wire struct {
		Players    map[string]int             `json:"players"`
		Strategies map[string][]string        `json:"strategies"`
		Profiles   []map[string][]tripleEntry `json:"profiles"`
		Roles      []rolesEntry               `json:"roles"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.Players = wire.Players
	d.Strategies = wire.Strategies
	d.Profiles = wire.Profiles
	if len(wire.Roles) > 0 {
		if d.Players == nil {
			d.Players = make(map[string]int, len(wire.Roles))
		}
		if d.Strategies == nil {
			d.Strategies = make(map[string][]string, len(wire.Roles))
		}
		for _, re := range wire.Roles {
			d.Players[re.Name] = re.Count
			d.Strategies[re.Name] = re.Strategies
		}
	}
	return nil
}

// tripleEntry is one [strategy, count, payoff|samples] triple.
type tripleEntry struct {
	Strategy   string
	Count      int
	Payoff     float64
	Samples    []float64
	HasSamples bool
}

// MarshalJSON renders the triple as a 3-element JSON array.
func (t tripleEntry) MarshalJSON() ([]byte, error) {
	var third interface{} = t.Payoff
	if t.HasSamples {
		third = t.Samples
	}
	return json.Marshal([3]interface{}{t.Strategy, t.Count, third})
}

// UnmarshalJSON parses a 3-element JSON array, detecting whether the third
// element is a single payoff float or a per-sample float array.
func (t *tripleEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return &FormatError{Msg: fmt.Sprintf("triple has %d elements, want 3", len(raw))}
	}
	if err := json.Unmarshal(raw[0], &t.Strategy); err != nil {
		return &FormatError{Msg: "triple[0] is not a strategy name: " + err.Error()}
	}
	if err := json.Unmarshal(raw[1], &t.Count); err != nil {
		return &FormatError{Msg: "triple[1] is not a count: " + err.Error()}
	}
	var f float64
	if err := json.Unmarshal(raw[2], &f); err == nil {
		t.Payoff = f
		t.HasSamples = false
		return nil
	}
	var arr []float64
	if err := json.Unmarshal(raw[2], &arr); err != nil {
		return &FormatError{Msg: "triple[2] is neither a payoff nor a sample array: " + err.Error()}
	}
	t.Samples = arr
	t.HasSamples = true
	return nil
}

// SchemaFromDoc builds the schema implied by a GameDoc's players/strategies
// maps.
func SchemaFromDoc(doc GameDoc) (*symschema.Schema, error) {
	roles := make([]symschema.RoleSpec, 0, len(doc.Players))
	for role, players := range doc.Players {
		strats, ok := doc.Strategies[role]
		if !ok {
			return nil, &FormatError{Msg: fmt.Sprintf("role %q has no strategies entry", role)}
		}
		roles = append(roles, symschema.RoleSpec{Name: role, Players: players, Strategies: strats})
	}
	return symschema.NewSchema(roles)
}

// rowFromEntries decodes one profile entry into a profile vector and either
// a summary payoff vector or a set of per-sample observation rows. Exactly
// one of (pay, obs) is non-nil.
func rowFromEntries(schema *symschema.Schema, entry map[string][]tripleEntry) (profile.Profile, []float64, [][]float64, error) {
	n := schema.NumStrats()
	p := make(profile.Profile, n)
	summary := make([]float64, n)
	sampleVals := make(map[int][]float64)
	sampleLen := -1
	anySamples := false

	for role, list := range entry {
		if _, ok := schema.RoleIndex(role); !ok {
			return nil, nil, nil, &FormatError{Msg: fmt.Sprintf("unknown role %q", role)}
		}
		for _, te := range list {
			idx, err := schema.StrategyIndex(role, te.Strategy)
			if err != nil {
				return nil, nil, nil, &FormatError{Msg: err.Error()}
			}
			p[idx] = te.Count
			if te.HasSamples {
				anySamples = true
				if sampleLen == -1 {
					sampleLen = len(te.Samples)
				} else if len(te.Samples) != sampleLen {
					return nil, nil, nil, &FormatError{Msg: fmt.Sprintf("ragged sample counts within one profile row: strategy %q has %d, want %d", te.Strategy, len(te.Samples), sampleLen)}
				}
				vals := make([]float64, len(te.Samples))
				copy(vals, te.Samples)
				sampleVals[idx] = vals
			} else {
				summary[idx] = te.Payoff
			}
		}
	}

	validated, err := profile.New(schema, p)
	if err != nil {
		return nil, nil, nil, err
	}

	if !anySamples {
		return validated, summary, nil, nil
	}
	obs := make([][]float64, sampleLen)
	for k := 0; k < sampleLen; k++ {
		row := make([]float64, n)
		for idx, arr := range sampleVals {
			row[idx] = arr[k]
		}
		obs[k] = row
	}
	return validated, nil, obs, nil
}

// LoadPayoffGame decodes a GameDoc into a rsgame.PayoffGame, collapsing any
// per-sample rows to their mean (spec.md §4.7).
func LoadPayoffGame(doc GameDoc, opts ...rsgame.Option) (*rsgame.PayoffGame, error) {
	schema, err := SchemaFromDoc(doc)
	if err != nil {
		return nil, err
	}
	rows := make([]rsgame.PayoffRow, 0, len(doc.Profiles))
	for _, entry := range doc.Profiles {
		p, pay, obs, err := rowFromEntries(schema, entry)
		if err != nil {
			return nil, err
		}
		if obs != nil {
			pay = meanColumns(obs, schema.NumStrats())
		}
		rows = append(rows, rsgame.PayoffRow{Profile: p, Payoffs: pay})
	}
	return rsgame.NewPayoffGame(schema, rows, opts...)
}

func meanColumns(obs [][]float64, n int) []float64 {
	sum := make([]float64, n)
	count := make([]int, n)
	for _, row := range obs {
		for s, v := range row {
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

// LoadSampleGame decodes a GameDoc into a samplegame.SampleGame. A summary
// row (no per-sample arrays) becomes a single-observation row, so that
// round-tripping a summary document through LoadSampleGame and then
// ToPayoffGame recovers exactly the original payoffs.
func LoadSampleGame(doc GameDoc) (*samplegame.SampleGame, error) {
	schema, err := SchemaFromDoc(doc)
	if err != nil {
		return nil, err
	}
	rows := make([]samplegame.SampleRow, 0, len(doc.Profiles))
	for _, entry := range doc.Profiles {
		p, pay, obs, err := rowFromEntries(schema, entry)
		if err != nil {
			return nil, err
		}
		if obs == nil {
			obs = [][]float64{pay}
		}
		rows = append(rows, samplegame.SampleRow{Profile: p, Payoffs: obs})
	}
	return samplegame.NewSampleGame(schema, rows)
}

// ToDoc renders a PayoffGame in the compact summary shape.
func ToDoc(g *rsgame.PayoffGame) GameDoc {
	schema := g.Schema()
	doc := docSkeleton(schema)
	for _, p := range g.Profiles() {
		pay := g.GetPayoffs(p)
		doc.Profiles = append(doc.Profiles, entryFromRow(schema, p, pay, nil))
	}
	return doc
}

// ToSampleDoc renders a SampleGame in the per-sample observations shape.
func ToSampleDoc(g *samplegame.SampleGame) GameDoc {
	schema := g.Schema()
	doc := docSkeleton(schema)
	for _, row := range g.Rows() {
		doc.Profiles = append(doc.Profiles, entryFromRow(schema, row.Profile, nil, row.Payoffs))
	}
	return doc
}

func docSkeleton(schema *symschema.Schema) GameDoc {
	doc := GameDoc{
		Players:    make(map[string]int, schema.NumRoles()),
		Strategies: make(map[string][]string, schema.NumRoles()),
		Profiles:   make([]map[string][]tripleEntry, 0),
	}
	for r := 0; r < schema.NumRoles(); r++ {
		doc.Players[schema.RoleName(r)] = schema.Players(r)
		doc.Strategies[schema.RoleName(r)] = schema.RoleStrategies(r)
	}
	return doc
}

// entryFromRow renders one profile's row as a role -> []tripleEntry map.
// Exactly one of pay (summary) or obs (per-sample) is non-nil.
func entryFromRow(schema *symschema.Schema, p profile.Profile, pay []float64, obs [][]float64) map[string][]tripleEntry {
	entry := make(map[string][]tripleEntry)
	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		var list []tripleEntry
		for i := start; i < end; i++ {
			if p[i] == 0 {
				continue
			}
			te := tripleEntry{Strategy: schema.StrategyName(i), Count: p[i]}
			if obs != nil {
				samples := make([]float64, len(obs))
				for k, row := range obs {
					samples[k] = row[i]
				}
				te.Samples = samples
				te.HasSamples = true
			} else {
				te.Payoff = pay[i]
			}
			list = append(list, te)
		}
		if list != nil {
			entry[schema.RoleName(r)] = list
		}
	}
	return entry
}

// ProfileRecord is one player's {role, strategy} entry in the profile
// player-list JSON form.
type ProfileRecord struct {
	Role     string `json:"role"`
	Strategy string `json:"strategy"`
}

// ProfileFromPlayerList aggregates a player-list into a Profile, counting
// identical records (spec.md §6).
func ProfileFromPlayerList(schema *symschema.Schema, records []ProfileRecord) (profile.Profile, error) {
	p := make(profile.Profile, schema.NumStrats())
	for _, rec := range records {
		idx, err := schema.StrategyIndex(rec.Role, rec.Strategy)
		if err != nil {
			return nil, &FormatError{Msg: err.Error()}
		}
		p[idx]++
	}
	return profile.New(schema, p)
}

// ProfileToPlayerList expands a Profile into its player-list form, one
// record per player.
func ProfileToPlayerList(schema *symschema.Schema, p profile.Profile) []ProfileRecord {
	var out []ProfileRecord
	for r := 0; r < schema.NumRoles(); r++ {
		start, end := schema.RoleStart(r), schema.RoleStart(r)+schema.NumRoleStrats(r)
		for i := start; i < end; i++ {
			for k := 0; k < p[i]; k++ {
				out = append(out, ProfileRecord{Role: schema.RoleName(r), Strategy: schema.StrategyName(i)})
			}
		}
	}
	return out
}

// PayoffPlayerRecord is one player's {role, strategy, payoff} entry in the
// payoff player-list JSON form.
type PayoffPlayerRecord struct {
	Role     string  `json:"role"`
	Strategy string  `json:"strategy"`
	Payoff   float64 `json:"payoff"`
}

// ProfileAndPayoffFromPlayerList aggregates a payoff player-list into a
// Profile and its payoff vector. Records sharing a (role, strategy) must
// carry the same payoff; they collapse to a single count/payoff pair.
func ProfileAndPayoffFromPlayerList(schema *symschema.Schema, records []PayoffPlayerRecord) (profile.Profile, []float64, error) {
	p := make(profile.Profile, schema.NumStrats())
	pay := make([]float64, schema.NumStrats())
	seen := make(map[int]bool)
	for _, rec := range records {
		idx, err := schema.StrategyIndex(rec.Role, rec.Strategy)
		if err != nil {
			return nil, nil, &FormatError{Msg: err.Error()}
		}
		if seen[idx] && pay[idx] != rec.Payoff {
			return nil, nil, &FormatError{Msg: fmt.Sprintf("conflicting payoffs for role %q strategy %q", rec.Role, rec.Strategy)}
		}
		pay[idx] = rec.Payoff
		seen[idx] = true
		p[idx]++
	}
	validated, err := profile.New(schema, p)
	if err != nil {
		return nil, nil, err
	}
	return validated, pay, nil
}

// SaveGameFile writes a GameDoc to path as indented JSON (teacher
// convention: see pkg/solver/serialization.go's SaveToFile).
func SaveGameFile(path string, doc GameDoc) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadGameFile reads a GameDoc from path.
func LoadGameFile(path string) (GameDoc, error) {
	var doc GameDoc
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}
