package chronicle

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"publicgoods.sim/internal/sim/model"
	"publicgoods.sim/internal/sim/stats"
)

//go:embed chronicle.schema.json
var schemaSource string

var documentSchema = jsonschema.MustCompileString("chronicle.schema.json", schemaSource)

// Document is the serialized form of a chronicle: the setup header and
// one row of field values per agent per round, ordered like the setup's
// agent list within each round.
type Document struct {
	Setup   Setup     `json:"Setup"`
	Results [][][]any `json:"Results"`
}

// Document converts the recorded run into its serializable form. At
// least one round must have been recorded.
func (c *Chronicles) Document() (*Document, error) {
	if !c.connected {
		return nil, ErrNotConnected
	}
	if len(c.rounds) == 0 {
		return nil, fmt.Errorf("chronicle: no rounds recorded")
	}
	results := make([][][]any, len(c.rounds))
	for r, infos := range c.rounds {
		rows := make([][]any, len(infos))
		for i, info := range infos {
			rows[i] = info.Values()
		}
		results[r] = rows
	}
	return &Document{Setup: c.setup, Results: results}, nil
}

// MarshalJSON serializes the chronicle as an indented document.
func (c *Chronicles) MarshalJSON() ([]byte, error) {
	doc, err := c.Document()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode restores a chronicle from its serialized form. The document is
// validated against the chronicle schema first, and the statistics are
// rebuilt by replaying every recorded round.
func Decode(data []byte) (*Chronicles, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("chronicle decode: %w", err)
	}
	if err := documentSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("chronicle schema: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("chronicle decode: %w", err)
	}
	if err := checkVariables(doc.Setup.BasicVariables); err != nil {
		return nil, err
	}

	c := &Chronicles{
		setup:     doc.Setup,
		connected: true,
		rounds:    make([][]model.Info, len(doc.Results)),
	}
	c.stats = stats.NewExperiment(doc.Setup.ContribTokens, doc.Setup.SanctionTokens,
		doc.Setup.Agents, doc.Setup.AgentClasses)

	for r, rows := range doc.Results {
		infos := make([]model.Info, len(rows))
		public := make([]model.PublicInfo, len(rows))
		for i, values := range rows {
			info, err := model.FromValues(doc.Setup.BasicVariables, values)
			if err != nil {
				return nil, fmt.Errorf("chronicle round %d agent %d: %w", r, i, err)
			}
			infos[i] = info
			public[i] = model.Public(info, doc.Setup.SanctionTokens)
		}
		c.rounds[r] = infos
		if err := c.stats.Add(public, r); err != nil {
			return nil, fmt.Errorf("chronicle round %d: %w", r, err)
		}
	}
	return c, nil
}

// checkVariables rejects documents written with a different record
// layout, which would silently scramble every value column.
func checkVariables(names []string) error {
	want := model.FieldNames()
	if len(names) != len(want) {
		return fmt.Errorf("chronicle: %d basic variables, want %d", len(names), len(want))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range want {
		if !seen[n] {
			return fmt.Errorf("chronicle: basic variable %q missing", n)
		}
	}
	return nil
}
