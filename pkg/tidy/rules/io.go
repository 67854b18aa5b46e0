package rules

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// document is the on-disk rules file layout.
type document struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

const documentVersion = 1

// Export writes rules as a YAML document. Ids and timestamps are omitted so
// the file can be imported into another database.
func Export(w io.Writer, rules []Rule) error {
	doc := document{Version: documentVersion, Rules: make([]Rule, len(rules))}
	for i, r := range rules {
		r.ID = 0
		doc.Rules[i] = r
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("export rules: %w", err)
	}
	return enc.Close()
}

// Import reads a YAML (or JSON) rules document. Every rule is validated;
// the first invalid rule fails the import. Missing logic defaults to AND.
func Import(r io.Reader) ([]Rule, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("import rules: %w", err)
	}
	if doc.Version > documentVersion {
		return nil, fmt.Errorf("import rules: unsupported document version %d", doc.Version)
	}

	for i := range doc.Rules {
		doc.Rules[i].ID = 0
		if doc.Rules[i].Logic == "" {
			doc.Rules[i].Logic = And
		}
		if err := doc.Rules[i].Validate(); err != nil {
			return nil, fmt.Errorf("import rules: %w", err)
		}
	}
	return doc.Rules, nil
}
