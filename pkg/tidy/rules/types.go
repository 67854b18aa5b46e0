package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
)

// Field is the file attribute a condition inspects.
type Field string

// Condition fields.
const (
	FieldName         Field = "name"
	FieldExtension    Field = "extension"
	FieldSize         Field = "size"
	FieldCreatedDate  Field = "createdDate"
	FieldModifiedDate Field = "modifiedDate"
)

// Operator compares a field value with a condition value.
type Operator string

// Condition operators. Textual operators ignore case; greaterThan and
// lessThan compare unsigned integers.
const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpMatches     Operator = "matches"
)

// Logic combines the results of a rule's conditions.
type Logic string

// Condition logic.
const (
	And Logic = "AND"
	Or  Logic = "OR"
)

// ActionType is what a matching rule does to a file.
type ActionType string

// Rule actions.
const (
	ActionMove   ActionType = "move"
	ActionCopy   ActionType = "copy"
	ActionRename ActionType = "rename"
	ActionDelete ActionType = "delete"
)

// Condition is one test against a file attribute.
type Condition struct {
	Field    Field    `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
}

// Action describes what happens to a matched file.
type Action struct {
	Type ActionType `json:"type" yaml:"type"`

	// Destination is a folder. Relative destinations are resolved against
	// the directory being organized.
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`

	// RenamePattern is used by rename actions. See ExpandPattern.
	RenamePattern string `json:"rename_pattern,omitempty" yaml:"rename_pattern,omitempty"`

	// DateSubfolder appends a YYYY-MM folder taken from the file's
	// modification time.
	DateSubfolder bool `json:"create_date_subfolder,omitempty" yaml:"create_date_subfolder,omitempty"`
}

// Rule is a user-defined rule. ID is zero until the rule is first saved.
type Rule struct {
	ID         int64       `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string      `json:"name" yaml:"name"`
	Priority   int         `json:"priority" yaml:"priority"`
	Enabled    bool        `json:"enabled" yaml:"enabled"`
	Conditions []Condition `json:"conditions" yaml:"conditions"`
	Logic      Logic       `json:"condition_logic" yaml:"condition_logic"`
	Action     Action      `json:"action" yaml:"action"`
	CreatedAt  time.Time   `json:"created_at,omitzero" yaml:"-"`
	UpdatedAt  time.Time   `json:"updated_at,omitzero" yaml:"-"`
}

// DefaultRule is the per-category fallback used by unified organization.
// Priority orders the rules for display only.
type DefaultRule struct {
	Category      classify.Category `json:"category" yaml:"category"`
	Enabled       bool              `json:"enabled" yaml:"enabled"`
	Destination   string            `json:"destination" yaml:"destination"`
	DateSubfolder bool              `json:"create_date_subfolder" yaml:"create_date_subfolder"`
	Priority      int               `json:"priority" yaml:"priority"`
}

// DefaultRules returns the seed set: one enabled rule per category, moving
// files into the category folder.
func DefaultRules() []DefaultRule {
	cats := classify.All()
	out := make([]DefaultRule, len(cats))
	for i, c := range cats {
		out[i] = DefaultRule{
			Category:    c,
			Enabled:     true,
			Destination: c.Folder(),
			Priority:    len(cats) - i,
		}
	}
	return out
}

// Validate checks that a rule is well formed: known fields, operators,
// logic and action, compilable regular expressions, and the parameters the
// action needs.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule has no name")
	}
	switch r.Logic {
	case And, Or:
	default:
		return fmt.Errorf("rule %q: unknown condition logic %q", r.Name, r.Logic)
	}
	for i, c := range r.Conditions {
		if err := c.validate(); err != nil {
			return fmt.Errorf("rule %q condition %d: %w", r.Name, i+1, err)
		}
	}
	switch r.Action.Type {
	case ActionMove, ActionCopy:
		if r.Action.Destination == "" {
			return fmt.Errorf("rule %q: %s needs a destination", r.Name, r.Action.Type)
		}
	case ActionRename:
		if r.Action.RenamePattern == "" {
			return fmt.Errorf("rule %q: rename needs a pattern", r.Name)
		}
	case ActionDelete:
	default:
		return fmt.Errorf("rule %q: unknown action %q", r.Name, r.Action.Type)
	}
	return nil
}

func (c Condition) validate() error {
	switch c.Field {
	case FieldName, FieldExtension, FieldSize, FieldCreatedDate, FieldModifiedDate:
	default:
		return fmt.Errorf("unknown field %q", c.Field)
	}
	switch c.Operator {
	case OpEquals, OpContains, OpStartsWith, OpEndsWith, OpGreaterThan, OpLessThan:
	case OpMatches:
		return ValidatePattern(c.Value)
	default:
		return fmt.Errorf("unknown operator %q", c.Operator)
	}
	return nil
}
