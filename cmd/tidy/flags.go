package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/rename"
	"github.com/jamesainslie/tidy/pkg/tidy/rules"
)

// parseCommaSeparated splits a comma-separated string and trims whitespace.
func parseCommaSeparated(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseID parses a database id argument.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseCategory parses a category tag. Unlike classify.Parse it rejects
// unknown names.
func parseCategory(s string) (classify.Category, error) {
	c := classify.Parse(s)
	if c == classify.Others && !strings.EqualFold(strings.TrimSpace(s), classify.Others.String()) {
		names := make([]string, 0, len(classify.All()))
		for _, c := range classify.All() {
			names = append(names, c.String())
		}
		return c, fmt.Errorf("unknown category %q (want one of %s)", s, strings.Join(names, ", "))
	}
	return c, nil
}

// parseCondition parses field:operator:value. The value may itself contain
// colons.
func parseCondition(s string) (rules.Condition, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return rules.Condition{}, fmt.Errorf("invalid condition %q (want field:operator:value)", s)
	}
	c := rules.Condition{
		Field:    rules.Field(parts[0]),
		Operator: rules.Operator(parts[1]),
		Value:    parts[2],
	}
	check := rules.Rule{
		Name:       "condition",
		Conditions: []rules.Condition{c},
		Logic:      rules.And,
		Action:     rules.Action{Type: rules.ActionDelete},
	}
	if err := check.Validate(); err != nil {
		return rules.Condition{}, err
	}
	return c, nil
}

// renameFlags holds the batch-rename flags. Steps apply in a fixed order:
// find/replace, regex, case, prefix, suffix, date, sequence.
type renameFlags struct {
	find, replace          string
	regex, regexReplace    string
	caseType               string
	prefix, suffix         string
	dateFormat, dateSource string
	withDate               bool
	sequence               bool
	start, digits          int
}

func (f renameFlags) chain() []rename.Rule {
	var chain []rename.Rule
	if f.find != "" {
		chain = append(chain, rename.Rule{Type: rename.FindReplace, Find: f.find, Replace: f.replace})
	}
	if f.regex != "" {
		chain = append(chain, rename.Rule{Type: rename.Regex, Pattern: f.regex, Replacement: f.regexReplace})
	}
	if f.caseType != "" {
		chain = append(chain, rename.Rule{Type: rename.Case, CaseType: f.caseType})
	}
	if f.prefix != "" {
		chain = append(chain, rename.Rule{Type: rename.Prefix, Prefix: f.prefix})
	}
	if f.suffix != "" {
		chain = append(chain, rename.Rule{Type: rename.Suffix, Suffix: f.suffix})
	}
	if f.withDate {
		chain = append(chain, rename.Rule{Type: rename.Date, DateFormat: f.dateFormat, DateSource: f.dateSource})
	}
	if f.sequence {
		chain = append(chain, rename.Rule{Type: rename.Sequence, Start: f.start, Digits: f.digits})
	}
	return chain
}
