package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// Matches reports whether rec satisfies the rule's conditions. A rule
// without conditions never matches. The enabled flag is not consulted.
func (r Rule) Matches(rec types.FileRecord) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	if r.Logic == Or {
		for _, c := range r.Conditions {
			if c.Evaluate(rec) {
				return true
			}
		}
		return false
	}
	for _, c := range r.Conditions {
		if !c.Evaluate(rec) {
			return false
		}
	}
	return true
}

// Evaluate tests the condition against rec. Unknown fields or operators,
// unparsable numbers and invalid patterns evaluate to false.
func (c Condition) Evaluate(rec types.FileRecord) bool {
	value, ok := fieldValue(c.Field, rec)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEquals:
		return strings.EqualFold(value, c.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(c.Value))
	case OpStartsWith:
		return strings.HasPrefix(strings.ToLower(value), strings.ToLower(c.Value))
	case OpEndsWith:
		return strings.HasSuffix(strings.ToLower(value), strings.ToLower(c.Value))
	case OpGreaterThan, OpLessThan:
		a, errA := strconv.ParseUint(value, 10, 64)
		b, errB := strconv.ParseUint(strings.TrimSpace(c.Value), 10, 64)
		if errA != nil || errB != nil {
			return false
		}
		if c.Operator == OpGreaterThan {
			return a > b
		}
		return a < b
	case OpMatches:
		re, err := regexp.Compile(c.Value)
		if err != nil {
			return false
		}
		return re.MatchString(value)
	}
	return false
}

func fieldValue(f Field, rec types.FileRecord) (string, bool) {
	switch f {
	case FieldName:
		return rec.Name, true
	case FieldExtension:
		return rec.Extension, true
	case FieldSize:
		return strconv.FormatInt(rec.Size, 10), true
	case FieldCreatedDate:
		return types.FormatTime(rec.Created), true
	case FieldModifiedDate:
		return types.FormatTime(rec.Modified), true
	}
	return "", false
}

// ValidatePattern checks a regular expression used by the matches
// operator. Invalid patterns return types.ErrInvalidPattern.
func ValidatePattern(pattern string) error {
	if _, err := regexp.Compile(pattern); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidPattern, err)
	}
	return nil
}
