// Package rename computes and applies batch renames: a chain of rules is
// applied to each file's stem and the extension is kept.
package rename

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jamesainslie/tidy/pkg/tidy/fsutil"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("rename")

// RuleType selects what a Rule does.
type RuleType string

// Rule types.
const (
	FindReplace RuleType = "findReplace"
	Prefix      RuleType = "prefix"
	Suffix      RuleType = "suffix"
	Sequence    RuleType = "sequence"
	Date        RuleType = "date"
	Case        RuleType = "case"
	Regex       RuleType = "regex"
)

// Rule is one step of a rename chain. Only the fields of its Type are
// used.
type Rule struct {
	Type RuleType `json:"rule_type" yaml:"rule_type"`

	Find    string `json:"find_text,omitempty" yaml:"find_text,omitempty"`
	Replace string `json:"replace_text,omitempty" yaml:"replace_text,omitempty"`

	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty" yaml:"suffix,omitempty"`

	// Start is the first sequence number. Zero starts at 1.
	Start int `json:"start_number,omitempty" yaml:"start_number,omitempty"`
	// Digits pads the sequence number. Zero means 3.
	Digits int `json:"digit_count,omitempty" yaml:"digit_count,omitempty"`

	// DateFormat is a strftime-style layout, "%Y%m%d" by default.
	DateFormat string `json:"date_format,omitempty" yaml:"date_format,omitempty"`
	// DateSource is "created" or "modified" (the default).
	DateSource string `json:"date_source,omitempty" yaml:"date_source,omitempty"`

	// CaseType is "upper", "lower" or "title".
	CaseType string `json:"case_type,omitempty" yaml:"case_type,omitempty"`

	Pattern     string `json:"regex_pattern,omitempty" yaml:"regex_pattern,omitempty"`
	Replacement string `json:"regex_replace,omitempty" yaml:"regex_replace,omitempty"`
}

// Preview is the planned rename of one file.
type Preview struct {
	Path     string `json:"original_path" yaml:"original_path"`
	OldName  string `json:"original_name" yaml:"original_name"`
	NewName  string `json:"new_name" yaml:"new_name"`
	Conflict string `json:"conflict,omitempty" yaml:"conflict,omitempty"`
}

// HasConflict reports whether the rename would be refused.
func (p Preview) HasConflict() bool { return p.Conflict != "" }

// Result reports a batch rename.
type Result struct {
	Success   bool     `json:"success" yaml:"success"`
	Renamed   int      `json:"renamed_count" yaml:"renamed_count"`
	Failed    int      `json:"failed_count" yaml:"failed_count"`
	Errors    []string `json:"errors" yaml:"errors"`
	HistoryID int64    `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

// Validate checks every rule in the chain.
func Validate(rules []Rule) error {
	for i, r := range rules {
		switch r.Type {
		case FindReplace, Prefix, Suffix, Sequence, Date:
		case Case:
			switch r.CaseType {
			case "", "upper", "lower", "title":
			default:
				return fmt.Errorf("rule %d: unknown case %q", i+1, r.CaseType)
			}
		case Regex:
			if _, err := regexp.Compile(r.Pattern); err != nil {
				return fmt.Errorf("rule %d: %w: %v", i+1, types.ErrInvalidPattern, err)
			}
		default:
			return fmt.Errorf("rule %d: %w: %q", i+1, types.ErrUnsupportedAction, r.Type)
		}
	}
	return nil
}

// PreviewRename applies rules to each path in order. A new name already
// planned for an earlier file in the same folder is a conflict.
func PreviewRename(paths []string, rules []Rule) ([]Preview, error) {
	if err := Validate(rules); err != nil {
		return nil, err
	}

	seq := 1
	for _, r := range rules {
		if r.Type == Sequence {
			if r.Start != 0 {
				seq = r.Start
			}
			break
		}
	}

	planned := make(map[string]bool, len(paths))
	out := make([]Preview, 0, len(paths))
	for _, path := range paths {
		name := filepath.Base(path)
		stem := types.Stem(name)
		ext := name[len(stem):]

		for _, r := range rules {
			stem = apply(stem, r, path, &seq)
		}

		p := Preview{Path: path, OldName: name, NewName: stem + ext}
		key := filepath.Join(filepath.Dir(path), p.NewName)
		switch {
		case strings.TrimSpace(stem) == "" || strings.ContainsAny(p.NewName, `/\`):
			p.Conflict = "invalid name"
		case planned[key]:
			p.Conflict = "duplicate name"
		}
		planned[key] = true
		out = append(out, p)
	}
	return out, nil
}

// Execute renames the files as PreviewRename plans. Conflicts and names
// already taken on disk are counted as failures. When rec is not nil and
// at least one file was renamed, a rename batch is recorded.
func Execute(ctx context.Context, paths []string, rules []Rule, rec history.Recorder) (*Result, error) {
	previews, err := PreviewRename(paths, rules)
	if err != nil {
		return nil, err
	}

	res := &Result{Errors: []string{}}
	var pairs []history.Pair
	for _, p := range previews {
		if p.HasConflict() {
			res.Failed++
			res.Errors = append(res.Errors, types.ItemError(p.OldName, fmt.Errorf("skipped: %s", p.Conflict)))
			continue
		}
		if p.NewName == p.OldName {
			continue
		}

		target := filepath.Join(filepath.Dir(p.Path), p.NewName)
		if fsutil.Exists(target) {
			res.Failed++
			res.Errors = append(res.Errors, types.ItemError(p.OldName, types.NewPathError("rename", target, types.ErrAlreadyExists, nil)))
			continue
		}
		if err := os.Rename(p.Path, target); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, types.ItemError(p.OldName, types.IOError("rename", p.Path, err)))
			continue
		}
		logger.Info("renamed", "from", p.Path, "to", target)
		pairs = append(pairs, history.Pair{From: absPath(p.Path), To: absPath(target)})
		res.Renamed++
	}

	if rec != nil && len(pairs) > 0 {
		id, err := rec.Record(ctx, history.OpRename, fmt.Sprintf("Renamed %d files", len(pairs)),
			history.Batch{Pairs: pairs}, len(pairs))
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError("history", err))
		}
		res.HistoryID = id
	}

	res.Success = res.Failed == 0
	return res, nil
}

func apply(stem string, r Rule, path string, seq *int) string {
	switch r.Type {
	case FindReplace:
		if r.Find == "" {
			return stem
		}
		return strings.ReplaceAll(stem, r.Find, r.Replace)
	case Prefix:
		return r.Prefix + stem
	case Suffix:
		return stem + r.Suffix
	case Sequence:
		digits := r.Digits
		if digits <= 0 {
			digits = 3
		}
		s := fmt.Sprintf("%s_%0*d", stem, digits, *seq)
		*seq++
		return s
	case Date:
		info, err := os.Stat(path)
		if err != nil {
			return stem
		}
		t := info.ModTime()
		if r.DateSource == "created" {
			t = inventory.CreatedTime(path, info)
		}
		format := r.DateFormat
		if format == "" {
			format = "%Y%m%d"
		}
		return stem + "_" + formatDate(t.Local(), format)
	case Case:
		switch r.CaseType {
		case "upper":
			return strings.ToUpper(stem)
		case "title":
			return titleCase(stem)
		default:
			return strings.ToLower(stem)
		}
	case Regex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return stem
		}
		return re.ReplaceAllString(stem, r.Replacement)
	}
	return stem
}

// titleCase upper-cases the first letter of each space-separated word and
// lower-cases the rest. Runs of whitespace collapse to one space.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, n := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[n:])
	}
	return strings.Join(words, " ")
}

var strftime = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'M': "04",
	'S': "05",
	'b': "Jan",
}

// formatDate renders t with the strftime directives used by date rules.
// Other characters, and unknown directives, are copied literally.
func formatDate(t time.Time, format string) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		if format[i] == '%' {
			b.WriteByte('%')
		} else if l, ok := strftime[format[i]]; ok {
			b.WriteString(t.Format(l))
		} else {
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
