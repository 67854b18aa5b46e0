// Package rules evaluates user-defined and per-category default rules
// against the files of a directory, previews the resulting plan and
// executes it, recording reversible moves in the history ledger.
//
// Custom rules are tried in descending priority (ties keep their stored
// order) and the first match wins. Unified organization falls back to the
// enabled default rule for the file's category when no custom rule
// matches.
package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/inventory"
	"github.com/jamesainslie/tidy/pkg/tidy/logging"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

var logger = logging.Get("rules")

// Options configures how the files of a directory are listed.
type Options struct {
	// Classifier assigns categories. Nil uses the built-in table.
	Classifier types.Classifier

	// Exclude leaves matching files out of the plan.
	Exclude inventory.Excluder
}

// Match pairs a file with the custom rule that matched it.
type Match struct {
	File    types.FileRecord `json:"file" yaml:"file"`
	Rule    Rule             `json:"rule" yaml:"rule"`
	Preview string           `json:"action_preview" yaml:"action_preview"`
}

// Result reports a rule execution.
type Result struct {
	Success   bool     `json:"success" yaml:"success"`
	Executed  int      `json:"executed_count" yaml:"executed_count"`
	Skipped   int      `json:"skipped_count" yaml:"skipped_count"`
	Errors    []string `json:"errors" yaml:"errors"`
	HistoryID int64    `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

// Ordered returns the enabled rules sorted by descending priority. Rules
// with equal priority keep their relative order.
func Ordered(rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

// First returns the first rule in ordered that matches rec.
func First(ordered []Rule, rec types.FileRecord) (Rule, bool) {
	for _, r := range ordered {
		if r.Matches(rec) {
			return r, true
		}
	}
	return Rule{}, false
}

// Files lists the visible regular files directly inside dir.
func Files(dir string, opts Options) ([]types.FileRecord, error) {
	return inventory.List(dir, inventory.Options{
		FilesOnly:  true,
		Classifier: opts.Classifier,
		Exclude:    opts.Exclude,
	})
}

// Preview matches the files in dir against the enabled custom rules.
// Files that match no rule are omitted.
func Preview(dir string, rules []Rule, opts Options) ([]Match, error) {
	files, err := Files(dir, opts)
	if err != nil {
		return nil, err
	}
	ordered := Ordered(rules)
	if len(ordered) == 0 {
		return nil, nil
	}

	var matches []Match
	for _, f := range files {
		r, ok := First(ordered, f)
		if !ok {
			continue
		}
		matches = append(matches, Match{File: f, Rule: r, Preview: PreviewAction(r.Action, f.Name)})
	}
	return matches, nil
}

// Execute applies the enabled custom rules to the files in dir. Per-file
// failures are collected as "name: error" and do not stop the run. When
// rec is not nil and at least one move or rename completed, one organize
// entry holding the completed pairs is recorded.
func Execute(ctx context.Context, dir string, rules []Rule, opts Options, rec history.Recorder) (*Result, error) {
	matches, err := Preview(dir, rules, opts)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.IOError("rules", dir, err)
	}

	res := &Result{Errors: []string{}}
	var pairs []history.Pair
	for _, m := range matches {
		out, err := ExecuteAction(m.File, m.Rule.Action, base)
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError(m.File.Name, err))
			res.Skipped++
			continue
		}
		if out.Skipped {
			res.Skipped++
			continue
		}
		res.Executed++
		if out.Reversible() {
			pairs = append(pairs, history.Pair{From: out.From, To: out.To})
		}
	}

	if rec != nil && len(pairs) > 0 {
		id, err := rec.Record(ctx, history.OpOrganize,
			fmt.Sprintf("Rule-based organize: %d files processed", res.Executed),
			history.Batch{Pairs: pairs}, len(pairs))
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError("history", err))
		}
		res.HistoryID = id
	}

	res.Success = len(res.Errors) == 0
	logger.Info("executed rules", "dir", dir, "executed", res.Executed, "skipped", res.Skipped, "errors", len(res.Errors))
	return res, nil
}
