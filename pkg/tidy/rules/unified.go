package rules

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/history"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// MatchType records which rule tier decided a plan item.
type MatchType string

// Match types.
const (
	MatchRule    MatchType = "rule"
	MatchDefault MatchType = "default"
	MatchNone    MatchType = "none"
)

// UnifiedInput is everything a unified organization needs besides the
// directory.
type UnifiedInput struct {
	Rules    []Rule
	Defaults []DefaultRule

	// Excluded lists destination folder names, or absolute destination
	// paths, that this run must not move files into.
	Excluded []string

	Options Options
}

// PlanItem is the decision for one file.
type PlanItem struct {
	File      types.FileRecord `json:"file" yaml:"file"`
	MatchType MatchType        `json:"match_type" yaml:"match_type"`

	// Rule is set when MatchType is MatchRule.
	Rule *Rule `json:"rule,omitempty" yaml:"rule,omitempty"`

	// Default is set when MatchType is MatchDefault.
	Default *DefaultRule `json:"default_rule,omitempty" yaml:"default_rule,omitempty"`

	Action      Action `json:"action" yaml:"action"`
	Destination string `json:"destination,omitempty" yaml:"destination,omitempty"`
	Preview     string `json:"action_preview,omitempty" yaml:"action_preview,omitempty"`

	// Excluded is set when the destination is in UnifiedInput.Excluded.
	Excluded bool `json:"excluded,omitempty" yaml:"excluded,omitempty"`
}

// Actionable reports whether executing the plan would act on the item.
func (p PlanItem) Actionable() bool {
	return p.MatchType != MatchNone && !p.Excluded
}

// Plan is the unified organization preview.
type Plan struct {
	Dir   string     `json:"dir" yaml:"dir"`
	Items []PlanItem `json:"items" yaml:"items"`
}

// HasActionable reports whether executing the plan would touch any file.
func (p *Plan) HasActionable() bool {
	for _, it := range p.Items {
		if it.Actionable() {
			return true
		}
	}
	return false
}

// Counts returns how many items each tier decided.
func (p *Plan) Counts() map[MatchType]int {
	out := map[MatchType]int{MatchRule: 0, MatchDefault: 0, MatchNone: 0}
	for _, it := range p.Items {
		out[it.MatchType]++
	}
	return out
}

// UnifiedResult reports a unified organization.
type UnifiedResult struct {
	Success      bool     `json:"success" yaml:"success"`
	FilesMoved   int      `json:"files_moved" yaml:"files_moved"`
	FilesSkipped int      `json:"files_skipped" yaml:"files_skipped"`
	Errors       []string `json:"errors" yaml:"errors"`
	HistoryID    int64    `json:"history_id,omitempty" yaml:"history_id,omitempty"`
}

// PreviewUnified decides, for each visible regular file directly inside
// dir, which rule applies: the first matching enabled custom rule, else
// the enabled default rule for the file's category, else none.
func PreviewUnified(dir string, in UnifiedInput) (*Plan, error) {
	files, err := Files(dir, in.Options)
	if err != nil {
		return nil, err
	}
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, types.IOError("organize", dir, err)
	}

	ordered := Ordered(in.Rules)
	defaults := make(map[classify.Category]DefaultRule)
	for _, d := range in.Defaults {
		if d.Enabled {
			if _, dup := defaults[d.Category]; !dup {
				defaults[d.Category] = d
			}
		}
	}
	excluded := make(map[string]bool, len(in.Excluded))
	for _, e := range in.Excluded {
		excluded[e] = true
	}

	plan := &Plan{Dir: base, Items: make([]PlanItem, 0, len(files))}
	for _, f := range files {
		item := PlanItem{File: f, MatchType: MatchNone}

		if r, ok := First(ordered, f); ok {
			item.MatchType = MatchRule
			item.Rule = &r
			item.Action = r.Action
		} else if d, ok := defaults[f.Category]; ok {
			item.MatchType = MatchDefault
			item.Default = &d
			item.Action = Action{Type: ActionMove, Destination: d.Destination, DateSubfolder: d.DateSubfolder}
		}

		if item.MatchType != MatchNone {
			item.Preview = PreviewAction(item.Action, f.Name)
			if item.Action.Type == ActionMove || item.Action.Type == ActionCopy {
				item.Destination = DestinationDir(item.Action, base, f)
				item.Excluded = isExcluded(excluded, item.Action.Destination, item.Destination)
			}
		}
		plan.Items = append(plan.Items, item)
	}
	return plan, nil
}

func isExcluded(excluded map[string]bool, dest, resolved string) bool {
	if len(excluded) == 0 {
		return false
	}
	return excluded[dest] || excluded[resolved] || excluded[filepath.Base(resolved)]
}

// ExecuteUnified runs the plan produced by PreviewUnified. One organize
// entry holding every completed move is recorded per run, even when some or
// all files failed.
func ExecuteUnified(ctx context.Context, dir string, in UnifiedInput, rec history.Recorder) (*UnifiedResult, error) {
	plan, err := PreviewUnified(dir, in)
	if err != nil {
		return nil, err
	}

	res := &UnifiedResult{Errors: []string{}}
	var pairs []history.Pair
	for _, it := range plan.Items {
		if !it.Actionable() {
			res.FilesSkipped++
			logger.Debug("not organizing file", "path", it.File.Path, "match", it.MatchType, "excluded", it.Excluded)
			continue
		}
		out, err := ExecuteAction(it.File, it.Action, plan.Dir)
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError(it.File.Name, err))
			continue
		}
		if out.Skipped {
			res.FilesSkipped++
			continue
		}
		res.FilesMoved++
		if out.Reversible() {
			pairs = append(pairs, history.Pair{From: out.From, To: out.To})
		}
	}

	if rec != nil {
		id, err := rec.Record(ctx, history.OpOrganize,
			fmt.Sprintf("Organized %d files in %s", len(pairs), filepath.Base(plan.Dir)),
			history.Batch{Pairs: pairs}, len(pairs))
		if err != nil {
			res.Errors = append(res.Errors, types.ItemError("history", err))
		}
		res.HistoryID = id
	}

	res.Success = len(res.Errors) == 0
	logger.Info("unified organize complete", "dir", plan.Dir,
		"moved", res.FilesMoved, "skipped", res.FilesSkipped, "errors", len(res.Errors))
	return res, nil
}
