// Package exclude decides which paths batch operations must leave alone,
// based on the exclusion list persisted by the store.
package exclude

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/jamesainslie/tidy/pkg/tidy/classify"
	"github.com/jamesainslie/tidy/pkg/tidy/types"
)

// PatternType selects how an exclusion pattern is interpreted.
type PatternType string

// Supported pattern types.
const (
	// Glob matches the full path, or the base name when the pattern has no
	// separator. "**" crosses directories.
	Glob PatternType = "glob"

	// Extension matches a file extension, with or without the leading dot.
	Extension PatternType = "extension"

	// Folder matches any path component with this exact name.
	Folder PatternType = "folder"
)

// Valid reports whether t is a known pattern type.
func (t PatternType) Valid() bool {
	switch t {
	case Glob, Extension, Folder:
		return true
	}
	return false
}

// Rule is a single stored exclusion.
type Rule struct {
	ID      int64       `json:"id" yaml:"id"`
	Pattern string      `json:"pattern" yaml:"pattern"`
	Type    PatternType `json:"pattern_type" yaml:"pattern_type"`
}

type compiledGlob struct {
	g        glob.Glob
	baseOnly bool
}

// Matcher tests paths against a set of exclusions. The zero value and a
// nil *Matcher exclude nothing.
type Matcher struct {
	globs   []compiledGlob
	exts    map[string]bool
	folders map[string]bool
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithGlobs adds glob patterns.
func WithGlobs(patterns ...string) Option {
	return func(m *Matcher) error {
		for _, p := range patterns {
			g, err := glob.Compile(filepath.ToSlash(p), '/')
			if err != nil {
				return fmt.Errorf("%w: %q: %v", types.ErrInvalidPattern, p, err)
			}
			m.globs = append(m.globs, compiledGlob{g: g, baseOnly: !strings.Contains(p, "/")})
		}
		return nil
	}
}

// WithExtensions adds excluded extensions.
func WithExtensions(exts ...string) Option {
	return func(m *Matcher) error {
		for _, e := range exts {
			if n := classify.Normalize(e); n != "" {
				m.exts[n] = true
			}
		}
		return nil
	}
}

// WithFolders adds excluded folder names.
func WithFolders(names ...string) Option {
	return func(m *Matcher) error {
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				m.folders[n] = true
			}
		}
		return nil
	}
}

// New builds a Matcher. An invalid glob returns types.ErrInvalidPattern.
func New(opts ...Option) (*Matcher, error) {
	m := &Matcher{exts: make(map[string]bool), folders: make(map[string]bool)}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// FromRules builds a Matcher from stored exclusions.
func FromRules(rules []Rule) (*Matcher, error) {
	var opts []Option
	for _, r := range rules {
		switch r.Type {
		case Glob:
			opts = append(opts, WithGlobs(r.Pattern))
		case Extension:
			opts = append(opts, WithExtensions(r.Pattern))
		case Folder:
			opts = append(opts, WithFolders(r.Pattern))
		default:
			return nil, fmt.Errorf("%w: unknown pattern type %q", types.ErrInvalidPattern, r.Type)
		}
	}
	return New(opts...)
}

// Validate checks a single rule without building a Matcher.
func Validate(r Rule) error {
	_, err := FromRules([]Rule{r})
	return err
}

// Excluded implements inventory.Excluder.
func (m *Matcher) Excluded(path string, isDir bool) bool {
	if m == nil {
		return false
	}

	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)

	if !isDir && m.exts[types.Ext(base)] {
		return true
	}

	if len(m.folders) > 0 {
		parts := strings.Split(slashed, "/")
		if !isDir {
			parts = parts[:len(parts)-1]
		}
		for _, part := range parts {
			if m.folders[part] {
				return true
			}
		}
	}

	for _, cg := range m.globs {
		if cg.baseOnly {
			if cg.g.Match(base) {
				return true
			}
		} else if cg.g.Match(slashed) {
			return true
		}
	}
	return false
}

// Empty reports whether the matcher has no exclusions.
func (m *Matcher) Empty() bool {
	return m == nil || (len(m.globs) == 0 && len(m.exts) == 0 && len(m.folders) == 0)
}
