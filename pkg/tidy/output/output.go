// Package output renders command results in the formats the CLI offers
// (pretty, plain, json, yaml, tsv, csv, markdown).
//
// Formatters are kept in a registry and selected at runtime:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/jamesainslie/tidy/pkg/tidy/logging"
)

var logger = logging.Get("output")

// Field is a labelled value shown in a report summary.
type Field struct {
	Label string `json:"label" yaml:"label"`
	Value string `json:"value" yaml:"value"`
}

// Report is what a command prints. Table formatters use Columns and Rows.
// Structured formatters (json, yaml) encode Data when it is set and fall
// back to the rows otherwise.
type Report struct {
	// Title heads the pretty output.
	Title string

	Columns []string
	Rows    [][]string

	// Summary is printed after the table.
	Summary []Field

	Warnings []string

	// Empty replaces the table when there are no rows.
	Empty string

	Data any
}

// AddRow appends a row.
func (r *Report) AddRow(cells ...string) {
	r.Rows = append(r.Rows, cells)
}

// AddSummary appends a summary field.
func (r *Report) AddSummary(label, value string) {
	r.Summary = append(r.Summary, Field{Label: label, Value: value})
}

// records turns the rows into column-keyed maps.
func (r *Report) records() []map[string]string {
	out := make([]map[string]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(map[string]string, len(r.Columns))
		for i, col := range r.Columns {
			if i < len(row) {
				m[columnKey(col)] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// Formatter renders a Report.
type Formatter interface {
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds a factory, replacing any with the same name.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a factory to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available lists the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// Write renders r with the named formatter and copies it to w.
func Write(w io.Writer, format string, r *Report) error {
	f, err := Get(format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		logger.Error("format failed", "format", format, "error", err)
		return fmt.Errorf("format %s: %w", format, err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
