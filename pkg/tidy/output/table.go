package output

import (
	"bytes"
	"encoding/csv"
	"strings"
)

// TSVFormatter writes tab-separated values with a header row.
type TSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *TSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	w.WriteString(strings.Join(r.Columns, "\t"))
	w.WriteByte('\n')
	for _, row := range r.Rows {
		w.WriteString(strings.Join(row, "\t"))
		w.WriteByte('\n')
	}
	return nil
}

// CSVFormatter writes RFC 4180 comma-separated values.
type CSVFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *CSVFormatter) Format(w *bytes.Buffer, r *Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(r.Columns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MarkdownFormatter writes a GitHub-flavored Markdown table.
type MarkdownFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *MarkdownFormatter) Format(w *bytes.Buffer, r *Report) error {
	if len(r.Columns) == 0 {
		return nil
	}
	writeMarkdownRow(w, r.Columns)
	sep := make([]string, len(r.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	writeMarkdownRow(w, sep)
	for _, row := range r.Rows {
		writeMarkdownRow(w, row)
	}
	return nil
}

func writeMarkdownRow(w *bytes.Buffer, cells []string) {
	w.WriteString("|")
	for _, c := range cells {
		w.WriteString(" ")
		w.WriteString(strings.ReplaceAll(c, "|", `\|`))
		w.WriteString(" |")
	}
	w.WriteString("\n")
}

// columnKey turns a column heading into a json/yaml key.
func columnKey(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
}

func init() {
	Register("tsv", func() Formatter { return &TSVFormatter{} })
	Register("csv", func() Formatter { return &CSVFormatter{} })
	Register("markdown", func() Formatter { return &MarkdownFormatter{} })
}

var (
	_ Formatter = (*TSVFormatter)(nil)
	_ Formatter = (*CSVFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)
