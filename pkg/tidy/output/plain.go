package output

import (
	"bytes"
	"fmt"
	"strings"
	"text/tabwriter"
)

// PlainFormatter writes aligned columns without styling, for scripts.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Report) error {
	if len(r.Rows) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if len(r.Columns) > 0 {
			fmt.Fprintln(tw, strings.ToUpper(strings.Join(r.Columns, "\t")))
		}
		for _, row := range r.Rows {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	} else if r.Empty != "" {
		fmt.Fprintln(w, r.Empty)
	}

	for _, fd := range r.Summary {
		fmt.Fprintf(w, "%s: %s\n", fd.Label, fd.Value)
	}
	for _, warning := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

var _ Formatter = (*PlainFormatter)(nil)
