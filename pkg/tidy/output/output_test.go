package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReport() *Report {
	r := &Report{
		Title:   "Duplicates",
		Columns: []string{"Size", "Path"},
		Empty:   "No duplicates found",
	}
	r.AddRow("1.0 KiB", "/tmp/a|b.txt")
	r.AddRow("2.0 KiB", "/tmp/c.txt")
	r.AddSummary("Groups", "2")
	return r
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"csv", "json", "markdown", "plain", "pretty", "tsv", "yaml"}, Available())

	_, err := Get("xml")
	assert.Error(t, err)

	reg := NewRegistry()
	reg.Register("paths", func() Formatter { return &TSVFormatter{} })
	f, err := reg.Get("paths")
	require.NoError(t, err)
	assert.IsType(t, &TSVFormatter{}, f)
}

func TestPlainFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&PlainFormatter{}).Format(&buf, sampleReport()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "SIZE"))
	assert.Contains(t, lines[1], "/tmp/a|b.txt")
	assert.Equal(t, "Groups: 2", lines[3])

	buf.Reset()
	require.NoError(t, (&PlainFormatter{}).Format(&buf, &Report{Empty: "nothing"}))
	assert.Equal(t, "nothing\n", buf.String())
}

func TestPrettyFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := sampleReport()
	r.Warnings = []string{"skipped 1 unreadable file"}
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, r))

	out := buf.String()
	assert.Contains(t, out, "Duplicates")
	assert.Contains(t, out, "/tmp/c.txt")
	assert.Contains(t, out, "Groups:")
	assert.Contains(t, out, "skipped 1 unreadable file")

	buf.Reset()
	require.NoError(t, (&PrettyFormatter{}).Format(&buf, &Report{Columns: []string{"Path"}, Empty: "No files"}))
	assert.Contains(t, buf.String(), "No files")
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, (&JSONFormatter{}).Format(&buf, sampleReport()))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "/tmp/a|b.txt", rows[0]["path"])
	assert.Equal(t, "1.0 KiB", rows[0]["size"])

	buf.Reset()
	data := map[string]int{"moved": 3}
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Report{Data: data}))
	assert.JSONEq(t, `{"moved":3}`, buf.String())

	buf.Reset()
	require.NoError(t, (&JSONFormatter{}).Format(&buf, &Report{}))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter(t *testing.T) {
	t.Parallel()

	type payload struct {
		Moved int `yaml:"files_moved"`
	}

	var buf bytes.Buffer
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, &Report{Data: payload{Moved: 2}}))
	assert.Equal(t, "files_moved: 2\n", buf.String())

	buf.Reset()
	require.NoError(t, (&YAMLFormatter{}).Format(&buf, sampleReport()))
	var rows []map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &rows))
	assert.Equal(t, "/tmp/c.txt", rows[1]["path"])
}

func TestTableFormatters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{"tsv", "Size\tPath\n1.0 KiB\t/tmp/a|b.txt\n2.0 KiB\t/tmp/c.txt\n"},
		{"csv", "Size,Path\n1.0 KiB,/tmp/a|b.txt\n2.0 KiB,/tmp/c.txt\n"},
		{"markdown", "| Size | Path |\n| --- | --- |\n| 1.0 KiB | /tmp/a\\|b.txt |\n| 2.0 KiB | /tmp/c.txt |\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.format, sampleReport()))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestColumnKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "file_count", columnKey(" File Count "))
	assert.Equal(t, "path", columnKey("PATH"))
}
