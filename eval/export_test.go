package eval

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pharo-llm/pharo-copilot/assert"
)

func exportToString(t *testing.T, entries []Entry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	err := ExportEntriesCSV(entries, path)
	assert.NoError(t, err, "export")
	data, err := os.ReadFile(path)
	assert.NoError(t, err, "read export")
	return string(data)
}

func TestExportHeaderOnly(t *testing.T) {
	out := exportToString(t, nil)
	assert.Equal(t, csvHeader+"\n", out, "header with no entries")
}

func TestExportOneLinePerEntry(t *testing.T) {
	ts := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	entries := []Entry{
		{Timestamp: ts, Action: ActionAccepted, Suggestion: "a", Model: "m", Length: 1},
		{Timestamp: ts, Action: ActionRejected, Suggestion: "b", Model: "m", Length: 1, Reason: "noise"},
		{Timestamp: ts, Action: ActionIgnored, Suggestion: "c", Model: "m", Length: 1},
	}

	out := exportToString(t, entries)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, 4, len(lines), "header plus one line per entry")
	assert.Equal(t, csvHeader, lines[0], "header line")
	assert.True(t, strings.Contains(lines[1], "2026-08-25T10:00:00Z"), "RFC3339 timestamp")
	assert.True(t, strings.Contains(lines[2], "noise"), "reason column")
}

func TestExportGroupsByAction(t *testing.T) {
	ts := time.Now().UTC()
	entries := []Entry{
		{Timestamp: ts, Action: ActionIgnored, Suggestion: "ig1"},
		{Timestamp: ts, Action: ActionRejected, Suggestion: "rej1"},
		{Timestamp: ts, Action: ActionAccepted, Suggestion: "acc1"},
		{Timestamp: ts, Action: ActionAccepted, Suggestion: "acc2"},
	}

	out := exportToString(t, entries)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")[1:]
	assert.Equal(t, 4, len(lines), "all entries exported")

	// Accepted first in recording order, then rejected, then ignored.
	assert.True(t, strings.Contains(lines[0], "acc1"), "first accepted")
	assert.True(t, strings.Contains(lines[1], "acc2"), "second accepted")
	assert.True(t, strings.Contains(lines[2], "rej1"), "rejected after accepted")
	assert.True(t, strings.Contains(lines[3], "ig1"), "ignored last")
}

func TestExportQuoting(t *testing.T) {
	ts := time.Now().UTC()
	entries := []Entry{{
		Timestamp:      ts,
		Action:         ActionAccepted,
		Suggestion:     `say "hello"`,
		ContextExcerpt: "line one\nline two",
	}}

	out := exportToString(t, entries)
	assert.True(t, strings.Contains(out, `"say ""hello"""`), "embedded quotes doubled")
	assert.True(t, strings.Contains(out, `"line one line two"`), "newlines flattened")
	assert.Equal(t, 2, strings.Count(out, "\n"), "entry stays on one line")
}

func TestExportReasonStaysOnOneLine(t *testing.T) {
	ts := time.Now().UTC()
	entries := []Entry{{
		Timestamp:  ts,
		Action:     ActionRejected,
		Suggestion: "x := 42",
		Model:      "codellama:7b",
		Reason:     "too long,\nwrong style",
	}}

	out := exportToString(t, entries)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, 2, len(lines), "header plus one line per entry")
	assert.True(t, strings.Contains(lines[1], `"too long, wrong style"`), "reason quoted and flattened")
	// Six field separators plus the comma carried inside the quoted reason.
	assert.Equal(t, 7, strings.Count(lines[1], ","), "comma in reason stays inside quotes")
}

func TestCSVQuote(t *testing.T) {
	assert.Equal(t, `"plain"`, csvQuote("plain"), "plain field quoted")
	assert.Equal(t, `""""`, csvQuote(`"`), "lone quote doubled")
	assert.Equal(t, `"a  b"`, csvQuote("a\r\nb"), "crlf flattened")
}
