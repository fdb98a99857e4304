package eval

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// csvHeader is the fixed export layout.
const csvHeader = "Timestamp,Action,Suggestion,Context,Model,Length,Reason"

// ExportCSV writes all entries to path: a header line, then the accepted
// entries, then the rejected, then the ignored, keeping recording order
// within each group. Free-text fields (suggestion, context, model,
// reason) are always quoted with internal double quotes doubled and
// newlines flattened, so one entry is always exactly one line.
func (e *Evaluator) ExportCSV(path string) error {
	return ExportEntriesCSV(e.Entries(), path)
}

// ExportEntriesCSV writes the given entries in the fixed CSV layout. The
// CLI uses it to export entries replayed from the persistent event log.
func ExportEntriesCSV(entries []Entry, path string) error {
	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, action := range []Action{ActionAccepted, ActionRejected, ActionIgnored} {
		for _, entry := range entries {
			if entry.Action != action {
				continue
			}
			writeCSVRow(&b, entry)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write csv export: %w", err)
	}
	return nil
}

func writeCSVRow(b *strings.Builder, entry Entry) {
	fmt.Fprintf(b, "%s,%s,%s,%s,%s,%d,%s\n",
		entry.Timestamp.Format(time.RFC3339),
		entry.Action,
		csvQuote(entry.Suggestion),
		csvQuote(entry.ContextExcerpt),
		csvQuote(entry.Model),
		entry.Length,
		csvQuote(entry.Reason),
	)
}

// csvQuote wraps a field in double quotes, doubling embedded quotes and
// flattening newlines so every entry stays on one line.
func csvQuote(field string) string {
	field = strings.ReplaceAll(field, "\"", "\"\"")
	field = strings.ReplaceAll(field, "\n", " ")
	field = strings.ReplaceAll(field, "\r", " ")
	return "\"" + field + "\""
}
