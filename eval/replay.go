package eval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pharo-llm/pharo-copilot/logger"
)

// ReplayEventLog reads the NDJSON event log and reconstructs the
// evaluation entries it contains, in recording order. Non-evaluation
// events (dispatch, response, errors) are skipped; unparsable lines are
// skipped too, since a partially written tail must not kill an export.
func ReplayEventLog(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var event logger.PipelineEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		if event.Kind != logger.EventFrontend {
			continue
		}
		action, ok := event.Detail["action"].(string)
		if !ok {
			continue
		}

		entry := Entry{
			Timestamp:  event.Timestamp,
			Action:     Action(action),
			Suggestion: detailString(event.Detail, "suggestion"),
			Category:   Category(detailString(event.Detail, "category")),
			Model:      detailString(event.Detail, "model"),
			Reason:     detailString(event.Detail, "reason"),
		}
		entry.ContextExcerpt = detailString(event.Detail, "context")
		if length, ok := event.Detail["length"].(float64); ok {
			entry.Length = int(length)
		} else {
			entry.Length = len(entry.Suggestion)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read event log: %w", err)
	}
	return entries, nil
}

// StatsFromEntries reduces a replayed entry list into session statistics.
func StatsFromEntries(entries []Entry) SessionStats {
	stats := newSessionStats()
	for _, entry := range entries {
		stats.Total++
		switch entry.Action {
		case ActionAccepted:
			stats.Accepted++
		case ActionRejected:
			stats.Rejected++
		case ActionIgnored:
			stats.Ignored++
		}
		stats.PerModel[entry.Model]++
		stats.PerCategory[entry.Category]++
		stats.PerLengthBucket[lengthBucket(entry.Length)]++
	}
	return stats
}

func detailString(detail map[string]any, key string) string {
	if s, ok := detail[key].(string); ok {
		return s
	}
	return ""
}
