package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pharo-llm/pharo-copilot/assert"
)

func readEvents(t *testing.T, path string) []PipelineEvent {
	t.Helper()
	file, err := os.Open(path)
	assert.NoError(t, err, "open log")
	defer file.Close()

	var events []PipelineEvent
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var event PipelineEvent
		assert.NoError(t, json.Unmarshal(scanner.Bytes(), &event), "line is valid json")
		events = append(events, event)
	}
	return events
}

func TestEventLogAppendsNDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	log, err := OpenEventLog(path, 0)
	assert.NoError(t, err, "open event log")

	log.Emit(EventFrontend, map[string]any{"stage": "context", "cursor": 12})
	log.Emit(EventBackend, map[string]any{"stage": "dispatch"})
	log.Emit(EventFailure, map[string]any{"error": "timeout"})
	assert.NoError(t, log.Close(), "close")

	events := readEvents(t, path)
	assert.Equal(t, 3, len(events), "one line per event")
	assert.Equal(t, EventFrontend, events[0].Kind, "frontend kind")
	assert.Equal(t, "context", events[0].Detail["stage"], "detail preserved")
	assert.Equal[any](t, float64(12), events[0].Detail["cursor"], "numeric detail preserved")
	assert.Equal(t, EventBackend, events[1].Kind, "backend kind")
	assert.Equal(t, EventFailure, events[2].Kind, "error kind")
	assert.False(t, events[0].Timestamp.IsZero(), "timestamp set")
}

func TestEventLogNilReceiver(t *testing.T) {
	var log *EventLog
	log.Emit(EventFrontend, map[string]any{"stage": "context"})
	assert.NoError(t, log.Close(), "nil close")
}

func TestEventLogAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")

	log, err := OpenEventLog(path, 0)
	assert.NoError(t, err, "first open")
	log.Emit(EventFrontend, map[string]any{"n": 1})
	assert.NoError(t, log.Close(), "first close")

	log, err = OpenEventLog(path, 0)
	assert.NoError(t, err, "second open")
	log.Emit(EventFrontend, map[string]any{"n": 2})
	assert.NoError(t, log.Close(), "second close")

	assert.Equal(t, 2, len(readEvents(t, path)), "events survive reopen")
}

func TestEventLogRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.ndjson")
	log, err := OpenEventLog(path, 256)
	assert.NoError(t, err, "open event log")

	for i := 0; i < 20; i++ {
		log.Emit(EventBackend, map[string]any{"stage": "dispatch", "padding": "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"})
	}
	assert.NoError(t, log.Close(), "close")

	info, err := os.Stat(path)
	assert.NoError(t, err, "stat live log")
	assert.True(t, info.Size() <= 256, "live log within budget after rotation")

	_, err = os.Stat(path + ".1.br")
	assert.NoError(t, err, "compressed segment exists")
}
