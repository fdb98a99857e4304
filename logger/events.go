package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
)

// EventKind classifies a pipeline event.
type EventKind string

const (
	EventFrontend EventKind = "frontend" // editor-side: context capture, apply, skip
	EventBackend  EventKind = "backend"  // inference-side: dispatch, response
	EventFailure  EventKind = "error"    // any failure terminating a request
)

// PipelineEvent is one structured record in the event log.
type PipelineEvent struct {
	Timestamp time.Time      `json:"ts"`
	Kind      EventKind      `json:"kind"`
	Detail    map[string]any `json:"detail"`
}

// DefaultEventLogMaxBytes is the size budget for the event log before the
// current segment is compressed aside and a fresh one started.
const DefaultEventLogMaxBytes = 4 << 20

// EventLog appends newline-delimited JSON events to a file. When the file
// grows past the byte budget it is rotated: the full segment is rewritten
// brotli-compressed next to the log and the live file starts empty.
type EventLog struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	enc      *json.Encoder
	size     int64
	maxBytes int64
}

// OpenEventLog opens (or creates) the event log at path.
func OpenEventLog(path string, maxBytes int64) (*EventLog, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultEventLogMaxBytes
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat event log: %w", err)
	}
	return &EventLog{
		path:     path,
		file:     file,
		enc:      json.NewEncoder(file),
		size:     info.Size(),
		maxBytes: maxBytes,
	}, nil
}

// Emit appends one event. Failures are reported to the leveled logger and
// otherwise swallowed so telemetry can never break the pipeline.
func (l *EventLog) Emit(kind EventKind, detail map[string]any) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	event := PipelineEvent{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Detail:    detail,
	}

	before := l.size
	if err := l.enc.Encode(event); err != nil {
		Warn("event log write failed: %v", err)
		return
	}
	if info, err := l.file.Stat(); err == nil {
		l.size = info.Size()
	} else {
		l.size = before
	}

	if l.size > l.maxBytes {
		if err := l.rotate(); err != nil {
			Warn("event log rotation failed: %v", err)
		}
	}
}

// rotate compresses the current segment to <path>.1.br and truncates the
// live file. A prior compressed segment is overwritten.
func (l *EventLog) rotate() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return err
	}

	archive, err := os.Create(l.path + ".1.br")
	if err != nil {
		return err
	}
	bw := brotli.NewWriter(archive)
	if _, err := bw.Write(data); err != nil {
		bw.Close()
		archive.Close()
		return err
	}
	if err := bw.Close(); err != nil {
		archive.Close()
		return err
	}
	if err := archive.Close(); err != nil {
		return err
	}

	if err := l.file.Truncate(0); err != nil {
		return err
	}
	if _, err := l.file.Seek(0, 0); err != nil {
		return err
	}
	l.size = 0
	return nil
}

// Close closes the underlying file.
func (l *EventLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
