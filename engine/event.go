package engine

// EventType identifies an engine event.
type EventType string

const (
	EventTextChanged     EventType = "text_changed"
	EventTrigger         EventType = "trigger_completion"
	EventAccept          EventType = "accept"
	EventReject          EventType = "reject"
	EventDismiss         EventType = "dismiss"
	EventCompletionReady EventType = "completion_ready"
	EventCompletionError EventType = "completion_error"
)

var eventTypeMap = map[string]EventType{
	string(EventTextChanged): EventTextChanged,
	string(EventTrigger):     EventTrigger,
	string(EventAccept):      EventAccept,
	string(EventReject):      EventReject,
	string(EventDismiss):     EventDismiss,
}

// EventTypeFromString maps an editor-side notification name onto an
// engine event. Internal events (completion ready/error) are not
// addressable from outside and map to "".
func EventTypeFromString(s string) EventType {
	if eventType, exists := eventTypeMap[s]; exists {
		return eventType
	}
	return ""
}

// Event is one message on the engine's event channel.
type Event struct {
	Type EventType
	Data any
}

// reason extracts the rejection reason carried by a reject event, if any.
func (e Event) reason() string {
	if s, ok := e.Data.(string); ok {
		return s
	}
	return ""
}

// Notify posts an editor-side event to the engine. Unknown names are
// dropped. Safe to call from any goroutine while the engine runs.
func (e *Engine) Notify(name string, data any) {
	eventType := EventTypeFromString(name)
	if eventType == "" {
		return
	}

	e.mu.Lock()
	stopped := e.stopped
	mainCtx := e.mainCtx
	e.mu.Unlock()
	if stopped || mainCtx == nil {
		return
	}

	select {
	case e.eventChan <- Event{Type: eventType, Data: data}:
	case <-mainCtx.Done():
	}
}

// TriggerNow requests a completion immediately, bypassing the debounce.
func (e *Engine) TriggerNow() {
	e.Notify(string(EventTrigger), nil)
}
