package engine

import "time"

// startTextChangeTimer (re)arms the debounce: the completion trigger
// fires only after the configured quiet period with no further edits.
// Caller holds e.mu.
func (e *Engine) startTextChangeTimer() {
	e.stopTextChangeTimer()
	e.textChangeTimer = time.AfterFunc(e.config.TextChangeDebounce, func() {
		e.mu.Lock()
		stopped := e.stopped
		mainCtx := e.mainCtx
		e.mu.Unlock()

		if stopped || mainCtx == nil {
			return
		}

		select {
		case e.eventChan <- Event{Type: EventTrigger}:
		case <-mainCtx.Done():
		}
	})
}

// stopTextChangeTimer stops a pending debounce. Caller holds e.mu.
func (e *Engine) stopTextChangeTimer() {
	if e.textChangeTimer != nil {
		e.textChangeTimer.Stop()
		e.textChangeTimer = nil
	}
}
