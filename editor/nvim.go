// Package editor adapts a Neovim instance to the pipeline's Editor
// boundary over msgpack-RPC.
package editor

import (
	"fmt"
	"strings"

	"github.com/neovim/go-client/nvim"

	"github.com/pharo-llm/pharo-copilot/logger"
)

// Nvim implements types.Editor against a live Neovim connection.
type Nvim struct {
	n *nvim.Nvim
}

// Dial connects to a Neovim instance listening on the given socket.
func Dial(socket string) (*Nvim, error) {
	n, err := nvim.Dial(socket)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nvim at %s: %w", socket, err)
	}
	return &Nvim{n: n}, nil
}

// Wrap adapts an existing connection (used by tests and embedding).
func Wrap(n *nvim.Nvim) *Nvim {
	return &Nvim{n: n}
}

// Snapshot returns the current buffer text and the cursor byte offset.
func (a *Nvim) Snapshot() (string, int, error) {
	buf, err := a.n.CurrentBuffer()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get current buffer: %w", err)
	}

	rawLines, err := a.n.BufferLines(buf, 0, -1, true)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read buffer lines: %w", err)
	}

	win, err := a.n.CurrentWindow()
	if err != nil {
		return "", 0, fmt.Errorf("failed to get current window: %w", err)
	}
	cursor, err := a.n.WindowCursor(win)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read cursor: %w", err)
	}

	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = string(l)
	}

	return strings.Join(lines, "\n"), offsetOf(lines, cursor[0], cursor[1]), nil
}

// Apply inserts text at the given byte offset and restores the caret to
// its pre-insert position, so a completion arriving while the user kept
// typing never yanks the cursor to the end of the insertion.
func (a *Nvim) Apply(offset int, text string) error {
	buf, err := a.n.CurrentBuffer()
	if err != nil {
		return fmt.Errorf("failed to get current buffer: %w", err)
	}
	rawLines, err := a.n.BufferLines(buf, 0, -1, true)
	if err != nil {
		return fmt.Errorf("failed to read buffer lines: %w", err)
	}
	lines := make([]string, len(rawLines))
	for i, l := range rawLines {
		lines[i] = string(l)
	}

	row, col, ok := positionOf(lines, offset)
	if !ok {
		logger.Debug("insert offset %d out of range, skipping apply", offset)
		return nil
	}

	win, err := a.n.CurrentWindow()
	if err != nil {
		return fmt.Errorf("failed to get current window: %w", err)
	}
	cursor, err := a.n.WindowCursor(win)
	if err != nil {
		return fmt.Errorf("failed to read cursor: %w", err)
	}

	replacement := [][]byte{}
	for _, line := range strings.Split(text, "\n") {
		replacement = append(replacement, []byte(line))
	}
	if err := a.n.SetBufferText(buf, row, col, row, col, replacement); err != nil {
		return fmt.Errorf("failed to insert completion: %w", err)
	}

	if err := a.n.SetWindowCursor(win, cursor); err != nil {
		logger.Warn("failed to restore cursor: %v", err)
	}
	return nil
}

// OnEvent registers the RPC handler the editor plugin notifies with user
// events (text_changed, accept, reject, dismiss, trigger_completion).
func (a *Nvim) OnEvent(handler func(event, data string)) error {
	return a.n.RegisterHandler("copilot_event", func(n *nvim.Nvim, event string, data string) {
		handler(event, data)
	})
}

// Serve blocks until the RPC connection closes.
func (a *Nvim) Serve() error {
	return a.n.Serve()
}

// Close closes the connection.
func (a *Nvim) Close() error {
	return a.n.Close()
}

// offsetOf converts a 1-based row, 0-based byte col cursor into a byte
// offset within the newline-joined buffer text.
func offsetOf(lines []string, row, col int) int {
	if row < 1 {
		row = 1
	}
	if row > len(lines) {
		row = len(lines)
	}

	offset := 0
	for i := 0; i < row-1; i++ {
		offset += len(lines[i]) + 1
	}
	if len(lines) > 0 {
		line := lines[row-1]
		if col > len(line) {
			col = len(line)
		}
		if col < 0 {
			col = 0
		}
		offset += col
	}
	return offset
}

// positionOf converts a byte offset into a 0-based row and byte col for
// the buffer API. ok is false when the offset falls outside the buffer.
func positionOf(lines []string, offset int) (row, col int, ok bool) {
	if offset < 0 {
		return 0, 0, false
	}
	remaining := offset
	for i, line := range lines {
		if remaining <= len(line) {
			return i, remaining, true
		}
		remaining -= len(line) + 1
	}
	return 0, 0, false
}
