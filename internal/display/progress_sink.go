package display

import (
	"fmt"
	"io"
	"sync"
)

// TerminalSink renders the cancellable progress indicator on a writer.
// The onCancel callback is wired to the CLI's interrupt handling by the
// caller; the sink itself only stores it.
type TerminalSink struct {
	w io.Writer

	mu       sync.Mutex
	visible  bool
	onCancel func()
}

// NewTerminalSink creates a progress sink writing to w.
func NewTerminalSink(w io.Writer) *TerminalSink {
	return &TerminalSink{w: w}
}

// Show makes the indicator visible and arms the cancel callback.
func (s *TerminalSink) Show(title string, onCancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visible = true
	s.onCancel = onCancel
	fmt.Fprintf(s.w, "%s (press Ctrl-C to cancel)\n", title)
}

// Report prints one progress line. Ignored while the sink is hidden.
func (s *TerminalSink) Report(increment float64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return
	}
	fmt.Fprintf(s.w, "[%3.0f%%] %s\n", increment, message)
}

// Done hides the indicator and disarms cancel.
func (s *TerminalSink) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.visible {
		return
	}
	s.visible = false
	s.onCancel = nil
}

// Cancel invokes the armed cancel callback, if any. Called by the CLI
// when the user interrupts while the indicator is visible.
func (s *TerminalSink) Cancel() {
	s.mu.Lock()
	fn := s.onCancel
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Visible reports whether the indicator is currently shown.
func (s *TerminalSink) Visible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible
}
