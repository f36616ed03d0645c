package refsearch

import (
	"sync"
	"time"

	"github.com/standardbeagle/refscope/internal/types"
)

// ModeClassifier decides which operating mode a find-like invocation
// represents. The host editor does not distinguish an inline peek from
// a full panel search, so the classifier watches the visible editor
// range: a shrink shortly before the request means the editor opened an
// inline preview, i.e. Peek.
type ModeClassifier struct {
	window time.Duration
	now    func() time.Time

	mu         sync.Mutex
	lastLength int
	lastShrink time.Time
}

// NewModeClassifier creates a classifier with the given peek window
// (the reference behavior uses 1000ms).
func NewModeClassifier(window time.Duration) *ModeClassifier {
	return &ModeClassifier{window: window, now: time.Now}
}

// RecordVisibleRange notes the current visible-range length and records
// a shrink timestamp whenever the length decreases.
func (m *ModeClassifier) RecordVisibleRange(length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if length < m.lastLength {
		m.lastShrink = m.now()
	}
	m.lastLength = length
}

// Classify resolves the operating mode for a request. Explicit kinds
// (Rename, CallHierarchy) pass through; otherwise a recent viewport
// shrink classifies the request as Peek, anything else as Find.
func (m *ModeClassifier) Classify(explicit types.SearchKind) types.SearchKind {
	if explicit.IsExplicit() {
		return explicit
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.lastShrink.IsZero() && m.now().Sub(m.lastShrink) < m.window {
		return types.SearchKindPeek
	}
	return types.SearchKindFind
}
