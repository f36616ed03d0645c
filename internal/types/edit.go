package types

// TextEdit replaces MatchLen characters at Position with NewText.
type TextEdit struct {
	Position Position `json:"position"`
	Length   int      `json:"length"`
	NewText  string   `json:"newText"`
}

// WorkspaceEdit is the structured result of a rename: the full set of
// text edits grouped per file. An empty edit is the neutral resolution
// for a canceled or superseded rename; callers must treat it as "no
// changes", never as an error.
type WorkspaceEdit struct {
	Edits map[string][]TextEdit `json:"edits"`
}

// NewWorkspaceEdit returns an empty edit set.
func NewWorkspaceEdit() *WorkspaceEdit {
	return &WorkspaceEdit{Edits: make(map[string][]TextEdit)}
}

// Add appends one edit for the file it touches.
func (w *WorkspaceEdit) Add(e TextEdit) {
	if w.Edits == nil {
		w.Edits = make(map[string][]TextEdit)
	}
	w.Edits[e.Position.Path] = append(w.Edits[e.Position.Path], e)
}

// Size returns the total number of edits across all files.
func (w *WorkspaceEdit) Size() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, edits := range w.Edits {
		n += len(edits)
	}
	return n
}

// Empty reports whether the edit changes nothing.
func (w *WorkspaceEdit) Empty() bool {
	return w.Size() == 0
}
