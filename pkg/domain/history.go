package domain

// History is the edit timeline of one document.
//
// Past holds applied actions, oldest first. Future holds undone actions with
// the most recently undone first, so Future[0] is the next redo.
// An action appears in at most one of the two sequences.
type History struct {
	Past   []Action `json:"past"`
	Future []Action `json:"future"`
}

// CanUndo reports whether there is an applied action to undo.
func (h History) CanUndo() bool { return len(h.Past) > 0 }

// CanRedo reports whether there is an undone action to redo.
func (h History) CanRedo() bool { return len(h.Future) > 0 }

// Len returns the total number of reachable actions.
func (h History) Len() int { return len(h.Past) + len(h.Future) }

// Clone returns a deep copy.
func (h History) Clone() History {
	return History{
		Past:   cloneActions(h.Past),
		Future: cloneActions(h.Future),
	}
}

func cloneActions(in []Action) []Action {
	out := make([]Action, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}
