package domain

// DocumentDiff represents the changes between two documents.
// It is designed to be serialized to JSON for partial updates on the client.
type DocumentDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	ProjectName *string `json:"project_name,omitempty"`
	Tool        *string `json:"tool,omitempty"`

	AIParams      *AIParams      `json:"ai_params,omitempty"`
	ImageParams   *ImageParams   `json:"image_params,omitempty"`
	ExportOptions *ExportOptions `json:"export_options,omitempty"`

	// History is set whenever the timeline changed.
	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta summarizes a timeline change.
// Recorded carries the actions appended by record or redo; Undone carries
// the actions moved to the redo trail. A record that dropped the redo trail
// reports Discarded > 0.
type HistoryDelta struct {
	Recorded  []Action `json:"recorded,omitempty"`
	Undone    []Action `json:"undone,omitempty"`
	Discarded int      `json:"discarded,omitempty"`
	CanUndo   bool     `json:"can_undo"`
	CanRedo   bool     `json:"can_redo"`
	PastLen   int      `json:"past_len"`
	FutureLen int      `json:"future_len"`
}

// Diff calculates the difference between oldDoc and newDoc.
// If oldDoc is nil, it returns a diff representing the entire newDoc (initial load).
// It returns nil when nothing changed.
func Diff(oldDoc, newDoc *Document) *DocumentDiff {
	if newDoc == nil {
		return nil
	}

	diff := &DocumentDiff{SessionID: newDoc.SessionID}

	if oldDoc == nil || oldDoc.ProjectName != newDoc.ProjectName {
		diff.ProjectName = &newDoc.ProjectName
	}
	if oldDoc == nil || oldDoc.Tool != newDoc.Tool {
		diff.Tool = &newDoc.Tool
	}
	if oldDoc == nil || !sameAIParams(oldDoc.AIParams, newDoc.AIParams) {
		p := newDoc.AIParams
		diff.AIParams = &p
	}
	if oldDoc == nil || oldDoc.ImageParams != newDoc.ImageParams {
		p := newDoc.ImageParams
		diff.ImageParams = &p
	}
	if oldDoc == nil || oldDoc.ExportOptions != newDoc.ExportOptions {
		o := newDoc.ExportOptions
		diff.ExportOptions = &o
	}
	diff.History = diffHistory(oldDoc, newDoc)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffHistory(oldDoc, newDoc *Document) *HistoryDelta {
	nh := newDoc.History
	delta := &HistoryDelta{
		CanUndo:   nh.CanUndo(),
		CanRedo:   nh.CanRedo(),
		PastLen:   len(nh.Past),
		FutureLen: len(nh.Future),
	}

	if oldDoc == nil {
		delta.Recorded = cloneActions(nh.Past)
		return delta
	}

	oh := oldDoc.History
	common := commonPrefix(oh.Past, nh.Past)
	if common == len(oh.Past) && common == len(nh.Past) && sameIDs(oh.Future, nh.Future) {
		return nil
	}

	if len(nh.Past) > common {
		delta.Recorded = cloneActions(nh.Past[common:])
	}
	if len(oh.Past) > common {
		// Actions that left past either went to the redo trail or were dropped.
		delta.Undone = cloneActions(oh.Past[common:])
	}
	if len(delta.Recorded) > 0 && len(oh.Future) > 0 && len(nh.Future) == 0 {
		redone := 0
		for _, a := range delta.Recorded {
			if containsID(oh.Future, a.ID) {
				redone++
			}
		}
		delta.Discarded = len(oh.Future) - redone
	}
	return delta
}

func sameAIParams(a, b AIParams) bool {
	seedA, seedB := a.Seed, b.Seed
	a.Seed, b.Seed = nil, nil
	if a != b {
		return false
	}
	if seedA == nil || seedB == nil {
		return seedA == seedB
	}
	return *seedA == *seedB
}

func commonPrefix(a, b []Action) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i].ID != b[i].ID {
			return i
		}
	}
	return n
}

func sameIDs(a, b []Action) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func containsID(list []Action, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *DocumentDiff) IsEmpty() bool {
	return d.ProjectName == nil && d.Tool == nil && d.AIParams == nil &&
		d.ImageParams == nil && d.ExportOptions == nil && d.History == nil
}
