package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionKind tags an action descriptor with the edit that produced it.
type ActionKind string

const (
	ActionInit               ActionKind = "init"
	ActionSmooth             ActionKind = "smooth"
	ActionSubdivide          ActionKind = "subdivide"
	ActionBoolean            ActionKind = "boolean"
	ActionCreateBone         ActionKind = "create-bone"
	ActionAutoSkin           ActionKind = "auto-skin"
	ActionSimplify           ActionKind = "simplify"
	ActionRetopo             ActionKind = "retopo"
	ActionGenerationComplete ActionKind = "generation-complete"
)

var knownKinds = map[ActionKind]struct{}{
	ActionInit:               {},
	ActionSmooth:             {},
	ActionSubdivide:          {},
	ActionBoolean:            {},
	ActionCreateBone:         {},
	ActionAutoSkin:           {},
	ActionSimplify:           {},
	ActionRetopo:             {},
	ActionGenerationComplete: {},
}

// ParseActionKind validates a kind received from an outer surface (HTTP, MCP, CLI).
func ParseActionKind(s string) (ActionKind, error) {
	k := ActionKind(s)
	if _, ok := knownKinds[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownActionKind, s)
	}
	return k, nil
}

// Action is an opaque descriptor of one edit.
// It is treated as immutable: every boundary that hands it out clones it.
type Action struct {
	ID       string         `json:"id"`
	Kind     ActionKind     `json:"kind"`
	Metadata map[string]any `json:"metadata,omitempty"`
	At       time.Time      `json:"at"`
}

// NewAction creates a descriptor with a fresh ID.
// The metadata map is copied so later changes by the caller are not observed.
func NewAction(kind ActionKind, metadata map[string]any) Action {
	return Action{
		ID:       uuid.New().String(),
		Kind:     kind,
		Metadata: copyMetadata(metadata),
		At:       time.Now().UTC(),
	}
}

// Clone returns a deep copy of the action.
func (a Action) Clone() Action {
	a.Metadata = copyMetadata(a.Metadata)
	return a
}

// Smooth records a sculpt smoothing pass.
func Smooth() Action { return NewAction(ActionSmooth, nil) }

// Subdivide records a mesh subdivision.
func Subdivide() Action { return NewAction(ActionSubdivide, nil) }

// CreateBone records a new rig bone.
func CreateBone() Action { return NewAction(ActionCreateBone, nil) }

// AutoSkin records an automatic skinning pass.
func AutoSkin() Action { return NewAction(ActionAutoSkin, nil) }

// Simplify records a mesh simplification.
func Simplify() Action { return NewAction(ActionSimplify, nil) }

// Retopo records a retopology pass.
func Retopo() Action { return NewAction(ActionRetopo, nil) }

// Boolean records a mesh boolean operation.
func Boolean(mode BooleanMode) (Action, error) {
	if !mode.Valid() {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidBooleanMode, mode)
	}
	return NewAction(ActionBoolean, map[string]any{KeyMode: string(mode)}), nil
}

// GenerationComplete records the model update produced by a finished generation job.
func GenerationComplete(at time.Time, source GenerationSource) Action {
	return NewAction(ActionGenerationComplete, map[string]any{
		KeyAt:     at.UnixMilli(),
		KeySource: string(source),
	})
}

func copyMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = copyMetadata(tv)
		case []any:
			cp := make([]any, len(tv))
			copy(cp, tv)
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
