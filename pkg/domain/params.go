package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// BooleanMode selects the mesh boolean operation.
type BooleanMode string

const (
	BooleanUnion      BooleanMode = "union"
	BooleanDifference BooleanMode = "difference"
	BooleanIntersect  BooleanMode = "intersect"
)

// Valid reports whether m is one of the supported modes.
func (m BooleanMode) Valid() bool {
	switch m {
	case BooleanUnion, BooleanDifference, BooleanIntersect:
		return true
	}
	return false
}

// GenerationSource identifies which panel started a generation job.
type GenerationSource string

const (
	SourceText  GenerationSource = "text"
	SourceImage GenerationSource = "image"
)

// BooleanParams is the typed view of a boolean action's metadata.
type BooleanParams struct {
	Mode BooleanMode `mapstructure:"mode"`
}

// GenerationParams is the typed view of a generation-complete action's metadata.
type GenerationParams struct {
	// At is the completion time in Unix milliseconds.
	At     int64            `mapstructure:"at"`
	Source GenerationSource `mapstructure:"source"`
}

// DecodeParams decodes an action's metadata into out.
// Decoding is weakly typed because metadata that went through JSON
// comes back with float64 numbers.
func DecodeParams(a Action, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to build params decoder: %w", err)
	}
	if err := dec.Decode(a.Metadata); err != nil {
		return fmt.Errorf("%w: failed to decode %s params: %w", ErrInvalidParams, a.Kind, err)
	}
	return nil
}
