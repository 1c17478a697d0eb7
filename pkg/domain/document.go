package domain

import (
	"fmt"
	"time"
)

// AIParams are the text-to-3D generation settings of a document.
type AIParams struct {
	Prompt     string `json:"prompt" yaml:"prompt"`
	Style      string `json:"style" yaml:"style"`
	Complexity int    `json:"complexity" yaml:"complexity"`
	Detail     int    `json:"detail" yaml:"detail"`
	PolyBudget int    `json:"poly_budget" yaml:"poly_budget"`
	Seed       *int64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

// Validate rejects negative sliders.
func (p AIParams) Validate() error {
	if p.Complexity < 0 || p.Detail < 0 || p.PolyBudget < 0 {
		return fmt.Errorf("%w: ai params must not be negative", ErrInvalidParams)
	}
	return nil
}

// ImageParams are the image-to-3D reconstruction settings of a document.
type ImageParams struct {
	Depth         int `json:"depth" yaml:"depth"`
	Density       int `json:"density" yaml:"density"`
	TextureDetail int `json:"texture_detail" yaml:"texture_detail"`
}

// Validate rejects negative sliders.
func (p ImageParams) Validate() error {
	if p.Depth < 0 || p.Density < 0 || p.TextureDetail < 0 {
		return fmt.Errorf("%w: image params must not be negative", ErrInvalidParams)
	}
	return nil
}

// ExportOptions are the export panel settings of a document.
type ExportOptions struct {
	Format    string `json:"format" yaml:"format"`
	TexRes    string `json:"tex_res" yaml:"tex_res"`
	PolyCount int    `json:"poly_count" yaml:"poly_count"`
}

// Document is the editable unit owned by one session.
type Document struct {
	SessionID     string        `json:"session_id"`
	ProjectName   string        `json:"project_name"`
	Tool          string        `json:"tool"`
	AIParams      AIParams      `json:"ai_params"`
	ImageParams   ImageParams   `json:"image_params"`
	ExportOptions ExportOptions `json:"export_options"`
	History       History       `json:"history"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`

	// Sealed carries the ciphertext of an encrypted document. Stores wrapped
	// by the encryption middleware only ever see envelopes with this set.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewDocument creates an empty document with the studio defaults.
func NewDocument(sessionID string) *Document {
	now := time.Now().UTC()
	return &Document{
		SessionID:   sessionID,
		ProjectName: DefaultProjectName,
		Tool:        DefaultTool,
		AIParams: AIParams{
			Style:      DefaultStyle,
			Complexity: 50,
			Detail:     50,
			PolyBudget: 100000,
		},
		ImageParams: ImageParams{
			Depth:         60,
			Density:       50,
			TextureDetail: 70,
		},
		ExportOptions: ExportOptions{
			Format:    DefaultFormat,
			TexRes:    "2048",
			PolyCount: 50000,
		},
		History: History{
			Past:   []Action{},
			Future: []Action{},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewProject resets the project name. The history is left untouched.
func (d *Document) NewProject() {
	d.ProjectName = DefaultProjectName
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.AIParams.Seed != nil {
		seed := *d.AIParams.Seed
		c.AIParams.Seed = &seed
	}
	c.History = d.History.Clone()
	if d.Sealed != nil {
		c.Sealed = append([]byte(nil), d.Sealed...)
	}
	return &c
}
