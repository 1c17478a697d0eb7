package domain

// Metadata keys shared by action descriptors.
// They double as mapstructure tags for DecodeParams.
const (
	KeyMode   = "mode"
	KeyAt     = "at"
	KeySource = "source"
)

// Document defaults, matching a freshly opened project.
const (
	DefaultProjectName = "Untitled"
	DefaultTool        = "text"
	DefaultStyle       = "Photorealistic"
	DefaultFormat      = "glTF"
)
