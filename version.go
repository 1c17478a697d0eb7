package atelier

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var rawVersion string

// Version is the release of the studio backend.
var Version = strings.TrimSpace(rawVersion)
