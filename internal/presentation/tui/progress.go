package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/atelier/pkg/domain"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ProgressLine renders a job progress as a single-line bar of the given width.
func ProgressLine(p domain.Progress, width int) string {
	if width < 1 {
		width = 1
	}
	value := min(max(p.Value, 0), 100)
	filled := value * width / 100

	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	return fmt.Sprintf("%-10s [%s] %3d%% %s", p.Kind, bar, value, p.Status)
}
