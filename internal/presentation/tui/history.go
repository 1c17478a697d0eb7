package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
)

// HistoryMarkdown renders a session history as a markdown document.
// Applied actions are numbered oldest first; undone actions follow, next redo first.
func HistoryMarkdown(sessionID string, h domain.History) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Session `%s`\n\n", sessionID)
	fmt.Fprintf(&b, "%d applied, %d undone.\n\n", len(h.Past), len(h.Future))

	if len(h.Past) == 0 && len(h.Future) == 0 {
		b.WriteString("_No actions recorded._\n")
		return b.String()
	}

	b.WriteString("| # | Action | Details | State |\n")
	b.WriteString("|---|--------|---------|-------|\n")
	for i, a := range h.Past {
		state := "applied"
		if i == len(h.Past)-1 {
			state = "**current**"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s |\n", i+1, a.Kind, details(a), state)
	}
	for i, a := range h.Future {
		fmt.Fprintf(&b, "| %d | %s | %s | _undone_ |\n", len(h.Past)+i+1, a.Kind, details(a))
	}
	return b.String()
}

func details(a domain.Action) string {
	if len(a.Metadata) == 0 {
		return ""
	}
	parts := make([]string, 0, len(a.Metadata))
	for _, k := range slices.Sorted(maps.Keys(a.Metadata)) {
		v := a.Metadata[k]
		if k == domain.KeyAt {
			if ms, ok := toInt64(v); ok {
				v = time.UnixMilli(ms).UTC().Format(time.RFC3339)
			}
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ", ")
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
