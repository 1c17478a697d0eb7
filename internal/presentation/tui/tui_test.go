package tui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/atelier/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestHistoryMarkdown(t *testing.T) {
	mode, _ := domain.Boolean(domain.BooleanUnion)
	h := domain.History{
		Past: []domain.Action{
			domain.Smooth(),
			domain.GenerationComplete(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), domain.SourceText),
		},
		Future: []domain.Action{mode, domain.Subdivide()},
	}

	md := HistoryMarkdown("s1", h)

	assert.Contains(t, md, "# Session `s1`")
	assert.Contains(t, md, "2 applied, 2 undone.")
	assert.Contains(t, md, "| 1 | smooth |  | applied |")
	assert.Contains(t, md, "at=2026-01-02T03:04:05Z, source=text | **current** |")
	// The next redo is listed first.
	assert.Contains(t, md, "| 3 | boolean | mode=union | _undone_ |")
	assert.Contains(t, md, "| 4 | subdivide |  | _undone_ |")
}

func TestHistoryMarkdown_Empty(t *testing.T) {
	md := HistoryMarkdown("s1", domain.History{})
	assert.Contains(t, md, "_No actions recorded._")
	assert.NotContains(t, md, "| # |")
}

func TestProgressLine(t *testing.T) {
	tests := []struct {
		name string
		in   domain.Progress
		want string
	}{
		{"idle", domain.Progress{Kind: domain.JobExport, Status: domain.JobIdle}, "export     [----------]   0% idle"},
		{"half", domain.Progress{Kind: domain.JobGeneration, Status: domain.JobRunning, Value: 50}, "generation [#####-----]  50% running"},
		{"clamped", domain.Progress{Kind: domain.JobExport, Status: domain.JobCompleted, Value: 120}, "export     [##########] 100% completed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressLine(tt.in, 10))
		})
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf)
	out := buf.String()
	assert.Equal(t, len(bannerLines)+2, strings.Count(out, "\n"))
	// A buffer is not a terminal, so no escape sequences are emitted.
	assert.NotContains(t, out, "\x1b[")
}

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(false)
	out, err := render("# Title")
	assert.NoError(t, err)
	assert.Equal(t, "# Title", out)
}
