package list

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

func sampleMatches() []domain.QueryMatch {
	return []domain.QueryMatch{
		{
			Record: domain.Record{
				ID:      "local:documentation:docs/plot.md:1",
				Content: "Draws a\nscatter plot.",
				Address: domain.MustParseAddress("documentation:docs/plot.md"),
			},
			Distance: 0.12,
		},
		{
			Record:   domain.Record{ID: "local:file:notes.txt:1", Content: "notes", Address: domain.MustParseAddress("file:notes.txt")},
			Distance: 0.64,
		},
		{
			Record:   domain.Record{ID: "raw-1", Content: "no address"},
			Distance: 0.9,
		},
	}
}

func TestNewMatchList(t *testing.T) {
	l := NewMatchList(styles.DefaultStyles())

	require.NotNil(t, l)
	assert.Equal(t, 0, l.Selected())
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.Init())
}

func TestNewMatchList_NilStyles(t *testing.T) {
	l := NewMatchList(nil)

	require.NotNil(t, l)
	assert.NotNil(t, l.styles)
}

func TestMatchList_SetMatches(t *testing.T) {
	l := NewMatchList(nil)
	l.SetMatches(sampleMatches())
	l.MoveDown()

	assert.Equal(t, 3, l.Count())
	assert.Equal(t, 1, l.Selected())

	l.SetMatches(sampleMatches()[:1])
	assert.Equal(t, 0, l.Selected(), "new matches reset the selection")
}

func TestMatchList_Navigation(t *testing.T) {
	l := NewMatchList(nil)
	l.SetMatches(sampleMatches())

	l.MoveUp()
	assert.Equal(t, 0, l.Selected(), "cannot move above the first match")

	l.MoveDown()
	l.MoveDown()
	l.MoveDown()
	assert.Equal(t, 2, l.Selected(), "cannot move past the last match")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	assert.Equal(t, 1, l.Selected())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, l.Selected())
}

func TestMatchList_SelectedMatch(t *testing.T) {
	l := NewMatchList(nil)
	assert.Nil(t, l.SelectedMatch())

	l.SetMatches(sampleMatches())
	l.SetSelected(1)

	m := l.SelectedMatch()
	require.NotNil(t, m)
	assert.Equal(t, "local:file:notes.txt:1", m.Record.ID)

	l.SetSelected(10)
	assert.Equal(t, 1, l.Selected(), "out of range selection is ignored")
}

func TestMatchList_View(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Contains(t, NewMatchList(nil).View(), "No matches")
	})

	t.Run("renders matches", func(t *testing.T) {
		l := NewMatchList(nil)
		l.SetDimensions(120, 40)
		l.SetMatches(sampleMatches())

		view := l.View()

		assert.Contains(t, view, "Matches (3)")
		assert.Contains(t, view, "documentation:docs/plot.md")
		assert.Contains(t, view, "Draws a scatter plot.")
		assert.Contains(t, view, "0.120")
		assert.Contains(t, view, "(no source resource)")
	})

	t.Run("window follows selection", func(t *testing.T) {
		l := NewMatchList(nil)
		l.SetDimensions(120, 7) // room for one match
		l.SetMatches(sampleMatches())
		l.SetSelected(2)

		view := l.View()

		assert.Contains(t, view, "raw-1")
		assert.NotContains(t, view, "notes.txt")
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
