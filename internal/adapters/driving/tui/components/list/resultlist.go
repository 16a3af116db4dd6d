// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// NearDistance is the distance below which a match is rendered as close.
const NearDistance = 0.5

// MatchList displays query matches in a navigable list.
type MatchList struct {
	matches  []domain.QueryMatch
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewMatchList creates a new match list component.
func NewMatchList(s *styles.Styles) *MatchList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &MatchList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the match list.
func (m *MatchList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (m *MatchList) Update(msg tea.Msg) (*MatchList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			m.MoveUp()
		case "down", "j":
			m.MoveDown()
		}
	}
	return m, nil
}

// View renders the visible window of matches around the selection.
func (m *MatchList) View() string {
	if len(m.matches) == 0 {
		return m.styles.Muted.Render("No matches")
	}

	lines := make([]string, 0, len(m.matches)+2)
	lines = append(lines, m.styles.Subtitle.Render(fmt.Sprintf("Matches (%d)", len(m.matches))), "")

	// Each match renders as three lines.
	visible := max((m.height-4)/3, 1)
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := min(start+visible, len(m.matches))

	for i := start; i < end; i++ {
		lines = append(lines, m.renderMatch(i, &m.matches[i]))
	}
	return strings.Join(lines, "\n")
}

// renderMatch formats one match: record ID and distance, address, preview.
func (m *MatchList) renderMatch(index int, match *domain.QueryMatch) string {
	indicator := "  "
	if index == m.selected {
		indicator = "> "
	}

	id := truncate(match.Record.ID, max(m.width-20, 10))
	distance := fmt.Sprintf("%.3f", match.Distance)

	var idLine string
	if index == m.selected {
		idLine = m.styles.Selected.Render(indicator+id) + "  " + distance
	} else {
		idLine = m.styles.Normal.Render(indicator+id) + "  " +
			m.styles.Distance(distance, match.Distance, NearDistance)
	}

	address := "(no source resource)"
	if match.Record.HasAddress() {
		address = match.Record.Address.String()
	}
	addressLine := m.styles.Address.Render("    " + truncate(address, max(m.width-6, 20)))

	preview := strings.Join(strings.Fields(match.Record.Content), " ")
	previewLine := m.styles.Muted.Render("    " + truncate(preview, max(m.width-6, 20)))

	return idLine + "\n" + addressLine + "\n" + previewLine
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetMatches replaces the matches and resets the selection.
func (m *MatchList) SetMatches(matches []domain.QueryMatch) {
	m.matches = matches
	m.selected = 0
}

// Matches returns the current matches.
func (m *MatchList) Matches() []domain.QueryMatch {
	return m.matches
}

// Selected returns the index of the selected match.
func (m *MatchList) Selected() int {
	return m.selected
}

// SetSelected sets the selected index if it is in range.
func (m *MatchList) SetSelected(index int) {
	if index >= 0 && index < len(m.matches) {
		m.selected = index
	}
}

// SelectedMatch returns the currently selected match, or nil if none.
func (m *MatchList) SelectedMatch() *domain.QueryMatch {
	if m.selected < 0 || m.selected >= len(m.matches) {
		return nil
	}
	return &m.matches[m.selected]
}

// MoveUp moves selection up.
func (m *MatchList) MoveUp() {
	if m.selected > 0 {
		m.selected--
	}
}

// MoveDown moves selection down.
func (m *MatchList) MoveDown() {
	if m.selected < len(m.matches)-1 {
		m.selected++
	}
}

// SetDimensions sets the component dimensions.
func (m *MatchList) SetDimensions(width, height int) {
	m.width = width
	m.height = height
}

// Count returns the number of matches.
func (m *MatchList) Count() int {
	return len(m.matches)
}

// IsEmpty returns whether the list is empty.
func (m *MatchList) IsEmpty() bool {
	return len(m.matches) == 0
}
