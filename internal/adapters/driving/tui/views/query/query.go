// Package query provides the main query view for the TUI.
package query

import (
	"context"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
)

// DefaultLimit is the number of matches requested per query.
const DefaultLimit = 20

// View is the query view: partition tabs, query input, matches and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.MatchList
	statusbar *status.Bar

	corpus driving.CorpusService
	ctx    context.Context

	partitions []string
	partition  int
	lastQuery  string

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a query, false = navigating matches
}

// NewView creates a new query view.
func NewView(s *styles.Styles, km *keymap.KeyMap, corpus driving.CorpusService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s),
		list:       list.NewMatchList(s),
		statusbar:  status.NewBar(s, km),
		corpus:     corpus,
		ctx:        context.Background(),
		width:      80,
		height:     24,
		focusInput: true,
	}
	v.statusbar.SetPartition(v.Partition())
	return v
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.LoadPartitions())
}

// LoadPartitions returns a command that lists the corpus partitions.
func (v *View) LoadPartitions() tea.Cmd {
	return func() tea.Msg {
		if v.corpus == nil {
			return messages.PartitionsLoaded{Err: ErrNoCorpusService}
		}
		partitions, err := v.corpus.Partitions(v.ctx)
		return messages.PartitionsLoaded{Partitions: partitions, Err: err}
	}
}

// Update handles messages for the query view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.PartitionsLoaded:
		if msg.Err != nil {
			v.setError(msg.Err)
			return v, nil
		}
		v.SetPartitions(msg.Partitions)
		return v, nil

	case messages.QueryCompleted:
		v.handleQueryCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
//
//nolint:exhaustive // handling only relevant key types
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type {
	case tea.KeyTab:
		return v, v.cyclePartition(1)
	case tea.KeyShiftTab:
		return v, v.cyclePartition(-1)
	case tea.KeyEsc:
		if !v.focusInput {
			v.focusQuery(false)
		}
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			text := strings.TrimSpace(v.input.Value())
			if text == "" {
				return v, nil
			}
			return v, v.submit(text)
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	// Matches mode.
	switch {
	case msg.Type == tea.KeyEnter:
		return v, v.openSelected()
	case keymap.Matches(msg.String(), v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(msg.String(), v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(msg.String(), v.keymap.NewQuery):
		v.focusQuery(true)
	case keymap.Matches(msg.String(), v.keymap.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case keymap.Matches(msg.String(), v.keymap.Quit):
		return v, func() tea.Msg {
			return messages.Quit{}
		}
	}
	return v, nil
}

// submit starts a query against the current partition.
func (v *View) submit(text string) tea.Cmd {
	v.lastQuery = text
	v.err = nil
	v.statusbar.SetState(status.StateQuerying)
	v.statusbar.SetMessage("")
	v.focusInput = false
	v.input.Blur()
	return v.performQuery(text, v.Partition())
}

// performQuery returns a command that ranks partition against text.
func (v *View) performQuery(text, partition string) tea.Cmd {
	return func() tea.Msg {
		if v.corpus == nil {
			return messages.ErrorOccurred{Err: ErrNoCorpusService}
		}
		resp, err := v.corpus.Query(v.ctx, text, partition, DefaultLimit)
		return messages.QueryCompleted{Response: resp, Err: err}
	}
}

// openSelected asks for the resource behind the selected match.
func (v *View) openSelected() tea.Cmd {
	match := v.list.SelectedMatch()
	if match == nil {
		return nil
	}
	if !match.Record.HasAddress() {
		v.statusbar.SetMessage(ErrNoSourceResource.Error())
		return nil
	}
	addr := match.Record.Address.String()
	return func() tea.Msg {
		return messages.ResourceRequested{Address: addr}
	}
}

// cyclePartition moves to the next or previous partition and re-runs the
// last query against it.
func (v *View) cyclePartition(step int) tea.Cmd {
	if len(v.partitions) < 2 {
		return nil
	}
	n := len(v.partitions)
	v.partition = ((v.partition+step)%n + n) % n
	v.statusbar.SetPartition(v.Partition())

	if v.lastQuery == "" || v.focusInput {
		return nil
	}
	return v.submit(v.lastQuery)
}

// focusQuery returns focus to the input, optionally clearing it.
func (v *View) focusQuery(reset bool) {
	v.focusInput = true
	v.input.Focus()
	if reset {
		v.input.SetValue("")
	}
}

// handleQueryCompleted processes query matches.
func (v *View) handleQueryCompleted(msg messages.QueryCompleted) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	v.err = nil
	var matches []domain.QueryMatch
	if msg.Response != nil {
		matches = msg.Response.Matches
	}
	v.list.SetMatches(matches)
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetMatchCount(len(matches))
	v.focusInput = false
	v.input.Blur()
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the query view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Sercha Corpus"), v.renderTabs(), "")
	sections = append(sections, v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View(), "", v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTabs renders one tab per partition with the current one highlighted.
func (v *View) renderTabs() string {
	if len(v.partitions) == 0 {
		return v.styles.Muted.Render("(no partitions)")
	}
	tabs := make([]string, 0, len(v.partitions))
	for i, p := range v.partitions {
		if i == v.partition {
			tabs = append(tabs, v.styles.ActiveTab.Render(p))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(p))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// SetPartitions replaces the partition tabs. The current partition is kept
// when still present, otherwise documentation is preferred.
func (v *View) SetPartitions(partitions []string) {
	current := v.Partition()
	v.partitions = partitions
	v.partition = 0

	switch {
	case slices.Contains(partitions, current):
		v.partition = slices.Index(partitions, current)
	case slices.Contains(partitions, domain.PartitionDocumentation):
		v.partition = slices.Index(partitions, domain.PartitionDocumentation)
	}
	v.statusbar.SetPartition(v.Partition())
}

// Partitions returns the partition tabs.
func (v *View) Partitions() []string {
	return v.partitions
}

// Partition returns the partition queries run against.
func (v *View) Partition() string {
	if len(v.partitions) == 0 {
		return domain.PartitionDefault
	}
	return v.partitions[v.partition]
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-11) // header, tabs, input, status
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the text in the input.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the text in the input.
func (v *View) SetQuery(text string) {
	v.input.SetValue(text)
}

// Matches returns the current matches.
func (v *View) Matches() []domain.QueryMatch {
	return v.list.Matches()
}

// SelectedIndex returns the index of the selected match.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// StatusMessage returns the message shown in the status bar.
func (v *View) StatusMessage() string {
	return v.statusbar.Message()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty query.
func (v *View) Reset() {
	v.focusQuery(true)
	v.lastQuery = ""
	v.list.SetMatches(nil)
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
