package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/views/query"
	"github.com/custodia-labs/sercha-corpus/internal/adapters/driving/tui/views/resource"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// queryView ranks partitions against typed queries.
	queryView *query.View

	// resourceView shows the resource behind a match.
	resourceView *resource.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:        ports,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		queryView:    query.NewView(s, km, ports.Corpus),
		resourceView: resource.NewView(s, ports.Corpus),
		currentView:  messages.ViewQuery,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.queryView.WithContext(ctx)
	a.resourceView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sercha-corpus"),
		a.queryView.Init(),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.updateActive(msg)

	case messages.PartitionsLoaded, messages.QueryCompleted:
		a.queryView, cmd = a.queryView.Update(msg)
		a.err = a.queryView.Err()
		return a, cmd

	case messages.ResourceRequested:
		a.currentView = messages.ViewResource
		return a, a.resourceView.SetAddress(msg.Address)

	case messages.ResourceLoaded:
		a.resourceView, cmd = a.resourceView.Update(msg)
		a.err = a.resourceView.Err()
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		return a, nil

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a.updateActive(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	return a.updateActive(msg)
}

// updateActive forwards msg to the active view.
func (a *App) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch a.currentView {
	case messages.ViewQuery:
		a.queryView, cmd = a.queryView.Update(msg)
	case messages.ViewResource:
		a.resourceView, cmd = a.resourceView.Update(msg)
	case messages.ViewHelp:
		// Any key leaves help
		if _, ok := msg.(tea.KeyMsg); ok {
			a.currentView = messages.ViewQuery
		}
	}
	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewResource:
		return a.resourceView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.queryView.View()
	}
}

// viewHelp renders every keybinding, grouped as in the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %-12s %s\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Help.Render("[any key] back"))
	return b.String()
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// QueryView returns the query view.
func (a *App) QueryView() *query.View {
	return a.queryView
}

// ResourceView returns the resource view.
func (a *App) ResourceView() *resource.View {
	return a.resourceView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and its views.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.queryView.SetDimensions(width, height)
	a.resourceView.SetDimensions(width, height)
}
