// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-corpus/internal/core/domain"
)

// PartitionsLoaded carries the corpus partitions.
type PartitionsLoaded struct {
	Partitions []string
	Err        error
}

// QueryRequested is a command to rank a partition against text.
type QueryRequested struct {
	Text      string
	Partition string
}

// QueryCompleted carries ranked matches back to the model.
type QueryCompleted struct {
	Response *domain.QueryResponse
	Err      error
}

// ResourceRequested asks for the resource behind a match to be shown.
type ResourceRequested struct {
	Address string
}

// ResourceLoaded carries the content of a resource.
type ResourceLoaded struct {
	Address string
	Content string
	Err     error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewQuery is the query input and matches view.
	ViewQuery ViewType = iota
	// ViewResource shows a resource's content.
	ViewResource
	// ViewHelp is the keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewQuery:
		return "query"
	case ViewResource:
		return "resource"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
