// Package tui provides an interactive terminal browser for a corpus.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-corpus/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Corpus answers queries and reads the resources behind records.
	Corpus driving.CorpusService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Corpus == nil {
		return ErrMissingCorpusService
	}
	return nil
}
