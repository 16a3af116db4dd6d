package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPorts_Validate(t *testing.T) {
	t.Run("nil ports", func(t *testing.T) {
		var p *Ports
		assert.ErrorIs(t, p.Validate(), ErrMissingCorpusService)
	})

	t.Run("missing corpus", func(t *testing.T) {
		assert.ErrorIs(t, (&Ports{}).Validate(), ErrMissingCorpusService)
	})

	t.Run("corpus set", func(t *testing.T) {
		assert.NoError(t, (&Ports{Corpus: &mockCorpus{}}).Validate())
	})
}
