package tui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrMissingCorpusService(t *testing.T) {
	assert.EqualError(t, ErrMissingCorpusService, "tui: corpus service is required")

	wrapped := errors.Join(errors.New("creating app"), ErrMissingCorpusService)
	assert.ErrorIs(t, wrapped, ErrMissingCorpusService)
}
