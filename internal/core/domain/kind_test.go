package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_DefaultPartition(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindGeneric, PartitionDefault},
		{KindDocument, PartitionDefault},
		{KindImage, PartitionDefault},
		{KindDocumentation, PartitionDocumentation},
		{KindCode, PartitionCode},
		{KindExample, PartitionExamples},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.DefaultPartition())
		})
	}
}

func TestKind_Splittable(t *testing.T) {
	assert.False(t, KindImage.Splittable())
	assert.False(t, KindExample.Splittable())
	assert.True(t, KindCode.Splittable())
	assert.True(t, KindDocumentation.Splittable())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Code ")
	require.NoError(t, err)
	assert.Equal(t, KindCode, k)

	_, err = ParseKind("spreadsheet")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
