package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedRunIDGenerator(t *testing.T) {
	gen := NewFixedRunIDGenerator("run-1")
	assert.Equal(t, "run-1", gen.Generate())
	assert.Equal(t, "run-1", gen.Generate())
}

func TestFixedRunIDGeneratorDefault(t *testing.T) {
	assert.Equal(t, "test-run-default", NewFixedRunIDGenerator("").Generate())
}
