package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	assert.NoError(t, SetLevel("debug"))
	assert.NoError(t, SetLevel("WARN"))
	assert.Error(t, SetLevel("verbose"))
}
