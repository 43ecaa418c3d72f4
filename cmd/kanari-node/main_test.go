package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerbosityToLevelOrdering(t *testing.T) {
	assert.True(t, verbosityToLevel(0) > verbosityToLevel(1))
	assert.True(t, verbosityToLevel(1) > verbosityToLevel(2))
	assert.Equal(t, slog.LevelInfo, verbosityToLevel(3))
	assert.True(t, verbosityToLevel(4) < verbosityToLevel(3))
	assert.True(t, verbosityToLevel(5) < verbosityToLevel(4))
}

func TestDefaultDataDirIsNonEmpty(t *testing.T) {
	assert.NotEmpty(t, defaultDataDir())
}
