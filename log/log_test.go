package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalHandlerFormatsLevelTimeMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewTerminalHandler(&buf, false))
	logger.Info("account credited", "address", "0xaa", "amount", 500)

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "account credited")
	assert.Contains(t, out, "address=0xaa")
	assert.Contains(t, out, "amount=500")
}

func TestTerminalHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(slog.LevelWarn)
	logger := slog.New(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	logger.Info("should not appear")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear")
}

func TestJSONHandlerEmitsParseableRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(JSONHandler(&buf))
	logger.Info("module published", "module", "swap")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "module published", decoded["msg"])
	assert.Equal(t, "swap", decoded["module"])
	assert.Equal(t, "INFO", decoded["lvl"])
}

func TestWithContextTagsEveryRecord(t *testing.T) {
	var buf bytes.Buffer
	prev := root
	defer func() { root = prev }()
	root = slog.New(NewTerminalHandler(&buf, false))

	logger := WithContext("pkg", "engine")
	logger.Info("submit accepted")

	assert.True(t, strings.Contains(buf.String(), "pkg=engine"))
}

func TestDiscardHandlerDropsEverything(t *testing.T) {
	logger := slog.New(DiscardHandler())
	logger.Error("this must not panic or write anywhere")
}

// TestSetHandlerAffectsLoggersDerivedBeforeTheCall exercises the
// package-level `var logger = log.WithContext(...)` convention: a
// logger built before SetHandler must still route through whatever
// handler SetHandler installs afterward.
func TestSetHandlerAffectsLoggersDerivedBeforeTheCall(t *testing.T) {
	prevSwap := swap
	defer func() { swap = prevSwap }()
	swap = newSwapHandler(NewTerminalHandler(io.Discard, false))
	root = slog.New(swap)

	early := WithContext("pkg", "engine")

	var buf bytes.Buffer
	SetHandler(NewTerminalHandler(&buf, false))

	early.Info("submit accepted")
	assert.Contains(t, buf.String(), "pkg=engine")
}
