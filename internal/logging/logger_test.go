package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/proposer/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithFormat_JSONRenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelInfo, logging.FormatJSON)
	logger.Error("claim failed", "error", errors.New("locked"), "proposal_id", "p-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "locked", entry["err"])
	assert.Equal(t, "p-1", entry["proposal_id"])
	assert.NotContains(t, entry, "error")
}

func TestNewWithFormat_TextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithFormat(&buf, slog.LevelWarn, logging.FormatText)
	logger.Info("hidden")
	logger.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := logging.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := logging.ParseLevel("loud")
	assert.Error(t, err)
}
