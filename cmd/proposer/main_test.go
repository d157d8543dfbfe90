package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/proposer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		validateCmd.Flags().Set("kind", "")
		schemaCmd.Flags().Set("check", "")
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "proposer version "+proposer.Version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "proposal.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
strategy_data:
  type: random
  domain:
    inputs: [{key: x1, type: continuous, bounds: [0, 1]}]
    outputs: [{key: y1, type: continuous}]
state: FAILED
error_message: out of reagent
`), 0644))

	out, err := run(t, "validate", valid)
	require.NoError(t, err)
	assert.Contains(t, out, "is a valid proposal")

	invalid := filepath.Join(dir, "request.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"n_candidates": "two"}`), 0644))

	out, err = run(t, "validate", "--kind", "request", invalid)
	assert.ErrorIs(t, err, errInvalidDocument)
	assert.Contains(t, out, "strategy_data")
	assert.Contains(t, out, "n_candidates")

	_, err = run(t, "validate", "--kind", "experiment", valid)
	assert.ErrorContains(t, err, "unknown document kind")
}

func TestValidateCommand_RequiresFile(t *testing.T) {
	_, err := run(t, "validate")
	assert.Error(t, err)
}

func TestServeOptions(t *testing.T) {
	require.NoError(t, serveCmd.Flags().Set("addr", ":9999"))
	require.NoError(t, serveCmd.Flags().Set("no-worker", "true"))
	t.Cleanup(func() {
		serveCmd.Flags().Set("addr", "")
		serveCmd.Flags().Set("no-worker", "false")
	})

	opts := serveOptions(serveCmd)
	assert.Equal(t, ":9999", opts.Addr)
	assert.True(t, opts.NoWorker)
	assert.Empty(t, opts.Store)
}

func TestSchemaCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "random", "domain": {"inputs": [{"key": "x1", "type": "continuous", "bounds": [0, 1]}], "outputs": [{"key": "y1", "type": "continuous"}]}}`), 0644))

	out, err := run(t, "schema", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"inputs": {"x1": "float"}, "candidates": {"x1": "float[0,1]"}, "outputs": {"y1": "float?"}}`, out)
}

func TestSchemaCommand_Check(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "strategy.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "random", "domain": {"inputs": [{"key": "x1", "type": "continuous", "bounds": [0, 1]}], "outputs": [{"key": "y1", "type": "continuous"}]}}`), 0644))

	same := filepath.Join(dir, "same.json")
	require.NoError(t, os.WriteFile(same, []byte(`{"inputs": {"x1": "float"}, "candidates": {"x1": "float[0.0, 1]"}, "outputs": {"y1": "float?"}}`), 0644))
	out, err := run(t, "schema", path, "--check", same)
	require.NoError(t, err)
	assert.Contains(t, out, "matches")

	drifted := filepath.Join(dir, "drifted.json")
	require.NoError(t, os.WriteFile(drifted, []byte(`{"inputs": {"x1": "float"}, "candidates": {"x1": "float[0,2]"}, "outputs": {"y1": "float?", "y2": "float?"}}`), 0644))
	out, err = run(t, "schema", path, "--check", drifted)
	assert.ErrorContains(t, err, "2 schema difference(s)")
	assert.Contains(t, out, "candidates.x1: want float[0,2], got float[0,1]")
	assert.Contains(t, out, "outputs.y2: missing, want float?")

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"inputs": {"x1": "int"}}`), 0644))
	_, err = run(t, "schema", path, "--check", broken)
	assert.ErrorContains(t, err, "unsupported type: int")
}
