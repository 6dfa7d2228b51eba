package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
}

func TestStatusCmd_ShowsStatsAndProviders(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Documents:  2")
	assert.Contains(t, buf.String(), "Chunks:     10")
	assert.Contains(t, buf.String(), "Dimensions: 768")
	assert.Contains(t, buf.String(), "Embedder (mock-embedder): ok")
	assert.Contains(t, buf.String(), "LLM (mock-llm): ok")
	assert.Contains(t, buf.String(), "Records: configured")
}

func TestStatusCmd_ReportsUnreachableProvider(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	llmService = &mockProvider{name: "mock-llm", pingErr: errors.New("connection refused")}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "LLM (mock-llm): unreachable")
	assert.Contains(t, buf.String(), "connection refused")
}

func TestStatusCmd_ReportsMissingProviders(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	llmService = nil
	retrieverService = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "LLM: not configured")
	assert.Contains(t, buf.String(), "Records: not configured")
}
