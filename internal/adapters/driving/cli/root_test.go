package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/searchlift/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "searchlift", rootCmd.Use)
}

func TestRootCmd_RegistersCommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "aggregate", "recommend", "run", "schedule", "report", "config", "mcp", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestNotConfigured(t *testing.T) {
	withServices(t, Services{})
	assert.EqualError(t, notConfigured("pipeline"), "pipeline not configured")

	cause := errors.New("missing credentials")
	withServices(t, Services{SetupErr: cause})
	err := notConfigured("pipeline")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "pipeline not configured: missing credentials", err.Error())
}

func TestSetVersion(t *testing.T) {
	saved := version
	t.Cleanup(func() { version = saved })

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}

func TestVerboseFlag(t *testing.T) {
	t.Cleanup(func() { logger.SetVerbose(false) })

	_, _, err := execute(t, context.Background(), "version", "--verbose")
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestMCPServe_NotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, _, err := execute(t, context.Background(), "mcp", "serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insights service not configured")
}
