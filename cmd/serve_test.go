package cmd

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weekrev/weekrev/internal/server"
	"github.com/weekrev/weekrev/internal/upstream"
)

func TestRegisterAllTools(t *testing.T) {
	sc := server.NewServerContext(context.Background(), upstream.NewStaticTokenProvider())
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("weekrev-test", "0.0.1")
	require.NoError(t, registerAllTools(mcpSrv, sc, false))
}

func TestRegisterAllToolsReadOnly(t *testing.T) {
	sc := server.NewServerContext(context.Background(), upstream.NewStaticTokenProvider())
	defer func() { _ = sc.Shutdown() }()

	mcpSrv := mcpserver.NewMCPServer("weekrev-test", "0.0.1")
	require.NoError(t, registerAllTools(mcpSrv, sc, true))
}

func TestServeCmdRejectsUnknownTransport(t *testing.T) {
	err := runServe("carrier-pigeon", false, ":0", false, MetricsConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport type")
}

func TestServeCmdFlagDefaults(t *testing.T) {
	cmd := newServeCmd()

	transport, err := cmd.Flags().GetString("transport")
	require.NoError(t, err)
	assert.Equal(t, "stdio", transport)

	yolo, err := cmd.Flags().GetBool("yolo")
	require.NoError(t, err)
	assert.False(t, yolo, "write operations are opt-in")

	metricsAddr, err := cmd.Flags().GetString("metrics-addr")
	require.NoError(t, err)
	assert.Equal(t, server.DefaultMetricsAddr, metricsAddr)
}
