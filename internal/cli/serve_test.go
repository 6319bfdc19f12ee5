package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/codelens/internal/config"
)

func TestApplyServeOverrides_FlagsWinOverEnv(t *testing.T) {
	cmd := ServeCmd()
	require.NoError(t, cmd.Flags().Set("host", "10.0.0.1"))
	require.NoError(t, cmd.Flags().Set("port", "8080"))

	cfg := &config.Config{Host: "0.0.0.0", Port: "9090"}
	applyServeOverrides(cmd, cfg)

	assert.Equal(t, "10.0.0.1", cfg.Host)
	// An explicit --port equal to the flag default still overrides the env.
	assert.Equal(t, "8080", cfg.Port)
}

func TestApplyServeOverrides_UnsetFlagsKeepEnv(t *testing.T) {
	cmd := ServeCmd()

	cfg := &config.Config{Host: "0.0.0.0", Port: "9090"}
	applyServeOverrides(cmd, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "9090", cfg.Port)
}
