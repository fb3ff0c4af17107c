package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/toolhive-action-authz/pkg/versions"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "json format",
			args: []string{"version", "--format", "json"},
			check: func(t *testing.T, out string) {
				t.Helper()
				var info versions.VersionInfo
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.NotEmpty(t, info.Version)
				assert.NotEmpty(t, info.GoVersion)
				assert.NotEmpty(t, info.Platform)
			},
		},
		{
			name: "text format",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.Contains(t, out, "authz-demo ")
				assert.Contains(t, out, "commit ")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewRootCmd(nil)
			cmd.SetOut(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			tt.check(t, out.String())
		})
	}
}

func TestServeCmd_RequiresConfig(t *testing.T) {
	cmd := NewRootCmd(nil)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"serve"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "config" not set`)
}

func TestRootCmd_DebugLowersLevel(t *testing.T) {
	level := new(slog.LevelVar)
	cmd := NewRootCmd(level)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--debug", "version"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, slog.LevelDebug, level.Level())
}
