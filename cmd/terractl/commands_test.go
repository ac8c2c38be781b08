package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-energy/inspecciones/internal/utils"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("STORAGE_DRIVER", "file")

	out, err := execute(t, "token", "--sub", "tablet-07", "--role", "inspector", "--ttl", "1h")
	require.NoError(t, err)

	claims, err := utils.ValidateToken(strings.TrimSpace(out), "cli-secret")
	require.NoError(t, err)
	assert.Equal(t, "tablet-07", claims["sub"])
	assert.Equal(t, "inspector", claims["role"])
}

func TestTokenCommandRequiresSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("STORAGE_DRIVER", "file")
	tokenSub = ""

	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestCommandsRequireSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--sub", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
