package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "marblerail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
addr: ":9000"
tick_rate: 30
log:
  level: info
grind:
  attach_radius: 12.5
  max_speed: 40
`)
	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30, cfg.TicksPerSecond)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "app.log", cfg.Log.File)
	assert.InDelta(t, 12.5, cfg.Grind.AttachRadius, 1e-9)
	assert.InDelta(t, 40, cfg.Grind.MaxSpeed, 1e-9)
	assert.InDelta(t, Default().Grind.BoostMaxSpeed, cfg.Grind.BoostMaxSpeed, 1e-9)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "addr: \":9000\"\n")

	cfg, err := Load(path, newFlags(t, "--addr", ":7000", "--auto_attach"))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.True(t, cfg.AutoAttach)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, "grind:\n  max_speed: 1\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "TUNING_INVALID", oopsErr.Code())

	_, err = Load("", newFlags(t, "--tick_rate", "0"))
	require.Error(t, err)
	oopsErr, ok = oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_READ", oopsErr.Code())
}
