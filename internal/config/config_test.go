package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("tool", "winget", "")
	fs.Bool("interactive", false, "")
	fs.Duration("timeout", 0, "")
	fs.String("log.level", "info", "")
	fs.Bool("debug", false, "")
	return fs
}

func TestManager_Defaults(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, m.Load(nil))

	cfg := m.Get()
	assert.Equal(t, "winget", cfg.Tool)
	assert.False(t, cfg.Interactive)
	assert.Equal(t, time.Duration(0), cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.LockFile)
}

func TestManager_Precedence(t *testing.T) {
	path := writeFile(t, `
tool: file-tool
timeout: 90s
log:
  level: warn
`)
	t.Setenv("PICKPACK_TOOL", "env-tool")
	t.Setenv("PICKPACK_INTERACTIVE", "true")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--log.level=error"}))

	m := NewManager(path)
	require.NoError(t, m.Load(fs))

	cfg := m.Get()
	assert.Equal(t, "env-tool", cfg.Tool, "env overrides file")
	assert.True(t, cfg.Interactive)
	assert.Equal(t, 90*time.Second, cfg.Timeout, "file overrides defaults")
	assert.Equal(t, "error", cfg.Log.Level, "flags override everything")
}

func TestManager_UnsetFlagsDoNotOverride(t *testing.T) {
	path := writeFile(t, "tool: file-tool\n")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	m := NewManager(path)
	require.NoError(t, m.Load(fs))
	assert.Equal(t, "file-tool", m.Get().Tool)
}

func TestManager_DebugFlag(t *testing.T) {
	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--debug"}))

	m := NewManager("")
	require.NoError(t, m.Load(fs))
	assert.Equal(t, "debug", m.Get().Log.Level)
}

func TestManager_SetSaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	t.Setenv("PICKPACK_TOOL", "env-tool")

	m := NewManager(path)
	require.NoError(t, m.Load(nil))

	require.NoError(t, m.Set("interactive", "true"))
	require.NoError(t, m.Set("timeout", "2m"))
	assert.True(t, m.Get().Interactive)
	assert.Equal(t, 2*time.Minute, m.Get().Timeout)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "interactive: true")
	assert.Contains(t, string(data), "timeout: 2m0s")
	assert.NotContains(t, string(data), "env-tool", "overrides are not persisted")

	reloaded := NewManager(path)
	require.NoError(t, reloaded.Load(nil))
	assert.True(t, reloaded.Get().Interactive)
	assert.Equal(t, 2*time.Minute, reloaded.Get().Timeout)
}

func TestManager_SetRejects(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, m.Load(nil))

	assert.Error(t, m.Set("nope", "1"))
	assert.Error(t, m.Set("interactive", "maybe"))
	assert.Error(t, m.Set("timeout", "soon"))
	assert.False(t, m.Get().Interactive)
}

func TestManager_BadFile(t *testing.T) {
	path := writeFile(t, "tool: [unclosed\n")
	m := NewManager(path)
	assert.Error(t, m.Load(nil))
}

func TestLoadSources_PriorityOrder(t *testing.T) {
	k := koanf.New(".")
	// Given out of order; the file must still win over defaults.
	path := writeFile(t, "tool: from-file\n")
	require.NoError(t, loadSources(k, []Source{&FileSource{Path: path}, &DefaultSource{}}))
	assert.Equal(t, "from-file", k.String("tool"))
}

func TestEnvSource_Mapping(t *testing.T) {
	t.Setenv("PICKPACK_LOG_LEVEL", "warn")
	k := koanf.New(".")
	require.NoError(t, (&EnvSource{}).Load(k))
	assert.Equal(t, "warn", k.String("log.level"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, []string{"catalog", "interactive", "lockfile", "log.file", "log.level", "theme", "timeout", "tool"}, Keys())
}

func TestBindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("pickpack", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--timeout=2m", "--interactive", "--log.file=/tmp/p.log"}))

	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, m.Load(fs))

	cfg := m.Get()
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.True(t, cfg.Interactive)
	assert.Equal(t, "/tmp/p.log", cfg.Log.File)
	assert.Equal(t, "winget", cfg.Tool)
	assert.Equal(t, "true", m.String("interactive"))

	for _, key := range Keys() {
		assert.NotNil(t, fs.Lookup(key), "no flag for %s", key)
	}
}
