package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

// Config represents the pickpack configuration
type Config struct {
	// Package manager command line, e.g. "winget"
	Tool string `koanf:"tool"`

	// Let the package manager prompt instead of running silently
	Interactive bool `koanf:"interactive"`

	// External catalog file; empty means the built-in list
	Catalog string `koanf:"catalog"`

	// Per-job limit; zero waits forever
	Timeout time.Duration `koanf:"timeout"`

	// Advisory lock held around each package manager run
	LockFile string `koanf:"lockfile"`

	// UI color theme
	Theme string `koanf:"theme"`

	Log LogConfig `koanf:"log"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Tool:     "winget",
		LockFile: filepath.Join(os.TempDir(), "pickpack.lock"),
		Theme:    "pickpack",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultConfigAsMap flattens DefaultConfig for the confmap provider.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"tool":        def.Tool,
		"interactive": def.Interactive,
		"catalog":     def.Catalog,
		"timeout":     def.Timeout.String(),
		"lockfile":    def.LockFile,
		"theme":       def.Theme,
		"log.level":   def.Log.Level,
		"log.file":    def.Log.File,
	}
}

// keyKind tells Set how to coerce a raw string.
type keyKind int

const (
	kindString keyKind = iota
	kindBool
	kindDuration
)

var keys = map[string]keyKind{
	"tool":        kindString,
	"interactive": kindBool,
	"catalog":     kindString,
	"timeout":     kindDuration,
	"lockfile":    kindString,
	"theme":       kindString,
	"log.level":   kindString,
	"log.file":    kindString,
}

// Keys returns the settable configuration keys, sorted.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DefaultPath returns $XDG_CONFIG_HOME/pickpack/config.yaml, or "" when
// no config directory can be determined.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pickpack", "config.yaml")
}

// Manager handles configuration loading and saving
type Manager struct {
	configPath string

	mu     sync.RWMutex
	merged *koanf.Koanf // every source
	file   *koanf.Koanf // what Save writes
	config Config
}

// NewManager creates a new configuration manager for the file at path.
func NewManager(path string) *Manager {
	return &Manager{
		configPath: path,
		merged:     koanf.New("."),
		file:       koanf.New("."),
		config:     DefaultConfig(),
	}
}

// Path returns the config file location.
func (m *Manager) Path() string { return m.configPath }

// Load merges defaults, the config file, the environment and flags.
func (m *Manager) Load(flags *pflag.FlagSet) error {
	return m.LoadSources(DefaultSources(m.configPath, flags)...)
}

// LoadSources merges the given sources in priority order.
func (m *Manager) LoadSources(sources ...Source) error {
	merged := koanf.New(".")
	if err := loadSources(merged, sources); err != nil {
		return err
	}

	file := koanf.New(".")
	if err := (&FileSource{Path: m.configPath}).Load(file); err != nil {
		return err
	}

	var cfg Config
	if err := merged.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.mu.Lock()
	m.merged = merged
	m.file = file
	m.config = cfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// String returns the effective value of key as text.
func (m *Manager) String(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.merged.String(key)
}

// Set updates a configuration value and saves it to the config file.
func (m *Manager) Set(key, value string) error {
	kind, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var (
		v   interface{}
		err error
	)
	switch kind {
	case kindBool:
		v, err = cast.ToBoolE(value)
	case kindDuration:
		var d time.Duration
		d, err = cast.ToDurationE(value)
		v = d.String()
	default:
		v = value
	}
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	m.mu.Lock()
	if err := m.merged.Set(key, v); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := m.file.Set(key, v); err != nil {
		m.mu.Unlock()
		return err
	}
	var cfg Config
	if err := m.merged.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	m.config = cfg
	m.mu.Unlock()

	return m.Save()
}

// Save writes the file layer to disk as YAML.
func (m *Manager) Save() error {
	if m.configPath == "" {
		return fmt.Errorf("no config file path")
	}

	m.mu.RLock()
	data, err := m.file.Marshal(yaml.Parser())
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(m.configPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
