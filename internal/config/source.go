package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read as configuration.
const EnvPrefix = "PICKPACK_"

// Source loads configuration values into koanf. Sources are loaded in
// priority order (lowest first); later sources override earlier ones.
type Source interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSource provides the built-in defaults.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return 10 }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}
	return nil
}

// FileSource loads a YAML file. A missing file is skipped.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return 20 }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking config file %s: %w", s.Path, err)
	}
	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("error loading config file %s: %w", s.Path, err)
	}
	return nil
}

// EnvSource loads PICKPACK_* variables; underscores map to dots:
//
//	PICKPACK_LOG_LEVEL -> log.level
//	PICKPACK_TOOL      -> tool
type EnvSource struct {
	Prefix string
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return 30 }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	if err := k.Load(env.Provider(prefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(key, prefix)), "_", ".")
	}), nil); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

// FlagSource loads command-line flags whose names match config keys.
// Only flags the user actually set override lower sources.
type FlagSource struct {
	Flags *pflag.FlagSet
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return 40 }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		if err := k.Load(posflag.Provider(s.Flags, ".", k), nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
		if debug := s.Flags.Lookup("debug"); debug != nil && debug.Value.String() == "true" {
			_ = k.Set("log.level", "debug")
		}
	}
	return nil
}

// BindFlags registers one flag per setting. Flag names match config keys
// so the flag source can load them directly.
func BindFlags(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.String("tool", def.Tool, "Package manager command line; double-quote a path with spaces")
	fs.Bool("interactive", def.Interactive, "Let installers prompt for input instead of running silently")
	fs.String("catalog", def.Catalog, "Catalog file (default: built-in list)")
	fs.Duration("timeout", def.Timeout, "Time limit per job, 0 for none")
	fs.String("lockfile", def.LockFile, "Lock file guarding the package manager")
	fs.String("theme", def.Theme, "UI color theme (pickpack, light)")
	fs.String("log.level", def.Log.Level, "Log level (debug, info, warn, error)")
	fs.String("log.file", def.Log.File, "Log file (the UI defaults to one in the user cache dir)")
	fs.Bool("debug", false, "Shorthand for --log.level=debug")
}

// DefaultSources returns the standard sources: defaults, file, env, flags.
func DefaultSources(configPath string, flags *pflag.FlagSet) []Source {
	return []Source{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags},
	}
}

func loadSources(k *koanf.Koanf, sources []Source) error {
	sorted := append([]Source(nil), sources...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	for _, src := range sorted {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("%s: %w", src.Name(), err)
		}
	}
	return nil
}
