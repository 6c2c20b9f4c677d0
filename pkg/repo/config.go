package repo

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/odvcencio/objgraph/pkg/object"
	"github.com/odvcencio/objgraph/pkg/refs"
	"go.uber.org/zap/zapcore"
)

// Config holds repository settings, usually read from objgraph.toml.
type Config struct {
	Object   ObjectConfig   `toml:"object"`
	Refs     RefsConfig     `toml:"refs"`
	Identity IdentityConfig `toml:"identity"`
	Log      LogConfig      `toml:"log"`
}

type ObjectConfig struct {
	Hash string `toml:"hash"`
}

type RefsConfig struct {
	DefaultBranch string `toml:"default_branch"`
}

// IdentityConfig is the author and committer of commits made through Repo.
type IdentityConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Object:   ObjectConfig{Hash: string(object.DefaultHashAlgorithm)},
		Refs:     RefsConfig{DefaultBranch: "main"},
		Identity: IdentityConfig{Name: "objgraph", Email: "objgraph@localhost"},
		Log:      LogConfig{Level: "info"},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. A missing file
// yields the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes TOML text on top of DefaultConfig and validates the
// result. Unknown keys are an error.
func ParseConfig(text string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("parse config: unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that has a restricted value set.
func (c Config) Validate() error {
	if _, err := object.ParseHashAlgorithm(c.Object.Hash); err != nil {
		return fmt.Errorf("config object.hash: %w", err)
	}
	if !refs.ValidName(c.Refs.DefaultBranch) {
		return fmt.Errorf("config refs.default_branch: invalid ref name %q", c.Refs.DefaultBranch)
	}
	if strings.TrimSpace(c.Identity.Name) == "" {
		return fmt.Errorf("config identity.name: must not be empty")
	}
	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("config log.level: %w", err)
	}
	return nil
}

// HashAlgorithm returns the parsed object.hash setting.
func (c Config) HashAlgorithm() object.HashAlgorithm {
	alg, err := object.ParseHashAlgorithm(c.Object.Hash)
	if err != nil {
		return object.DefaultHashAlgorithm
	}
	return alg
}

// LogLevel parses log.level. Empty means info.
func (c Config) LogLevel() (zapcore.Level, error) {
	if strings.TrimSpace(c.Log.Level) == "" {
		return zapcore.InfoLevel, nil
	}
	return zapcore.ParseLevel(c.Log.Level)
}

// Signature renders the identity as "Name <email>", or just the name when
// no email is set.
func (c IdentityConfig) Signature() string {
	name := strings.TrimSpace(c.Name)
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return name
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
