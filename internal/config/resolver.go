package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type ValueSource string

const (
	SourceUnknown ValueSource = "unknown"
	SourceConfig  ValueSource = "config"
	SourceEnv     ValueSource = "env"
	SourceCLI     ValueSource = "cli"
	SourceDefault ValueSource = "default"
)

// Built-in defaults.
const (
	DefaultDBPath    = "~/.lineage/lineage.db"
	DefaultAddr      = "127.0.0.1:8090"
	DefaultLogLevel  = "info"
	DefaultMaxRounds = 100
)

type ResolvedValue struct {
	Value  string      `json:"value"`
	Source ValueSource `json:"source"`
	From   string      `json:"from,omitempty"`
}

type ResolveOptions struct {
	ConfigPath   string
	CLIDBPath    string
	CLIAddr      string
	CLIMaxRounds string
	CLIVerbose   bool
}

type ResolvedConfig struct {
	ConfigPath string `json:"config_path"`

	DBPath    ResolvedValue `json:"db_path"`
	Addr      ResolvedValue `json:"addr"`
	LogLevel  ResolvedValue `json:"log_level"`
	MaxRounds ResolvedValue `json:"max_rounds"`

	// Rounds is MaxRounds parsed and validated.
	Rounds int `json:"-"`
}

type fileConfig struct {
	DBPath    string `yaml:"db_path"`
	MaxRounds int    `yaml:"max_rounds"`
	Server    struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lineage", "config.yaml")
}

// ResolveConfig layers defaults, the YAML file, environment variables and
// CLI flags, later layers winning.
func ResolveConfig(opts ResolveOptions) (ResolvedConfig, error) {
	path := strings.TrimSpace(opts.ConfigPath)
	if path == "" {
		path = DefaultConfigPath()
	}

	out := ResolvedConfig{ConfigPath: path}
	builtin := "built-in default"
	apply(&out.DBPath, DefaultDBPath, SourceDefault, builtin)
	apply(&out.Addr, DefaultAddr, SourceDefault, builtin)
	apply(&out.LogLevel, DefaultLogLevel, SourceDefault, builtin)
	apply(&out.MaxRounds, strconv.Itoa(DefaultMaxRounds), SourceDefault, builtin)

	cfg, err := loadConfig(path)
	if err != nil {
		return out, err
	}
	if cfg != nil {
		apply(&out.DBPath, cfg.DBPath, SourceConfig, path)
		apply(&out.Addr, cfg.Server.Addr, SourceConfig, path)
		apply(&out.LogLevel, cfg.Log.Level, SourceConfig, path)
		if cfg.MaxRounds != 0 {
			apply(&out.MaxRounds, strconv.Itoa(cfg.MaxRounds), SourceConfig, path)
		}
	}

	applyEnv(&out.DBPath, "LINEAGE_DB")
	applyEnv(&out.Addr, "LINEAGE_ADDR")
	applyEnv(&out.LogLevel, "LINEAGE_LOG_LEVEL")
	applyEnv(&out.MaxRounds, "LINEAGE_MAX_ROUNDS")

	apply(&out.DBPath, opts.CLIDBPath, SourceCLI, "--db")
	apply(&out.Addr, opts.CLIAddr, SourceCLI, "--addr")
	apply(&out.MaxRounds, opts.CLIMaxRounds, SourceCLI, "--max-rounds")
	if opts.CLIVerbose {
		apply(&out.LogLevel, "debug", SourceCLI, "--verbose")
	}

	if out.DBPath.Value != ":memory:" {
		out.DBPath.Value = expandUserPath(out.DBPath.Value)
	}

	rounds, err := strconv.Atoi(out.MaxRounds.Value)
	if err != nil || rounds < 1 {
		return out, fmt.Errorf("invalid max_rounds %q from %s: must be a positive integer", out.MaxRounds.Value, out.MaxRounds.From)
	}
	out.Rounds = rounds

	return out, nil
}

func apply(dst *ResolvedValue, raw string, source ValueSource, from string) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return
	}
	*dst = ResolvedValue{Value: v, Source: source, From: from}
}

func applyEnv(dst *ResolvedValue, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		*dst = ResolvedValue{Value: v, Source: SourceEnv, From: envKey}
	}
}

func loadConfig(path string) (*fileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
