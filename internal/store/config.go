package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config selects where the tree is stored and how instances find out about
// each other's writes.
type Config struct {
	Backend      string        `mapstructure:"backend" json:"backend"`
	Dir          string        `mapstructure:"dir" json:"dir"`
	Key          string        `mapstructure:"key" json:"key"`
	RedisURL     string        `mapstructure:"redis_url" json:"redis_url"`
	Bus          string        `mapstructure:"bus" json:"bus"`
	PollInterval time.Duration `mapstructure:"poll_interval" json:"poll_interval"`
	LogLevel     string        `mapstructure:"log_level" json:"log_level"`
	Addr         string        `mapstructure:"addr" json:"addr"`
	Token        string        `mapstructure:"token" json:"-"`
	// GitCommit commits the file backend's payload after saves when Dir is
	// inside a git work tree.
	GitCommit bool `mapstructure:"git_commit" json:"git_commit"`
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"

	BusNone   = "none"
	BusMemory = "memory"
	BusPoll   = "poll"
	BusRedis  = "redis"
)

// ConfigKeys are the keys accepted in config.json and by `config set`.
var ConfigKeys = []string{"addr", "backend", "bus", "dir", "git_commit", "key", "log_level", "poll_interval", "redis_url", "token"}

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.saver).
	if v := strings.TrimSpace(os.Getenv("SAVER_CONFIG_DIR")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".saver"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

func setDefaults(v *viper.Viper) {
	dataDir := "data"
	if dir, err := ConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "data")
	}
	v.SetDefault("backend", BackendFile)
	v.SetDefault("dir", dataDir)
	v.SetDefault("key", DefaultKey)
	v.SetDefault("redis_url", "redis://127.0.0.1:6379/0")
	v.SetDefault("bus", BusPoll)
	v.SetDefault("poll_interval", DefaultPollInterval.String())
	v.SetDefault("log_level", "warn")
	v.SetDefault("addr", "127.0.0.1:8765")
	v.SetDefault("token", "")
	v.SetDefault("git_commit", false)
}

// NewViper layers defaults, the JSON config file and SAVER_* environment
// variables. An empty configFile means ConfigPath(). A missing file is fine.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SAVER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := strings.TrimSpace(configFile)
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Bus = strings.ToLower(strings.TrimSpace(cfg.Bus))
	cfg.Key = strings.TrimSpace(cfg.Key)
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return cfg, nil
}

// SaveConfigValue sets one key in the config file at path, leaving the rest of
// the file alone. The previous file is kept as config.json.bak.
func SaveConfigValue(path, key, value string) error {
	key = strings.TrimSpace(key)
	i := sort.SearchStrings(ConfigKeys, key)
	if i >= len(ConfigKeys) || ConfigKeys[i] != key {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(ConfigKeys, ", "))
	}
	var stored any = value
	switch key {
	case "poll_interval":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid poll_interval: %w", err)
		}
	case "git_commit":
		on, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid git_commit: %w", err)
		}
		stored = on
	}

	raw := map[string]any{}
	prev, err := os.ReadFile(path)
	switch {
	case err == nil && len(prev) > 0:
		if err := json.Unmarshal(prev, &raw); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return err
	}
	raw[key] = stored

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if len(prev) > 0 {
		_ = atomicWriteFile(dir, "config.json.bak.*.tmp", path+".bak", prev, 0o600)
	}
	return atomicWriteFile(dir, "config.json.*.tmp", path, b, 0o600)
}
