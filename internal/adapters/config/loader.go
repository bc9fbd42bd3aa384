// Package config provides the configuration loader for hexmap.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// DotEnvFileName is the optional file of HEXMAP_* overrides next to the config file.
const DotEnvFileName = ".env"

// Loader implements ports.ConfigLoader using a YAML file plus environment overrides.
type Loader struct {
	Logger ports.Logger
	// LookupEnv reads process environment variables. Defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// NewLoader creates a new configuration loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{Logger: log, LookupEnv: os.LookupEnv}
}

// Load reads hexmap.yaml from cwd and applies .env and HEXMAP_* overrides.
// A missing file yields the defaults. Relative paths resolve against cwd.
func (l *Loader) Load(cwd string) (domain.Settings, error) {
	raw, err := l.readFile(filepath.Join(cwd, domain.ConfigFileName))
	if err != nil {
		return domain.Settings{}, err
	}

	if err := l.applyEnv(raw, filepath.Join(cwd, DotEnvFileName)); err != nil {
		return domain.Settings{}, err
	}

	s, err := toSettings(raw)
	if err != nil {
		return domain.Settings{}, err
	}

	s.DatabasePath = resolve(cwd, s.DatabasePath)
	s.ViewStatePath = resolve(cwd, s.ViewStatePath)
	return s, nil
}

// readFile parses the YAML file at path into a key/value map.
func (l *Loader) readFile(path string) (map[string]string, error) {
	raw := make(map[string]string)

	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.Logger.Debug("no config file, using defaults", "path", path)
			return raw, nil
		}
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "failed to load config"), "path", path)
	}

	var file Hexmapfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "failed to load config"), "path", path)
	}

	set := func(key, value string) {
		if value != "" {
			raw[key] = value
		}
	}
	set("freshness_window", file.FreshnessWindow)
	set("fetch_timeout", file.FetchTimeout)
	set("move_timeout", file.MoveTimeout)
	if file.PrefetchParallelism != nil {
		set("prefetch_parallelism", strconv.Itoa(*file.PrefetchParallelism))
	}
	set("database_path", file.DatabasePath)
	set("view_state_path", file.ViewStatePath)
	set("redis_url", file.RedisURL)
	set("session_token", file.SessionToken)
	if file.UserID != nil {
		set("user_id", strconv.Itoa(*file.UserID))
	}
	set("log_level", file.LogLevel)
	set("log_format", file.LogFormat)

	return raw, nil
}

// applyEnv overlays the .env file and then the process environment onto raw.
// Process variables win over the .env file.
func (l *Loader) applyEnv(raw map[string]string, dotEnvPath string) error {
	dotEnv, err := godotenv.Read(dotEnvPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "failed to load .env"), "path", dotEnvPath)
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	for _, key := range envKeys {
		name := EnvPrefix + strings.ToUpper(key)
		if v, ok := dotEnv[name]; ok {
			raw[key] = v
		}
		if v, ok := lookup(name); ok {
			raw[key] = v
		}
	}
	return nil
}

// toSettings validates raw values over the defaults.
func toSettings(raw map[string]string) (domain.Settings, error) {
	s := domain.DefaultSettings()

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"freshness_window", &s.FreshnessWindow},
		{"fetch_timeout", &s.FetchTimeout},
		{"move_timeout", &s.MoveTimeout},
	}
	for _, d := range durations {
		v, ok := raw[d.key]
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			return domain.Settings{}, invalid(d.key, v, "expected a non-negative duration")
		}
		*d.dst = parsed
	}

	if v, ok := raw["prefetch_parallelism"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return domain.Settings{}, invalid("prefetch_parallelism", v, "expected a positive integer")
		}
		s.PrefetchParallelism = n
	}

	if v, ok := raw["user_id"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return domain.Settings{}, invalid("user_id", v, "expected a non-negative integer")
		}
		s.UserID = n
	}

	if v, ok := raw["log_format"]; ok {
		switch strings.ToLower(v) {
		case "text", "json":
			s.LogFormat = strings.ToLower(v)
		default:
			return domain.Settings{}, invalid("log_format", v, "expected text or json")
		}
	}

	if v, ok := raw["database_path"]; ok {
		s.DatabasePath = v
	}
	if v, ok := raw["view_state_path"]; ok {
		s.ViewStatePath = v
	}
	if v, ok := raw["redis_url"]; ok {
		s.RedisURL = v
	}
	if v, ok := raw["session_token"]; ok {
		s.SessionToken = v
	}
	if v, ok := raw["log_level"]; ok {
		s.LogLevel = v
	}

	return s, nil
}

func invalid(key, value, reason string) error {
	err := zerr.Wrap(domain.ErrConfigInvalid, "failed to load config")
	err = zerr.With(err, "key", key)
	err = zerr.With(err, "value", value)
	return zerr.With(err, "reason", reason)
}

func resolve(cwd, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cwd, p)
}
