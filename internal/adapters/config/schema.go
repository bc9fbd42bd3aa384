package config

// Hexmapfile represents the structure of the hexmap.yaml configuration file.
// Durations use Go duration syntax ("30s", "1m30s").
type Hexmapfile struct {
	FreshnessWindow     string `yaml:"freshness_window"`
	FetchTimeout        string `yaml:"fetch_timeout"`
	MoveTimeout         string `yaml:"move_timeout"`
	PrefetchParallelism *int   `yaml:"prefetch_parallelism"`
	DatabasePath        string `yaml:"database_path"`
	ViewStatePath       string `yaml:"view_state_path"`
	RedisURL            string `yaml:"redis_url"`
	SessionToken        string `yaml:"session_token"`
	UserID              *int   `yaml:"user_id"`
	LogLevel            string `yaml:"log_level"`
	LogFormat           string `yaml:"log_format"`
}

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "HEXMAP_"

// envKeys maps environment variable suffixes to the YAML keys they override.
var envKeys = []string{
	"freshness_window",
	"fetch_timeout",
	"move_timeout",
	"prefetch_parallelism",
	"database_path",
	"view_state_path",
	"redis_url",
	"session_token",
	"user_id",
	"log_level",
	"log_format",
}
