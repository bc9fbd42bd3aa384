package domain

import (
	"path/filepath"
	"time"
)

const (
	// HexmapDirName is the name of the local state directory.
	HexmapDirName = ".hexmap"

	// DatabaseFileName is the name of the SQLite tile database.
	DatabaseFileName = "tiles.db"

	// ViewStateFileName is the name of the persisted view state file.
	ViewStateFileName = "view_state.json"

	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "hexmap.yaml"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultDatabasePath returns the default path of the tile database.
func DefaultDatabasePath() string {
	return filepath.Join(HexmapDirName, DatabaseFileName)
}

// DefaultViewStatePath returns the default path of the view state file.
func DefaultViewStatePath() string {
	return filepath.Join(HexmapDirName, ViewStateFileName)
}

// Settings configures the engine and its adapters.
type Settings struct {
	// FreshnessWindow is how long a Ready entry satisfies BeginFetch without refetching.
	FreshnessWindow time.Duration
	// FetchTimeout bounds a single shared tile fetch.
	FetchTimeout time.Duration
	// MoveTimeout bounds a drop's move request.
	MoveTimeout time.Duration
	// PrefetchParallelism bounds concurrent child fetches after an expand.
	PrefetchParallelism int

	DatabasePath  string
	ViewStatePath string

	// RedisURL selects the Redis session provider when set.
	RedisURL     string
	SessionToken string
	// UserID is the static signed-in user when no Redis session is configured; 0 means anonymous.
	UserID int

	LogLevel  string
	LogFormat string
}

// DefaultSettings returns the settings used when no configuration is present.
func DefaultSettings() Settings {
	return Settings{
		FreshnessWindow:     30 * time.Second,
		FetchTimeout:        10 * time.Second,
		MoveTimeout:         15 * time.Second,
		PrefetchParallelism: 6,
		DatabasePath:        DefaultDatabasePath(),
		ViewStatePath:       DefaultViewStatePath(),
		LogLevel:            "info",
		LogFormat:           "text",
	}
}

// CurrentStaticUser returns the configured static user.
func (s Settings) CurrentStaticUser() CurrentUser {
	if s.UserID <= 0 {
		return Anonymous
	}
	return UserOf(s.UserID)
}
