package constants

import (
	"os"
	"path/filepath"
)

const (
	// Environment variables
	EnvServerURL = "AG_UI_SERVER"
	EnvTimeout   = "AG_UI_TIMEOUT"
	EnvCacheDir  = "AG_UI_CACHE_DIR"
	EnvLogLevel  = "AG_UI_LOG_LEVEL"

	// Default values
	DefaultTimeoutSeconds = 10
	DefaultHTTPPort       = 80
	DefaultTLSPort        = 443
	DatabaseFileName      = "agui_servers.db"
)

// GetLocalCacheDirectory returns the local cache directory path
func GetLocalCacheDirectory() string {
	if envPath := os.Getenv(EnvCacheDir); envPath != "" {
		return envPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".agui"
	}

	return filepath.Join(homeDir, ".agui")
}

// GetDatabasePath returns the full path to the server registry database file
func GetDatabasePath() string {
	return filepath.Join(GetLocalCacheDirectory(), DatabaseFileName)
}
