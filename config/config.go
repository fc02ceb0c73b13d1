// Package config reads the server's runtime configuration from the
// environment, per spec.md §6.5. Every knob has a sane default except
// DIRECTORY_URL, which MODE=prod requires; AUTH_TOKEN_SECRET may be
// left blank in either mode. Grounded on the teacher's
// authModeFromEnv/authDSNFromEnv idiom.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ModeProd = "prod"
	ModeTest = "test"

	defaultListenPort           = 18080
	defaultCacheHost            = "localhost"
	defaultCachePort            = 6379
	defaultCacheDB              = 0
	defaultReconnectGrace       = 60 * time.Second
	defaultActionTimeoutSeconds = 30
	defaultLocalDirectoryDBPath = "data/holdem_directory.db"
)

// Config is the fully resolved set of runtime knobs a cmd/server
// process needs to wire up its dependencies.
type Config struct {
	Mode string

	ListenPort int

	CacheHost string
	CachePort int
	CacheDB   int

	DirectoryURL string

	ReconnectGrace          time.Duration
	DefaultActionTimeoutSec int

	AuthTokenSecret      string
	LocalDirectoryDBPath string

	// Hand-history Postgres sink, optional even in prod mode: a blank
	// HistoryDBHost leaves hand-history recording disabled rather than
	// failing startup, since it is a best-effort/supplemented feature
	// with no bearing on table correctness.
	HistoryDBHost     string
	HistoryDBPort     string
	HistoryDBName     string
	HistoryDBUser     string
	HistoryDBPassword string
}

// FromEnv resolves Config from the process environment. It fails
// closed: MODE=prod without DIRECTORY_URL, or an unrecognized MODE,
// is an error rather than a silent fallback.
func FromEnv() (Config, error) {
	mode := modeFromEnv()

	cfg := Config{
		Mode:                     mode,
		ListenPort:               intFromEnv("LISTEN_PORT", defaultListenPort),
		CacheHost:                stringFromEnv("CACHE_HOST", defaultCacheHost),
		CachePort:                intFromEnv("CACHE_PORT", defaultCachePort),
		CacheDB:                  intFromEnv("CACHE_DB", defaultCacheDB),
		DirectoryURL:             strings.TrimSpace(os.Getenv("DIRECTORY_URL")),
		ReconnectGrace:           durationMsFromEnv("RECONNECT_GRACE_MS", defaultReconnectGrace),
		DefaultActionTimeoutSec:  intFromEnv("DEFAULT_ACTION_TIMEOUT_SEC", defaultActionTimeoutSeconds),
		AuthTokenSecret:          strings.TrimSpace(os.Getenv("AUTH_TOKEN_SECRET")),
		LocalDirectoryDBPath:     stringFromEnv("LOCAL_DIRECTORY_DB_PATH", defaultLocalDirectoryDBPath),
		HistoryDBHost:            strings.TrimSpace(os.Getenv("HISTORY_DB_HOST")),
		HistoryDBPort:            stringFromEnv("HISTORY_DB_PORT", "5432"),
		HistoryDBName:            stringFromEnv("HISTORY_DB_NAME", "holdem_history"),
		HistoryDBUser:            stringFromEnv("HISTORY_DB_USER", "holdem"),
		HistoryDBPassword:        strings.TrimSpace(os.Getenv("HISTORY_DB_PASSWORD")),
	}

	switch mode {
	case ModeProd:
		if cfg.DirectoryURL == "" {
			return Config{}, fmt.Errorf("config: DIRECTORY_URL is required in MODE=%s", ModeProd)
		}
	case ModeTest:
		// AUTH_TOKEN_SECRET is accepted but unused by LocalDirectory
		// today (tokens are opaque sqlite-issued values, not HMACs);
		// it is still read so a future signed-local-token scheme has
		// nowhere else to add a new env var.
	default:
		return Config{}, fmt.Errorf("config: invalid MODE %q (supported: %s, %s)", mode, ModeProd, ModeTest)
	}

	return cfg, nil
}

func modeFromEnv() string {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("MODE")))
	if raw == "" {
		return ModeTest
	}
	return raw
}

func stringFromEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func durationMsFromEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
