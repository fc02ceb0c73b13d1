package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"MODE", "LISTEN_PORT", "CACHE_HOST", "CACHE_PORT", "CACHE_DB",
		"DIRECTORY_URL", "RECONNECT_GRACE_MS", "DEFAULT_ACTION_TIMEOUT_SEC",
		"AUTH_TOKEN_SECRET", "LOCAL_DIRECTORY_DB_PATH",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaultsToTestMode(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Mode != ModeTest {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, ModeTest)
	}
	if cfg.ListenPort != defaultListenPort {
		t.Fatalf("ListenPort = %d, want %d", cfg.ListenPort, defaultListenPort)
	}
	if cfg.ReconnectGrace != defaultReconnectGrace {
		t.Fatalf("ReconnectGrace = %v, want %v", cfg.ReconnectGrace, defaultReconnectGrace)
	}
	if cfg.DefaultActionTimeoutSec != defaultActionTimeoutSeconds {
		t.Fatalf("DefaultActionTimeoutSec = %d, want %d", cfg.DefaultActionTimeoutSec, defaultActionTimeoutSeconds)
	}
}

func TestFromEnvProdRequiresDirectoryURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "prod")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected an error for MODE=prod without DIRECTORY_URL")
	}

	t.Setenv("DIRECTORY_URL", "https://directory.internal")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Mode != ModeProd {
		t.Fatalf("Mode = %q, want %q", cfg.Mode, ModeProd)
	}
}

func TestFromEnvRejectsUnknownMode(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODE", "bogus")
	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected an error for an unrecognized MODE")
	}
}

func TestFromEnvParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LISTEN_PORT", "9090")
	t.Setenv("RECONNECT_GRACE_MS", "15000")
	t.Setenv("DEFAULT_ACTION_TIMEOUT_SEC", "45")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.ListenPort != 9090 {
		t.Fatalf("ListenPort = %d, want 9090", cfg.ListenPort)
	}
	if cfg.ReconnectGrace != 15*time.Second {
		t.Fatalf("ReconnectGrace = %v, want 15s", cfg.ReconnectGrace)
	}
	if cfg.DefaultActionTimeoutSec != 45 {
		t.Fatalf("DefaultActionTimeoutSec = %d, want 45", cfg.DefaultActionTimeoutSec)
	}
}
