package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSetupDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("GAME_SERVER_URL", "")
	t.Setenv("RECONNECT_DELAY", "")

	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ReconnectDelay != time.Second {
		t.Fatalf("ReconnectDelay = %v", cfg.ReconnectDelay)
	}
	if cfg.ServerURL() != DevServerURL {
		t.Fatalf("ServerURL = %q", cfg.ServerURL())
	}
	if cfg.KafkaTopic != "review-events" {
		t.Fatalf("KafkaTopic = %q", cfg.KafkaTopic)
	}
}

func TestSetupFromEnvFile(t *testing.T) {
	for _, key := range []string{"APP_ENV", "GAME_SERVER_URL", "RECONNECT_DELAY", "KAFKA_BROKERS", "NICKNAME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), ".env")
	content := "APP_ENV=production\nGAME_SERVER_URL=wss://go.example.org/ws\nRECONNECT_DELAY=2s\nKAFKA_BROKERS=k1:9092,k2:9092\nNICKNAME=shusaku\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Setup(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL() != "wss://go.example.org/ws" {
		t.Fatalf("ServerURL = %q", cfg.ServerURL())
	}
	if cfg.ReconnectDelay != 2*time.Second {
		t.Fatalf("ReconnectDelay = %v", cfg.ReconnectDelay)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.Nickname != "shusaku" {
		t.Fatalf("Nickname = %q", cfg.Nickname)
	}
}

func TestSetupProductionNeedsURL(t *testing.T) {
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("GAME_SERVER_URL", "")

	if _, err := Setup(""); err == nil {
		t.Fatal("expected error without GAME_SERVER_URL")
	}
}
