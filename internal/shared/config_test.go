package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "hifisync.db" {
			t.Errorf("expected database path hifisync.db, got %s", config.Database.Path)
		}

		if !config.Sync.MuteSource {
			t.Error("expected mute_source to default to true")
		}

		if config.Sync.AutoFavorite {
			t.Error("expected auto_favorite to default to false")
		}

		if got := config.Sync.PollInterval(); got != time.Second {
			t.Errorf("expected default poll interval 1s, got %v", got)
		}

		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("unexpected default redirect URI %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[sync]
poll_interval_ms = 250
mute_source = false
auto_favorite = true

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[credentials.tidal]
client_id = "tidal_client"

[audio]
device = "alsa:hw:1"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if got := config.Sync.PollInterval(); got != 250*time.Millisecond {
			t.Errorf("expected poll interval 250ms, got %v", got)
		}

		if config.Sync.MuteSource {
			t.Error("expected mute_source false")
		}

		if config.Credentials.Tidal.ClientID != "tidal_client" {
			t.Errorf("expected tidal client_id tidal_client, got %s", config.Credentials.Tidal.ClientID)
		}

		if config.Audio.Device != "alsa:hw:1" {
			t.Errorf("expected audio device alsa:hw:1, got %s", config.Audio.Device)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
