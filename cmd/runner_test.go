package main

import (
	"bytes"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/hifisync/internal/models"
	"github.com/desertthunder/hifisync/internal/repositories"
	"github.com/desertthunder/hifisync/internal/shared"
	tu "github.com/desertthunder/hifisync/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{HTTPClient: nil})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
		})
	})

	t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlainln("done"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if output.String() != "\ndone\n" {
			t.Errorf("expected newline-wrapped text, got %q", output.String())
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		if len(commands) != 6 {
			t.Fatalf("expected 6 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "sync", "mappings", "devices", "config"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})
}

// newTestRunner builds a runner backed by a sqlite file in a temp directory.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "hifisync.db")
	config := shared.DefaultConfig()
	config.Database.Path = dbPath

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})

	return runner, output, dbPath
}

func runCommand(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	root := &cli.Command{Name: "hifisync", Commands: runner.register()}
	return root.Run(context.Background(), append([]string{"hifisync"}, args...))
}

func seedMapping(t *testing.T, runner *Runner, sourceID, targetID string) {
	t.Helper()

	db, err := runner.openDatabase()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	mapping := models.NewMapping(sourceID, targetID, "Source Song", "Target Song")
	if err := repositories.NewMappingRepository(db).Put(mapping); err != nil {
		t.Fatalf("failed to seed mapping: %v", err)
	}
}

func TestMappingsCommands(t *testing.T) {
	t.Run("list with no mappings", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := runCommand(t, runner, "mappings", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "No stored mappings") {
			t.Errorf("expected empty-state message, got %q", output.String())
		}
	})

	t.Run("list prints stored mappings", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedMapping(t, runner, "spotify:1", "tidal:9")

		if err := runCommand(t, runner, "mappings", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, "Source Song → Target Song") {
			t.Errorf("expected mapping titles, got %q", result)
		}
		if !strings.Contains(result, "spotify:1 → tidal:9") {
			t.Errorf("expected mapping ids, got %q", result)
		}
	})

	t.Run("list emits JSON rows", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedMapping(t, runner, "spotify:1", "tidal:9")

		if err := runCommand(t, runner, "mappings", "list", "--json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		result := output.String()
		if !strings.Contains(result, `"source_id":"spotify:1"`) {
			t.Errorf("expected JSON source id, got %q", result)
		}
		if !strings.Contains(result, `"target_id":"tidal:9"`) {
			t.Errorf("expected JSON target id, got %q", result)
		}
	})

	t.Run("rm deletes one mapping", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedMapping(t, runner, "spotify:1", "tidal:9")

		if err := runCommand(t, runner, "mappings", "rm", "spotify:1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Mapping removed") {
			t.Errorf("expected removal confirmation, got %q", output.String())
		}

		output.Reset()
		if err := runCommand(t, runner, "mappings", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No stored mappings") {
			t.Errorf("expected empty list after rm, got %q", output.String())
		}
	})

	t.Run("rm on unknown id fails", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		if err := runCommand(t, runner, "mappings", "rm", "missing"); err == nil {
			t.Fatal("expected error for unknown mapping")
		}
	})

	t.Run("export writes a CSV file", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedMapping(t, runner, "spotify:1", "tidal:9")

		exportPath := filepath.Join(t.TempDir(), "mappings.csv")
		if err := runCommand(t, runner, "mappings", "export", "--output", exportPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "Exported 1 mappings") {
			t.Errorf("expected export confirmation, got %q", output.String())
		}
		if !strings.Contains(tu.MustReadFile(t, exportPath), "spotify:1,Source Song,tidal:9") {
			t.Error("expected mapping row in CSV export")
		}
	})

	t.Run("clear removes everything", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)
		seedMapping(t, runner, "spotify:1", "tidal:9")
		seedMapping(t, runner, "spotify:2", "tidal:8")

		if err := runCommand(t, runner, "mappings", "clear"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		output.Reset()
		if err := runCommand(t, runner, "mappings", "list"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "No stored mappings") {
			t.Errorf("expected empty list after clear, got %q", output.String())
		}
	})
}

func TestSetupCommand(t *testing.T) {
	wd := tu.MustGetwd(t)
	defer tu.MustChdir(t, wd)

	dir := t.TempDir()
	tu.MustChdir(t, dir)

	runner, output, _ := newTestRunner(t)
	configPath := filepath.Join(dir, "config.toml")

	if err := runCommand(t, runner, "setup", "--config", configPath); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tu.AssertFileExists(t, configPath)
	if !strings.Contains(tu.MustReadFile(t, configPath), "[credentials.spotify]") {
		t.Error("expected template config to contain spotify credentials section")
	}
	if !strings.Contains(output.String(), "Setup complete") {
		t.Errorf("expected setup confirmation, got %q", output.String())
	}
}

func TestConfigShowCommand(t *testing.T) {
	runner, output, _ := newTestRunner(t)

	if err := runCommand(t, runner, "config", "show"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result := output.String()
	if !strings.Contains(result, "poll_interval_ms") {
		t.Errorf("expected sync options in output, got %q", result)
	}
	if !strings.Contains(result, "[database]") {
		t.Errorf("expected database section in output, got %q", result)
	}
}

func TestDevicesCommand(t *testing.T) {
	t.Run("lists the default device", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := runCommand(t, runner, "devices"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !strings.Contains(output.String(), "default") {
			t.Errorf("expected default device in listing, got %q", output.String())
		}
	})

	t.Run("use persists the selection", func(t *testing.T) {
		runner, output, _ := newTestRunner(t)

		if err := runCommand(t, runner, "devices", "--use", "default"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Output device set") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		db, err := runner.openDatabase()
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		stored, err := repositories.NewSettingsRepository(db).Get(repositories.SettingLastDeviceID, "")
		if err != nil {
			t.Fatalf("failed to read setting: %v", err)
		}
		if stored != "default" {
			t.Errorf("expected persisted device id, got %q", stored)
		}
	})

	t.Run("use rejects unknown device", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)

		if err := runCommand(t, runner, "devices", "--use", "hdmi-7"); err == nil {
			t.Fatal("expected error for unknown device id")
		}
	})
}
