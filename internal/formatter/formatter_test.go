package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/hifisync/internal/models"
)

func testMappings() []*models.Mapping {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return []*models.Mapping{
		models.RestoreMapping("id-1", 1, "spotify:1", "tidal:9", "Holocene", "Holocene", created, created),
		models.RestoreMapping("id-2", 2, "spotify:2", "tidal:8", "Re: Stacks", "re: stacks", created, created),
	}
}

func TestExportToCSV(t *testing.T) {
	t.Run("writes header and one row per mapping", func(t *testing.T) {
		data, err := ExportToCSV(testMappings())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected 3 lines, got %d", len(lines))
		}
		if lines[0] != "SourceID,SourceTitle,TargetID,TargetTitle,UpdatedAt" {
			t.Errorf("unexpected header: %s", lines[0])
		}
		if !strings.Contains(lines[1], "spotify:1,Holocene,tidal:9") {
			t.Errorf("unexpected first row: %s", lines[1])
		}
	})

	t.Run("empty mappings still produce a header", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.HasPrefix(string(data), "SourceID,") {
			t.Errorf("expected header, got %s", string(data))
		}
	})
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(testMappings())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "# Track mappings") {
		t.Error("expected document title")
	}
	if !strings.Contains(result, "**Mappings**: 2") {
		t.Error("expected mapping count")
	}
	if !strings.Contains(result, "| Holocene (`spotify:1`) | Holocene (`tidal:9`) | 2026-03-14 |") {
		t.Errorf("expected table row, got %s", result)
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(testMappings())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	result := string(data)
	if !strings.Contains(result, "Mappings: 2") {
		t.Error("expected mapping count")
	}
	if !strings.Contains(result, "1. Holocene → Holocene") {
		t.Errorf("expected numbered row, got %s", result)
	}
	if !strings.Contains(result, "spotify:2 → tidal:8") {
		t.Errorf("expected id row, got %s", result)
	}
}

func TestWriteExport(t *testing.T) {
	cases := []struct {
		format string
		want   string
	}{
		{"csv", "SourceID,"},
		{"md", "# Track mappings"},
		{"txt", "Mappings: 2"},
	}

	for _, tc := range cases {
		t.Run(tc.format, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out."+tc.format)
			written, err := WriteExport(testMappings(), tc.format, path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if written != path {
				t.Errorf("expected %s, got %s", path, written)
			}

			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read export: %v", err)
			}
			if !strings.Contains(string(content), tc.want) {
				t.Errorf("expected %q in export, got %s", tc.want, content)
			}
		})
	}

	t.Run("rejects unknown format", func(t *testing.T) {
		if _, err := WriteExport(testMappings(), "yaml", ""); err == nil {
			t.Fatal("expected error for unsupported format")
		}
	})
}
