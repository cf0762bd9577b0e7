// package formatter exports stored track mappings to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/hifisync/internal/models"
)

// ExportToCSV converts mappings to CSV format with columns: SourceID, SourceTitle, TargetID, TargetTitle, UpdatedAt
func ExportToCSV(mappings []*models.Mapping) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"SourceID", "SourceTitle", "TargetID", "TargetTitle", "UpdatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, mapping := range mappings {
		record := []string{
			mapping.SourceID(),
			mapping.SourceTitle(),
			mapping.TargetID(),
			mapping.TargetTitle(),
			mapping.UpdatedAt().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts mappings to a Markdown table
func ExportToMarkdown(mappings []*models.Mapping) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Track mappings\n\n")
	buf.WriteString(fmt.Sprintf("**Mappings**: %d\n\n", len(mappings)))

	buf.WriteString("| Source | Target | Updated |\n")
	buf.WriteString("| --- | --- | --- |\n")
	for _, mapping := range mappings {
		buf.WriteString(fmt.Sprintf(
			"| %s (`%s`) | %s (`%s`) | %s |\n",
			mapping.SourceTitle(), mapping.SourceID(),
			mapping.TargetTitle(), mapping.TargetID(),
			mapping.UpdatedAt().Format("2006-01-02"),
		))
	}

	return buf.Bytes(), nil
}

// ExportToText converts mappings to plain text format
func ExportToText(mappings []*models.Mapping) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Mappings: %d\n\n", len(mappings)))
	for i, mapping := range mappings {
		buf.WriteString(fmt.Sprintf("%d. %s → %s\n", i+1, mapping.SourceTitle(), mapping.TargetTitle()))
		buf.WriteString(fmt.Sprintf("   %s → %s\n", mapping.SourceID(), mapping.TargetID()))
	}

	return buf.Bytes(), nil
}

// WriteExport renders mappings in the named format and writes the file.
// Supported formats are "csv", "md" and "txt"; path defaults per format.
func WriteExport(mappings []*models.Mapping, format, path string) (string, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = ExportToCSV(mappings)
		if path == "" {
			path = "mappings.csv"
		}
	case "md", "markdown":
		data, err = ExportToMarkdown(mappings)
		if path == "" {
			path = "mappings.md"
		}
	case "txt", "text":
		data, err = ExportToText(mappings)
		if path == "" {
			path = "mappings.txt"
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}

	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
