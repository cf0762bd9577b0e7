package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/hifisync/internal/formatter"
	"github.com/desertthunder/hifisync/internal/repositories"
	"github.com/desertthunder/hifisync/internal/shared"
	"github.com/urfave/cli/v3"
)

// mappingRow is the exported projection of a stored mapping for JSON output.
type mappingRow struct {
	SourceID    string    `json:"source_id"`
	SourceTitle string    `json:"source_title"`
	TargetID    string    `json:"target_id"`
	TargetTitle string    `json:"target_title"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MappingsList prints every stored source-to-target track mapping.
func (r *Runner) MappingsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	mappings, err := repositories.NewMappingRepository(db).List()
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}

	if useJSON {
		rows := make([]mappingRow, len(mappings))
		for i, m := range mappings {
			rows[i] = mappingRow{
				SourceID:    m.SourceID(),
				SourceTitle: m.SourceTitle(),
				TargetID:    m.TargetID(),
				TargetTitle: m.TargetTitle(),
				UpdatedAt:   m.UpdatedAt(),
			}
		}
		return r.writeJSON(rows, pretty)
	}

	if len(mappings) == 0 {
		r.writePlain("No stored mappings.\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Track mappings (%d)", len(mappings)))
	for _, m := range mappings {
		r.writePlain("%s → %s\n", m.SourceTitle(), m.TargetTitle())
		r.writePlain("   %s → %s\n", m.SourceID(), m.TargetID())
	}

	return nil
}

// MappingsRemove deletes the mapping for one source track id.
func (r *Runner) MappingsRemove(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.StringArg("source-id")
	if sourceID == "" {
		return fmt.Errorf("%w: source track id", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewMappingRepository(db).Delete(sourceID); err != nil {
		return fmt.Errorf("failed to remove mapping: %w", err)
	}

	r.logger.Info("mapping removed", "source_id", sourceID)
	return r.writePlain("✓ Mapping removed for %s\n", sourceID)
}

// MappingsExport writes every stored mapping to a file in the chosen format.
func (r *Runner) MappingsExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	mappings, err := repositories.NewMappingRepository(db).List()
	if err != nil {
		return fmt.Errorf("failed to list mappings: %w", err)
	}

	path, err := formatter.WriteExport(mappings, format, output)
	if err != nil {
		return err
	}

	r.logger.Info("mappings exported", "format", format, "path", path)
	return r.writePlain("✓ Exported %d mappings to %s\n", len(mappings), path)
}

// MappingsClear deletes every stored mapping.
func (r *Runner) MappingsClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewMappingRepository(db).Clear(); err != nil {
		return fmt.Errorf("failed to clear mappings: %w", err)
	}

	r.logger.Info("mappings cleared")
	return r.writePlain("✓ All mappings cleared\n")
}
