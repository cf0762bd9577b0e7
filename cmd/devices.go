package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/hifisync/internal/audio"
	"github.com/desertthunder/hifisync/internal/repositories"
	"github.com/urfave/cli/v3"
)

// Devices lists the available audio output devices and optionally selects
// one, persisting the choice for future sync runs.
func (r *Runner) Devices(ctx context.Context, cmd *cli.Command) error {
	use := cmd.String("use")

	engine := audio.NewBeepEngine(r.logger)

	if use != "" {
		if err := engine.SelectDevice(use); err != nil {
			return fmt.Errorf("failed to select device: %w", err)
		}

		db, err := r.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		settings := repositories.NewSettingsRepository(db)
		if err := settings.Set(repositories.SettingLastDeviceID, use); err != nil {
			return fmt.Errorf("failed to persist device choice: %w", err)
		}

		r.logger.Info("output device selected", "device", use)
		return r.writePlain("✓ Output device set to %s\n", use)
	}

	r.writePlainHeader("Audio output devices")
	for _, device := range engine.Devices() {
		marker := " "
		if device.Default {
			marker = "*"
		}
		r.writePlain("%s %s (%s)\n", marker, device.Name, device.ID)
	}

	return nil
}
