package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"
)

// ConfigShow prints the resolved configuration as TOML.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	data, err := toml.Marshal(r.config)
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}

	return r.writePlain("%s", string(data))
}
