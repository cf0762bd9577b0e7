// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles service account linking
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Link Spotify and Tidal accounts",
		Commands: []*cli.Command{
			{
				Name:   "spotify",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthSpotify,
			},
			{
				Name:   "tidal",
				Usage:  "Link a Tidal account with a device code",
				Action: r.AuthTidal,
			},
			{
				Name:   "status",
				Usage:  "Show which accounts are linked",
				Action: r.AuthStatus,
			},
		},
	}
}

// syncCommand runs the playback mirroring loop
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Mirror Spotify playback through Tidal",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-tui",
				Usage: "Run headless with log output instead of the monitor",
			},
		},
		Action: r.Sync,
	}
}

// mappingsCommand manages stored track mappings
func mappingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "mappings",
		Aliases: []string{"map"},
		Usage:   "Manage stored source-to-target track mappings",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored mappings",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.MappingsList,
			},
			{
				Name:  "rm",
				Usage: "Remove the mapping for a source track",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "source-id"},
				},
				Action: r.MappingsRemove,
			},
			{
				Name:  "export",
				Usage: "Export mappings to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format: csv, md, or txt",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.MappingsExport,
			},
			{
				Name:   "clear",
				Usage:  "Remove every stored mapping",
				Action: r.MappingsClear,
			},
		},
	}
}

// configCommand inspects the resolved configuration
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the resolved configuration",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the configuration as TOML",
				Action: r.ConfigShow,
			},
		},
	}
}

// devicesCommand manages audio output devices
func devicesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List and select audio output devices",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "use",
				Usage: "Select an output device by id and remember it",
			},
		},
		Action: r.Devices,
	}
}
