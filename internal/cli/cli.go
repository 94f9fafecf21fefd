// Package cli builds the cpmigrate command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/indaco/cpmigrate/internal/central"
	"github.com/indaco/cpmigrate/internal/config"
	"github.com/indaco/cpmigrate/internal/console"
	"github.com/indaco/cpmigrate/internal/core"
	"github.com/indaco/cpmigrate/internal/discovery"
	"github.com/indaco/cpmigrate/internal/migrate"
	"github.com/indaco/cpmigrate/internal/printer"
	"github.com/indaco/cpmigrate/internal/report"
	"github.com/indaco/cpmigrate/internal/tui"
	"github.com/indaco/cpmigrate/internal/version"
	urfavecli "github.com/urfave/cli/v3"
)

// New builds the root command. All file access goes through fs.
func New(fs core.FileSystem) *urfavecli.Command {
	return &urfavecli.Command{
		Name:      "cpmigrate",
		Version:   version.GetVersion(),
		Usage:     "Migrate .NET projects to NuGet Central Package Management",
		ArgsUsage: "[ROOT]",
		Description: "Scans ROOT (default: the current directory) for project files, moves every\n" +
			"PackageReference version into Directory.Packages.props and removes\n" +
			"Update overrides.",
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a .cpmigrate.yaml or .cpmigrate.toml file",
			},
			&urfavecli.StringFlag{
				Name:        "pattern",
				Usage:       "Project file name pattern",
				DefaultText: discovery.DefaultPattern,
			},
			&urfavecli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "Central manifest file name, created in ROOT",
				DefaultText: central.DefaultFilename,
			},
			&urfavecli.StringFlag{
				Name:        "policy",
				Usage:       "Version comparison policy: semver or numeric",
				DefaultText: "semver",
			},
			&urfavecli.BoolFlag{
				Name:  "no-backup",
				Usage: "Overwrite an existing central manifest instead of renaming it to .bak",
			},
			&urfavecli.BoolFlag{
				Name:  "no-transitive-pinning",
				Usage: "Omit CentralPackageTransitivePinningEnabled",
			},
			&urfavecli.StringSliceFlag{
				Name:    "exclude",
				Aliases: []string{"x"},
				Usage:   "Directory name pattern to skip (repeatable)",
			},
			&urfavecli.IntFlag{
				Name:        "max-depth",
				Usage:       "Maximum directory depth to scan",
				DefaultText: "unlimited",
			},
			&urfavecli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Show what would change without writing files",
			},
			&urfavecli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation",
			},
			&urfavecli.StringFlag{
				Name:  "report",
				Usage: "Write a JSON report of the run to `FILE`",
			},
			&urfavecli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&urfavecli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Before: func(ctx context.Context, cmd *urfavecli.Command) (context.Context, error) {
			printer.SetNoColor(cmd.Bool("no-color"))

			level := log.WarnLevel
			if cmd.Bool("verbose") {
				level = log.DebugLevel
			}
			return withLogger(ctx, newLogger(os.Stderr, level)), nil
		},
		Action: func(ctx context.Context, cmd *urfavecli.Command) error {
			return run(ctx, cmd, fs)
		},
	}
}

func run(ctx context.Context, cmd *urfavecli.Command, fs core.FileSystem) error {
	logger := loggerFromContext(ctx)

	if cmd.NArg() > 1 {
		return fmt.Errorf("expected at most one ROOT argument, got %d", cmd.NArg())
	}
	root, err := resolveRoot(cmd.Args().First())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx, cmd, fs, root)
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		logger.Debug("loaded config", "path", cfg.Source)
	}
	tui.SetTheme(cfg.Theme)

	dryRun := cmd.Bool("dry-run")
	var reporterOpts []console.Option
	if tui.IsTTY() {
		reporterOpts = append(reporterOpts, console.WithProgressBar())
	}

	opts := migrate.Options{
		Discovery: discovery.Options{
			Pattern:  cfg.Pattern,
			Excludes: cfg.Exclude,
			MaxDepth: cfg.MaxDepth,
		},
		Central: central.Options{
			Filename:          cfg.Output,
			Backup:            cfg.BackupEnabled(),
			TransitivePinning: cfg.TransitivePinningEnabled(),
		},
		Policy:        cfg.VersionPolicy(),
		MergeExisting: true,
		DryRun:        dryRun,
		Reporter:      console.NewReporter(os.Stdout, reporterOpts...),
		Logger:        logger,
	}
	if !cmd.Bool("yes") && tui.IsInteractive() {
		opts.Confirm = confirmRewrite(cfg.Output)
	}

	m := migrate.New(fs, opts)

	var found *discovery.Result
	err = tui.WithSpinner("Scanning for project files...", func() error {
		var scanErr error
		found, scanErr = m.Discover(ctx, root)
		return scanErr
	})
	if err != nil {
		return err
	}

	summary, err := m.Migrate(ctx, found)
	if errors.Is(err, migrate.ErrAborted) {
		printer.PrintWarning("Aborted, no files were changed.")
		return nil
	}
	if err != nil {
		return err
	}

	if path := cmd.String("report"); path != "" {
		if err := report.Write(ctx, fs, path, summary); err != nil {
			return err
		}
		logger.Debug("report written", "path", path)
	}

	return nil
}

// loadConfig applies flags on top of the file and environment settings.
func loadConfig(ctx context.Context, cmd *urfavecli.Command, fs core.FileSystem, root string) (*config.Config, error) {
	cfg, err := config.Load(ctx, fs, root, cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("pattern") {
		cfg.Pattern = cmd.String("pattern")
	}
	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}
	if cmd.IsSet("policy") {
		cfg.Policy = cmd.String("policy")
	}
	if cmd.Bool("no-backup") {
		disabled := false
		cfg.Backup = &disabled
	}
	if cmd.Bool("no-transitive-pinning") {
		disabled := false
		cfg.TransitivePinning = &disabled
	}
	cfg.Exclude = append(cfg.Exclude, cmd.StringSlice("exclude")...)
	if cmd.IsSet("max-depth") {
		cfg.MaxDepth = int(cmd.Int("max-depth"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func confirmRewrite(output string) migrate.ConfirmFunc {
	return func(files int) (bool, error) {
		ok, err := tui.Confirm(
			fmt.Sprintf("Rewrite %d project files?", files),
			fmt.Sprintf("Package versions will move to %s.", output),
		)
		if tui.IsAborted(err) {
			return false, nil
		}
		return ok, err
	}
}

func resolveRoot(arg string) (string, error) {
	if arg == "" {
		arg = "."
	}
	root, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("cannot resolve root %q: %w", arg, err)
	}
	return root, nil
}
