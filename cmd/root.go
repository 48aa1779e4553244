package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/config"
	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "govcs",
		Usage:   "Inspect version-control repositories through a backend-neutral API",
		Version: "1.0.0",
		Commands: []*cli.Command{
			InfoCmd(),
			LogCmd(),
			ShowCmd(),
			TagsCmd(),
			BranchesCmd(),
			FilesCmd(),
			LsCmd(),
			InitCmd(),
		},
	}
}

// Common flags shared across commands
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "repo",
			Aliases: []string{"r"},
			Usage:   "Path to the repository",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: fmt.Sprintf("Repository backend (%s; default: from config)", strings.Join(vcs.Backends(), ", ")),
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch history is read from (default: HEAD)",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Log backend activity to stderr",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ndjson)",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
	}
}

// listFlags are shared by commands that list changesets or references.
func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "since",
			Usage: "Only list entries at or after this date (YYYY-MM-DD)",
		},
		&cli.IntFlag{
			Name:    "limit",
			Aliases: []string{"n"},
			Usage:   "Maximum number of entries (0 lists all; default: from config)",
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// parseDateFlag parses a date string flag.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// getOutputFormat parses the output format flag.
func getOutputFormat(s string) (output.OutputFormat, error) {
	switch strings.ToLower(s) {
	case "", "console", "text":
		return output.FormatConsole, nil
	case "json":
		return output.FormatJSON, nil
	case "csv":
		return output.FormatCSV, nil
	case "markdown", "md":
		return output.FormatMarkdown, nil
	case "ndjson", "ci":
		return output.FormatNDJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// loadConfig loads configuration from file or defaults and applies flag
// overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if backend := c.String("backend"); backend != "" {
		cfg.Backend = backend
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}
	if c.Bool("verbose") {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the CLI application. An interrupt cancels in-flight
// repository reads.
func Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := App().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
