package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/config"
	"github.com/masmgr/govcs/internal/logging"
	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

// CommandContext holds common state for command execution.
// It encapsulates the shared setup logic across all repository commands.
type CommandContext struct {
	Ctx      context.Context
	Config   *config.Config
	Log      logrus.FieldLogger
	RepoPath string
	Backend  string
	Repo     vcs.Repository
}

// NewCommandContext loads configuration, sets up logging and opens the
// repository named by the flags.
func NewCommandContext(c *cli.Context) (*CommandContext, error) {
	cmdCtx, err := newCommandContext(c)
	if err != nil {
		return nil, err
	}

	repo, err := vcs.Open(cmdCtx.Ctx, cmdCtx.Backend, cmdCtx.RepoPath, cmdCtx.openOptions(c))
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	cmdCtx.Repo = repo
	cmdCtx.Log.Debug("repository opened")
	return cmdCtx, nil
}

// newCommandContext prepares everything but the repository.
func newCommandContext(c *cli.Context) (*CommandContext, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if _, err := OutputOptions(c); err != nil {
		return nil, err
	}

	logOut := c.App.ErrWriter
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	repoPath := c.String("repo")
	return &CommandContext{
		Ctx:      ctx,
		Config:   cfg,
		RepoPath: repoPath,
		Backend:  cfg.Backend,
		Log: log.WithFields(logrus.Fields{
			logging.CommandFieldKey:    c.Command.Name,
			logging.BackendFieldKey:    cfg.Backend,
			logging.RepositoryFieldKey: repoPath,
		}),
	}, nil
}

func (ctx *CommandContext) openOptions(c *cli.Context) vcs.OpenOptions {
	return vcs.OpenOptions{
		Branch:    c.String("branch"),
		CacheSize: ctx.Config.Cache.Size,
		Logger:    ctx.Log,
	}
}

// ListOptions builds the repository list options from --since and --limit.
// Without --limit the configured default applies.
func (ctx *CommandContext) ListOptions(c *cli.Context) (vcs.ListOptions, error) {
	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return vcs.ListOptions{}, fmt.Errorf("invalid since date: %w", err)
	}

	limit := ctx.Config.Listing.DefaultLimit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}
	if limit < 0 {
		return vcs.ListOptions{}, fmt.Errorf("limit must not be negative, got %d", limit)
	}
	return vcs.ListOptions{Since: since, Limit: limit}, nil
}

// executeWithContext opens the repository and runs fn.
func executeWithContext(c *cli.Context, fn func(ctx *CommandContext, c *cli.Context) error) error {
	ctx, err := NewCommandContext(c)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

// OutputOptions creates OutputOptions from CLI flags.
func OutputOptions(c *cli.Context) (output.OutputOptions, error) {
	format, err := getOutputFormat(c.String("format"))
	if err != nil {
		return output.OutputOptions{}, err
	}
	return output.OutputOptions{
		Format:     format,
		OutputPath: c.String("output"),
	}, nil
}
