package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/internal/logging"
	"github.com/masmgr/govcs/vcs"
)

// InitCmd returns the init command.
func InitCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create an empty repository",
		ArgsUsage: "<path>",
		Flags: withFlags(commonFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "bare",
				Usage: "Create a repository without a working tree",
			},
		}),
		Action: initAction,
	}
}

func initAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("init expects exactly one path argument")
	}
	path := c.Args().First()

	ctx, err := newCommandContext(c)
	if err != nil {
		return err
	}
	ctx.RepoPath = path
	ctx.Log = ctx.Log.WithField(logging.RepositoryFieldKey, path)

	opts := ctx.openOptions(c)
	if _, err := vcs.Open(ctx.Ctx, ctx.Backend, path, opts); err == nil {
		return fmt.Errorf("repository already exists at %s", path)
	} else if !errors.Is(err, vcs.ErrRepositoryNotFound) {
		return err
	}

	opts.Create = true
	opts.Bare = c.Bool("bare")
	repo, err := vcs.Open(ctx.Ctx, ctx.Backend, path, opts)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}
	ctx.Log.WithField("bare", opts.Bare).Info("repository created")

	fmt.Fprintf(c.App.Writer, "Initialized empty %s repository %q at %s\n", ctx.Backend, repo.Name(), repo.Path())
	return nil
}
