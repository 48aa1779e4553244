package cmd

import (
	"runtime"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

// LogCmd returns the log command.
func LogCmd() *cli.Command {
	return &cli.Command{
		Name:    "log",
		Aliases: []string{"l"},
		Usage:   "List changesets, most recent first",
		Flags: withFlags(commonFlags(), listFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "size",
				Usage: "Compute the total file size of every listed changeset",
			},
		}),
		Action: logAction,
	}
}

func logAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := ctx.ListOptions(c)
		if err != nil {
			return err
		}

		changesets, err := ctx.Repo.GetChangesets(ctx.Ctx, opts)
		if err != nil {
			return err
		}
		ctx.Log.WithField("count", len(changesets)).Debug("changesets listed")

		items := make([]output.ChangesetItem, len(changesets))
		for i, cs := range changesets {
			items[i] = output.NewChangesetItem(cs)
		}
		if c.Bool("size") {
			if err := computeSizes(ctx, changesets, items); err != nil {
				return err
			}
		}

		return writeChangesetReport(c, &output.ChangesetReport{
			RepoPath:    ctx.RepoPath,
			Since:       opts.Since,
			GeneratedAt: time.Now(),
			Items:       items,
		})
	})
}

// computeSizes loads the trees of changesets in parallel and records each
// total size in the matching item.
func computeSizes(ctx *CommandContext, changesets []vcs.Changeset, items []output.ChangesetItem) error {
	g, gctx := errgroup.WithContext(ctx.Ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, cs := range changesets {
		i, cs := i, cs
		g.Go(func() error {
			size, err := cs.Size(gctx)
			if err != nil {
				return err
			}
			items[i].Size = &size
			return nil
		})
	}
	return g.Wait()
}

// ShowCmd returns the show command.
func ShowCmd() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one changeset with its size and node counts",
		ArgsUsage: "[revision]",
		Flags:     commonFlags(),
		Action:    showAction,
	}
}

func showAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		cs, err := ctx.Repo.GetChangeset(ctx.Ctx, c.Args().First())
		if err != nil {
			return err
		}

		size, err := cs.Size(ctx.Ctx)
		if err != nil {
			return err
		}
		files, err := cs.Files(ctx.Ctx)
		if err != nil {
			return err
		}
		dirs, err := cs.Dirs(ctx.Ctx)
		if err != nil {
			return err
		}
		fileCount, dirCount := len(files), len(dirs)

		item := output.NewChangesetItem(cs)
		item.Size = &size
		item.FileCount = &fileCount
		item.DirCount = &dirCount

		return writeChangesetReport(c, &output.ChangesetReport{
			RepoPath:    ctx.RepoPath,
			GeneratedAt: time.Now(),
			Items:       []output.ChangesetItem{item},
		})
	})
}
