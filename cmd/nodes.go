package cmd

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

// FilesCmd returns the files command.
func FilesCmd() *cli.Command {
	return &cli.Command{
		Name:  "files",
		Usage: "List the files of the latest changeset",
		Flags: withFlags(commonFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of files (0 lists all; default: from config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Glob patterns to include (can be specified multiple times)",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob patterns to exclude (can be specified multiple times)",
			},
		}),
		Action: filesAction,
	}
}

func filesAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := ctx.ListOptions(c)
		if err != nil {
			return err
		}

		// The limit applies after filtering.
		files, err := ctx.Repo.GetFiles(ctx.Ctx, 0)
		if err != nil {
			return err
		}
		files = vcs.FilterNodes(files, ctx.Config.Filters.PathFilter())
		files = vcs.LimitNodes(files, opts.Limit)

		revision := ""
		if last, err := ctx.Repo.LastChange(ctx.Ctx); err == nil {
			revision = last.ID()
		}
		return writeNodeReport(c, &output.NodeReport{
			RepoPath:    ctx.RepoPath,
			Revision:    revision,
			GeneratedAt: time.Now(),
			Items:       files,
		})
	})
}

// LsCmd returns the ls command.
func LsCmd() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "Look up a path in a changeset and list a directory's entries",
		ArgsUsage: "[revision] [path]",
		Flags: withFlags(commonFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:    "recursive",
				Aliases: []string{"R"},
				Usage:   "List every node below the directory",
			},
		}),
		Action: lsAction,
	}
}

func lsAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		revision, path := c.Args().Get(0), c.Args().Get(1)

		cs, err := ctx.Repo.GetChangeset(ctx.Ctx, revision)
		if err != nil {
			return err
		}
		node, err := cs.GetNode(ctx.Ctx, path)
		if err != nil {
			return err
		}

		var nodes []vcs.Node
		switch {
		case node.IsFile():
			nodes = []vcs.Node{node}
		case c.Bool("recursive"):
			all, err := cs.Nodes(ctx.Ctx)
			if err != nil {
				return err
			}
			nodes = nodesBelow(all, node.Path)
		default:
			if nodes, err = cs.Children(ctx.Ctx, node.Path); err != nil {
				return err
			}
		}

		return writeNodeReport(c, &output.NodeReport{
			RepoPath:    ctx.RepoPath,
			Revision:    cs.ID(),
			Path:        node.Path,
			GeneratedAt: time.Now(),
			Items:       nodes,
		})
	})
}

// nodesBelow returns the nodes strictly inside dir. The root contains
// every node.
func nodesBelow(nodes []vcs.Node, dir string) []vcs.Node {
	if dir == "" {
		return nodes
	}
	prefix := dir + "/"
	var out []vcs.Node
	for _, n := range nodes {
		if strings.HasPrefix(n.Path, prefix) {
			out = append(out, n)
		}
	}
	return out
}
