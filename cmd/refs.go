package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

func refFlags(kind string) []cli.Flag {
	return withFlags(commonFlags(), listFlags(), []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: fmt.Sprintf("Show only the %s with this short name", kind),
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: fmt.Sprintf("Show only the %s with this identifier", kind),
		},
	})
}

// TagsCmd returns the tags command.
func TagsCmd() *cli.Command {
	return &cli.Command{
		Name:   "tags",
		Usage:  "List tags by the time of the changeset they point to",
		Flags:  refFlags("tag"),
		Action: tagsAction,
	}
}

func tagsAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := ctx.ListOptions(c)
		if err != nil {
			return err
		}

		var tags []vcs.Tag
		switch {
		case c.String("name") != "":
			tag, err := ctx.Repo.GetTagByName(ctx.Ctx, c.String("name"))
			if err != nil {
				return err
			}
			tags = []vcs.Tag{tag}
		case c.String("id") != "":
			tag, err := ctx.Repo.GetTag(ctx.Ctx, c.String("id"))
			if err != nil {
				return err
			}
			tags = []vcs.Tag{tag}
		default:
			if tags, err = ctx.Repo.GetTags(ctx.Ctx, opts); err != nil {
				return err
			}
		}

		refs := make([]vcs.Ref, len(tags))
		for i, t := range tags {
			refs[i] = vcs.Ref(t)
		}
		return writeRefReport(c, &output.RefReport{
			RepoPath:    ctx.RepoPath,
			Kind:        output.RefKindTag,
			Since:       opts.Since,
			GeneratedAt: time.Now(),
			Items:       refs,
		})
	})
}

// BranchesCmd returns the branches command.
func BranchesCmd() *cli.Command {
	return &cli.Command{
		Name:   "branches",
		Usage:  "List branches by the time of the changeset they point to",
		Flags:  refFlags("branch"),
		Action: branchesAction,
	}
}

func branchesAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		opts, err := ctx.ListOptions(c)
		if err != nil {
			return err
		}

		var branches []vcs.Branch
		switch {
		case c.String("name") != "":
			b, err := ctx.Repo.GetBranchByName(ctx.Ctx, c.String("name"))
			if err != nil {
				return err
			}
			branches = []vcs.Branch{b}
		case c.String("id") != "":
			b, err := ctx.Repo.GetBranch(ctx.Ctx, c.String("id"))
			if err != nil {
				return err
			}
			branches = []vcs.Branch{b}
		default:
			if branches, err = ctx.Repo.GetBranches(ctx.Ctx, opts); err != nil {
				return err
			}
		}

		refs := make([]vcs.Ref, len(branches))
		for i, b := range branches {
			refs[i] = vcs.Ref(b)
		}
		return writeRefReport(c, &output.RefReport{
			RepoPath:    ctx.RepoPath,
			Kind:        output.RefKindBranch,
			Since:       opts.Since,
			GeneratedAt: time.Now(),
			Items:       refs,
		})
	})
}
