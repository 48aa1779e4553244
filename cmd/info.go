package cmd

import (
	"errors"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/internal/output"
	"github.com/masmgr/govcs/vcs"
)

// InfoCmd returns the info command.
func InfoCmd() *cli.Command {
	return &cli.Command{
		Name:   "info",
		Usage:  "Show repository name, validity, owner, description and last change",
		Flags:  commonFlags(),
		Action: infoAction,
	}
}

func infoAction(c *cli.Context) error {
	return executeWithContext(c, func(ctx *CommandContext, c *cli.Context) error {
		repo := ctx.Repo

		owner, err := repo.Owner(ctx.Ctx)
		if err != nil && !errors.Is(err, vcs.ErrNotImplemented) {
			return err
		}
		desc, err := repo.Description(ctx.Ctx)
		if err != nil && !errors.Is(err, vcs.ErrNotImplemented) {
			return err
		}

		report := &output.InfoReport{
			RepoPath:    repo.Path(),
			Name:        repo.Name(),
			Backend:     ctx.Backend,
			Valid:       repo.IsValid(ctx.Ctx),
			Owner:       owner,
			Description: desc,
			GeneratedAt: time.Now(),
		}

		last, err := repo.LastChange(ctx.Ctx)
		switch {
		case err == nil:
			item := output.NewChangesetItem(last)
			report.LastChange = &item
		case errors.Is(err, vcs.ErrChangesetNotFound):
			// empty repository
		case report.Valid:
			return err
		}

		return writeInfoReport(c, report)
	})
}
