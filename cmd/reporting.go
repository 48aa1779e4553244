package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/masmgr/govcs/internal/output"
)

func reportWriter(c *cli.Context) (output.ReportWriter, output.OutputOptions, error) {
	opts, err := OutputOptions(c)
	if err != nil {
		return nil, opts, err
	}
	return output.NewReportWriter(opts.Format), opts, nil
}

func writeInfoReport(c *cli.Context, report *output.InfoReport) error {
	writer, opts, err := reportWriter(c)
	if err != nil {
		return err
	}
	return writer.WriteInfo(report, opts)
}

func writeChangesetReport(c *cli.Context, report *output.ChangesetReport) error {
	writer, opts, err := reportWriter(c)
	if err != nil {
		return err
	}
	return writer.WriteChangesets(report, opts)
}

func writeRefReport(c *cli.Context, report *output.RefReport) error {
	writer, opts, err := reportWriter(c)
	if err != nil {
		return err
	}
	return writer.WriteRefs(report, opts)
}

func writeNodeReport(c *cli.Context, report *output.NodeReport) error {
	writer, opts, err := reportWriter(c)
	if err != nil {
		return err
	}
	return writer.WriteNodes(report, opts)
}
