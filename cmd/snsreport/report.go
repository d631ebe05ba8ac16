package main

import (
	"fmt"
	"os"

	"github.com/hyperengineering/snsreport/internal/archive"
	"github.com/hyperengineering/snsreport/internal/narrative"
	"github.com/hyperengineering/snsreport/internal/report"
	"github.com/hyperengineering/snsreport/internal/types"
	"github.com/spf13/cobra"
)

var (
	reportType   string
	reportStart  string
	reportEnd    string
	reportTitle  string
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:     "generate <client-id>",
	Short:   "Generate and store a report for a client",
	Example: "  snsreport report generate 01J... --type monthly_client --start 2025-11-01 --end 2025-11-30 -o november.md",
	Args:    cobra.ExactArgs(1),
	RunE:    runReportGenerate,
}

func init() {
	reportGenerateCmd.Flags().StringVar(&reportType, "type", string(types.ReportMonthlyClient),
		"Report type: monthly_client, weekly_internal")
	reportGenerateCmd.Flags().StringVar(&reportStart, "start", "",
		"Period start (YYYY-MM-DD)")
	reportGenerateCmd.Flags().StringVar(&reportEnd, "end", "",
		"Period end (YYYY-MM-DD)")
	reportGenerateCmd.Flags().StringVar(&reportTitle, "title", "",
		"Report title (default depends on type)")
	reportGenerateCmd.Flags().StringVar(&reportFormat, "format", string(archive.FormatMarkdown),
		"Output format: md, html")
	reportGenerateCmd.Flags().StringVarP(&reportOutput, "output", "o", "",
		"Write the report to this file instead of stdout")
	reportGenerateCmd.MarkFlagRequired("start")
	reportGenerateCmd.MarkFlagRequired("end")

	reportCmd.AddCommand(reportGenerateCmd)
}

func runReportGenerate(cmd *cobra.Command, args []string) error {
	format := archive.Format(reportFormat)
	if format != archive.FormatMarkdown && format != archive.FormatHTML {
		return fmt.Errorf("unknown format %q: want md or html", reportFormat)
	}

	env, err := openOffline(cmd)
	if err != nil {
		return err
	}
	defer env.store.Close()

	archiver, err := archive.New(env.cfg.Archive)
	if err != nil {
		return err
	}
	gen := report.NewGenerator(env.store, narrative.New(env.cfg.Narrative), archiver)

	generated, err := gen.Generate(commandContext(cmd), report.Request{
		ClientID:    args[0],
		Type:        types.ReportType(reportType),
		PeriodStart: reportStart,
		PeriodEnd:   reportEnd,
		Title:       reportTitle,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), generated)
	}

	content := generated.ContentMarkdown
	if format == archive.FormatHTML {
		content = generated.ContentHTML
	}

	if reportOutput == "" {
		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
	if err := os.WriteFile(reportOutput, []byte(content), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report %s written to %s\n", generated.ReportID, reportOutput)
	return nil
}
