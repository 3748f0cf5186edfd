package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"attendance-tracker/internal/domain"
	"attendance-tracker/internal/export"
)

// operator is the identity reports run as from the command line.
var operator = domain.Caller{UserID: "attendctl", Name: "attendctl", Role: domain.RoleAdmin}

type reportOptions struct {
	From string
	To   string
}

// NewReportCommand prints one report for a date range.
func NewReportCommand(rootOpts *RootOptions, open Opener) *cobra.Command {
	opts := &reportOptions{}

	cmd := &cobra.Command{
		Use:       "report <mode>",
		Short:     "Print a report over verified records",
		Long:      fmt.Sprintf("Print a report over verified records.\n\nModes: %v", domain.ReportModes),
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportModeNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, rootOpts, opts, open, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.From, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.To, "to", "", "last day, YYYY-MM-DD (inclusive)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runReport(cmd *cobra.Command, rootOpts *RootOptions, opts *reportOptions, open Opener, modeArg string) error {
	mode, err := domain.ParseReportMode(modeArg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	env, err := open(ctx, rootOpts, newLogger(cmd.ErrOrStderr(), rootOpts.Verbose))
	if err != nil {
		return err
	}
	defer env.Close()

	dr, err := domain.ParseDateRange(opts.From, opts.To, env.Location)
	if err != nil {
		return err
	}
	report, err := env.Reports.Run(ctx, operator, mode, dr)
	if err != nil {
		return err
	}

	format := export.FormatText
	if rootOpts.Format == "json" {
		format = export.FormatJSON
	}
	return export.Write(cmd.OutOrStdout(), report, format)
}

func reportModeNames() []string {
	names := make([]string, len(domain.ReportModes))
	for i, m := range domain.ReportModes {
		names[i] = string(m)
	}
	return names
}
