package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/politia/politia/internal/errors"
	"github.com/spf13/cobra"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect the ingested data",
	}
	cmd.AddCommand(newReportUnmatchedCommand())
	return cmd
}

func newReportUnmatchedCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "unmatched",
		Short: "List speaker labels that never resolved to a known person",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				report, err := a.matcher.UnmatchedReport(ctx)
				if err != nil {
					return err
				}
				payload, err := json.MarshalIndent(report, "", "  ")
				if err != nil {
					return errors.Wrap(err, "marshal unmatched report")
				}
				payload = append(payload, '\n')
				if outPath == "" {
					_, err = cmd.OutOrStdout().Write(payload)
					return err
				}
				if err = os.WriteFile(outPath, payload, 0o644); err != nil {
					return errors.Wrap(err, "write unmatched report")
				}
				a.logger.Info("unmatched report written", "path", outPath, "speakers", len(report.Speakers))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Write the report to a file instead of stdout")
	return cmd
}
