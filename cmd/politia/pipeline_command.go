package main

import (
	"context"

	"github.com/politia/politia/internal/pipeline"
	"github.com/spf13/cobra"
)

func newPipelineCommand() *cobra.Command {
	var skipPersons, skipTranscripts bool
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Process downloaded source files into the database",
		Long: `Runs the ingestion pipeline over the downloaded data directories:
person records first, then transcripts, so speeches resolve against the
freshest biographical data.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if err := a.matcher.Rebuild(ctx); err != nil {
					return err
				}
				result, err := a.pipeline.Run(ctx, pipeline.Options{
					ProcessPersons:     !skipPersons,
					ProcessTranscripts: !skipTranscripts,
					PersonsDir:         a.settings.OpenParlamentoDataPath,
					TranscriptsDir:     a.settings.CameraDataPath,
				})
				a.logger.Info("pipeline done",
					"personsIngested", result.PersonsIngested,
					"transcriptsIngested", result.TranscriptsIngested)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&skipPersons, "skip-persons", false, "Skip the person ingestion stage")
	cmd.Flags().BoolVar(&skipTranscripts, "skip-transcripts", false, "Skip the transcript ingestion stage")
	return cmd
}
