package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/openparlamento"
	"github.com/politia/politia/internal/pipeline"
	"github.com/politia/politia/internal/pprofserver"
	"github.com/spf13/cobra"
)

func newFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download source data from remote services",
	}
	cmd.AddCommand(newFetchPersonsCommand())
	cmd.AddCommand(newFetchSessionsCommand())
	return cmd
}

func newFetchPersonsCommand() *cobra.Command {
	var pprofPort string
	cmd := &cobra.Command{
		Use:   "persons",
		Short: "Fetch all person records from the OpenParlamento API",
		Long: `Walks the paginated OpenParlamento persons listing, saves every
detail record to the person data directory, and ingests it into the database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				pprofserver.Launch(pprofPort, a.logger)
				if err := a.openParl.CheckHealth(ctx); err != nil {
					return errors.Wrap(err, "openparlamento api not reachable")
				}
				if err := os.MkdirAll(a.settings.OpenParlamentoDataPath, 0o755); err != nil {
					return errors.Wrap(err, "create person data directory")
				}

				count, err := a.openParl.FetchAllPersons(ctx,
					func(ctx context.Context, record *pipeline.PersonRecord, raw json.RawMessage) error {
						if _, err := openparlamento.SavePersonFile(a.settings.OpenParlamentoDataPath, record, raw); err != nil {
							return err
						}
						return a.personProc.IngestRecord(ctx, record, raw)
					})
				a.logger.Info("person fetch done", "ingested", count)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&pprofPort, "pprof-port", ":6060", "Port for pprof listening on localhost")
	return cmd
}

func newFetchSessionsCommand() *cobra.Command {
	var (
		start, end int
		pprofPort  string
	)
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Fetch a range of sitting transcripts from Camera dei Deputati",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if end < start {
				return errors.New("end must not be smaller than start")
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				pprofserver.Launch(pprofPort, a.logger)
				if err := os.MkdirAll(a.settings.CameraDataPath, 0o755); err != nil {
					return errors.Wrap(err, "create transcript data directory")
				}
				skip, err := a.sessions.SessionNumbers(ctx, a.settings.Legislature)
				if err != nil {
					return err
				}
				count, err := a.camera.FetchRange(ctx, a.settings.CameraDataPath, start, end, skip)
				a.logger.Info("session fetch done", "saved", count)
				return err
			})
		},
	}
	cmd.Flags().IntVar(&start, "start", 1, "First session number to fetch")
	cmd.Flags().IntVar(&end, "end", 1, "Last session number to fetch (inclusive)")
	cmd.Flags().StringVar(&pprofPort, "pprof-port", ":6060", "Port for pprof listening on localhost")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}
