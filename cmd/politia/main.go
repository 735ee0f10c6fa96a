package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/politia/politia/internal/camera"
	"github.com/politia/politia/internal/config"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/logging"
	"github.com/politia/politia/internal/matcher"
	"github.com/politia/politia/internal/openparlamento"
	"github.com/politia/politia/internal/pipeline"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/sqlite"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var rootCmd = &cobra.Command{
	Use:           "politia",
	Long:          `Ingestion pipeline for Italian parliamentary open data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

func init() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	rootCmd.AddCommand(newPipelineCommand())
	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newDiscoverCommand())
	rootCmd.AddCommand(newReportCommand())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app wires the store, the matcher, the processors, and the fetchers from one
// loaded configuration.
type app struct {
	settings    config.Settings
	logger      *slog.Logger
	dbs         *sqlite.Database
	persons     *repositories.PersonRepository
	sessions    *repositories.SessionRepository
	topics      *repositories.TopicRepository
	speeches    *repositories.SpeechRepository
	matcher     *matcher.Matcher
	personProc  *pipeline.PersonProcessor
	transcripts *pipeline.TranscriptProcessor
	pipeline    *pipeline.Pipeline
	camera      *camera.Fetcher
	openParl    *openparlamento.Fetcher
}

func newApp(ctx context.Context) (*app, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := newLogger(settings)

	dbs, err := sqlite.NewDatabase(ctx, settings.DatabaseURL, logger)
	if err != nil {
		return nil, err
	}
	dbs.StartOptimizer(ctx)

	a := &app{
		settings: settings,
		logger:   logger,
		dbs:      dbs,
		persons:  repositories.NewPersonRepository(dbs, logger),
		sessions: repositories.NewSessionRepository(dbs, logger),
		topics:   repositories.NewTopicRepository(dbs, logger),
		speeches: repositories.NewSpeechRepository(dbs, logger),
	}
	a.matcher = matcher.NewMatcher(a.persons, logger)
	a.personProc = pipeline.NewPersonProcessor(dbs, a.persons, logger)
	a.transcripts = pipeline.NewTranscriptProcessor(
		dbs, a.sessions, a.topics, a.speeches, a.persons, a.matcher, logger)
	a.pipeline = pipeline.NewPipeline(a.personProc, a.transcripts, a.matcher, logger)

	delay := time.Duration(settings.FetchRateLimitSeconds * float64(time.Second))
	a.camera = camera.NewFetcher(settings.Legislature, delay, logger)
	a.openParl = openparlamento.NewFetcher(settings.OpenParlamentoAPIBase, delay, logger)
	return a, nil
}

func (a *app) Close() {
	if err := a.dbs.Close(); err != nil {
		a.logger.Error("failed to close database", errors.SlogError(err))
	}
}

// withApp runs fn against a fully wired app, closing it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func newLogger(settings config.Settings) *slog.Logger {
	var w io.Writer = os.Stdout
	if settings.LogFile != "" {
		w = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   settings.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return slog.New(logging.NewContextHandler(handler))
}
