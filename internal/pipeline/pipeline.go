// Package pipeline turns downloaded source files into canonical person,
// session, topic, and speech records. Person ingestion runs before transcript
// ingestion so the speaker matcher resolves against the freshest biographical
// data.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/matcher"
)

// Options selects which stages a pipeline run executes and where each stage
// reads its input from.
type Options struct {
	ProcessPersons     bool
	ProcessTranscripts bool
	PersonsDir         string
	TranscriptsDir     string
}

// Result reports what one run committed. Counts cover committed work only;
// records rolled back after an error are not included.
type Result struct {
	PersonsIngested     int
	TranscriptsIngested int
}

// Pipeline sequences the source processors over a shared store and matcher.
type Pipeline struct {
	persons     *PersonProcessor
	transcripts *TranscriptProcessor
	matcher     *matcher.Matcher
	logger      *slog.Logger
}

func NewPipeline(persons *PersonProcessor, transcripts *TranscriptProcessor, m *matcher.Matcher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		persons:     persons,
		transcripts: transcripts,
		matcher:     m,
		logger:      logger.With("source", "Pipeline"),
	}
}

// Run executes the selected stages in order. A stage failure does not stop the
// stages after it; all stage errors are joined into the returned error and the
// Result still reports whatever committed.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	var (
		result    Result
		stageErrs []error
	)

	if opts.ProcessPersons {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "person ingestion stage starting",
			slog.String("dir", opts.PersonsDir))
		count, err := p.persons.IngestDir(ctx, opts.PersonsDir)
		result.PersonsIngested = count
		if err != nil {
			stageErrs = append(stageErrs, errors.Wrap(err, "person ingestion stage failed"))
		}

		// The matcher indexed the persons table as it stood before this stage;
		// rebuild so the transcript stage sees the new records.
		if err = p.matcher.Rebuild(ctx); err != nil {
			stageErrs = append(stageErrs, errors.Wrap(err, "matcher rebuild failed"))
		}
	}

	if opts.ProcessTranscripts {
		p.logger.LogAttrs(ctx, slog.LevelInfo, "transcript ingestion stage starting",
			slog.String("dir", opts.TranscriptsDir))
		count, err := p.transcripts.IngestDir(ctx, opts.TranscriptsDir)
		result.TranscriptsIngested = count
		if err != nil {
			stageErrs = append(stageErrs, errors.Wrap(err, "transcript ingestion stage failed"))
		}
	}

	p.logger.LogAttrs(ctx, slog.LevelInfo, "pipeline run finished",
		slog.Int("personsIngested", result.PersonsIngested),
		slog.Int("transcriptsIngested", result.TranscriptsIngested),
		slog.Int("stageErrors", len(stageErrs)))
	return result, errors.Join(stageErrs...)
}
