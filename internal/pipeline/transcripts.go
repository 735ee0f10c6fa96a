package pipeline

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/identity"
	"github.com/politia/politia/internal/matcher"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/sqlite"
)

// chamberCamera marks sessions originating from the Camera dei Deputati feed.
const chamberCamera = "C"

// unknownSpeakerLabel is substituted when a transcript carries no speaker at all.
const unknownSpeakerLabel = "Unknown"

// TranscriptProcessor ingests parsed sittings into sessions, topics, and speech
// segments, resolving speaker labels through the matcher. Each unit is processed
// in one transaction: a bad file rolls back wholly and the batch moves on.
type TranscriptProcessor struct {
	dbs      *sqlite.Database
	sessions *repositories.SessionRepository
	topics   *repositories.TopicRepository
	speeches *repositories.SpeechRepository
	persons  *repositories.PersonRepository
	matcher  *matcher.Matcher
	logger   *slog.Logger
}

func NewTranscriptProcessor(
	dbs *sqlite.Database,
	sessions *repositories.SessionRepository,
	topics *repositories.TopicRepository,
	speeches *repositories.SpeechRepository,
	persons *repositories.PersonRepository,
	m *matcher.Matcher,
	logger *slog.Logger,
) *TranscriptProcessor {
	return &TranscriptProcessor{
		dbs:      dbs,
		sessions: sessions,
		topics:   topics,
		speeches: speeches,
		persons:  persons,
		matcher:  m,
		logger:   logger.With("source", "TranscriptProcessor"),
	}
}

// UnitStats summarizes what one ingested unit actually changed in the store.
type UnitStats struct {
	SessionCreated  bool
	TopicsCreated   int
	SegmentsCreated int
	SegmentsSkipped int
}

// IngestUnit upserts one transcript unit. Re-ingesting byte-identical input is a
// no-op: every row is keyed deterministically and existing speech segments are
// skipped.
func (p *TranscriptProcessor) IngestUnit(ctx context.Context, unit *TranscriptUnit, sourceRef string) (UnitStats, error) {
	sessionID, err := identity.SessionKey(unit.Legislature, unit.SessionNumber)
	if err != nil {
		return UnitStats{}, err
	}

	var (
		stats        UnitStats
		placeholders []*models.Person
	)
	err = p.dbs.InWriteTx(ctx, func(tx *sqlx.Tx) error {
		sessions := p.sessions.WithTx(tx)
		topics := p.topics.WithTx(tx)
		speeches := p.speeches.WithTx(tx)
		persons := p.persons.WithTx(tx)

		session, err := sessions.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			session = &models.Session{
				ID:              sessionID,
				Date:            p.sessionDate(ctx, unit),
				Chamber:         chamberCamera,
				Legislature:     unit.Legislature,
				SessionNumber:   unit.SessionNumber,
				SourceReference: sourceRef,
			}
			if err = sessions.Create(ctx, session); err != nil {
				return err
			}
			stats.SessionCreated = true
		} else if session.SourceReference == "" && sourceRef != "" {
			if err = sessions.BackfillSourceReference(ctx, sessionID, sourceRef); err != nil {
				return err
			}
		}

		// Interventions are ordered within a topic; topics themselves are not,
		// so sort the titles for a stable processing order.
		titles := make([]string, 0, len(unit.Contents))
		for title := range unit.Contents {
			titles = append(titles, title)
		}
		sort.Strings(titles)

		for _, title := range titles {
			interventions := unit.Contents[title]
			if strings.TrimSpace(title) == "" || len(interventions) == 0 {
				continue
			}

			topicID, err := identity.TopicKey(sessionID, title)
			if err != nil {
				return err
			}
			topic, err := topics.Get(ctx, topicID)
			if err != nil {
				return err
			}
			if topic == nil {
				topic = &models.Topic{ID: topicID, SessionID: sessionID, Title: title}
				if err = topics.Create(ctx, topic); err != nil {
					return err
				}
				stats.TopicsCreated++
			}

			for ordinal, intervention := range interventions {
				text := strings.TrimSpace(intervention.Text)
				if text == "" {
					continue
				}

				speaker, created, err := p.resolveSpeaker(ctx, persons, intervention.Speaker)
				if err != nil {
					return err
				}
				if created {
					placeholders = append(placeholders, speaker)
				}

				speechID, err := identity.SpeechKey(topicID, ordinal, intervention.Text)
				if err != nil {
					return err
				}
				exists, err := speeches.Exists(ctx, speechID)
				if err != nil {
					return err
				}
				if exists {
					stats.SegmentsSkipped++
					continue
				}

				segment := models.SpeechSegment{
					ID:              speechID,
					SessionID:       sessionID,
					TopicID:         sql.NullString{String: topicID, Valid: true},
					SpeakerID:       sql.NullString{String: speaker.ID, Valid: true},
					Text:            intervention.Text,
					Date:            session.Date,
					SourceReference: sourceRef,
					OrderInTopic:    ordinal,
				}
				if err = speeches.Create(ctx, &segment); err != nil {
					return err
				}
				stats.SegmentsCreated++
			}
		}
		return nil
	})
	if err != nil {
		return UnitStats{}, err
	}

	// Placeholder persons become matchable only after their transaction has
	// committed, so a rolled-back file never leaves phantom index entries.
	for _, placeholder := range placeholders {
		p.matcher.Add(placeholder)
	}
	return stats, nil
}

// IngestFile ingests one downloaded transcript unit file.
func (p *TranscriptProcessor) IngestFile(ctx context.Context, path string) (UnitStats, error) {
	unit, err := ReadUnitFile(path)
	if err != nil {
		return UnitStats{}, err
	}
	return p.IngestUnit(ctx, unit, path)
}

// IngestDir ingests every transcript unit file under dir. A bad file is logged,
// its partial writes roll back, and the batch continues; the returned count
// covers only files fully committed. An unreadable directory is fatal.
func (p *TranscriptProcessor) IngestDir(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, errors.Wrap(err, "transcript data path not accessible", slog.String("dir", dir))
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, errors.Wrap(err, "list transcript files", slog.String("dir", dir))
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "found transcript files",
		slog.Int("count", len(files)), slog.String("dir", dir))

	count := 0
	for _, file := range files {
		if err = ctx.Err(); err != nil {
			return count, errors.Wrap(err, "transcript ingestion cancelled")
		}
		stats, err := p.IngestFile(ctx, file)
		if err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "failed to ingest transcript file",
				slog.String("path", file), errors.SlogError(err))
			continue
		}
		count++
		p.logger.LogAttrs(ctx, slog.LevelDebug, "ingested transcript file",
			slog.String("path", file),
			slog.Int("segmentsCreated", stats.SegmentsCreated),
			slog.Int("segmentsSkipped", stats.SegmentsSkipped))
		if count%10 == 0 {
			p.logger.LogAttrs(ctx, slog.LevelInfo, "transcript ingestion progress",
				slog.Int("processed", count), slog.Int("total", len(files)))
		}
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "transcript ingestion finished", slog.Int("ingested", count))
	return count, nil
}

// resolveSpeaker matches the label against the index, falling back to a
// deterministic placeholder person so the same unresolved name always maps to
// the same row across runs.
func (p *TranscriptProcessor) resolveSpeaker(
	ctx context.Context,
	persons *repositories.PersonRepository,
	label string,
) (person *models.Person, created bool, err error) {
	if strings.TrimSpace(label) == "" {
		label = unknownSpeakerLabel
	}

	if outcome := p.matcher.Match(ctx, label); outcome.Person != nil {
		return outcome.Person, false, nil
	}

	normalized := matcher.Normalize(label)
	if normalized == "" {
		// Labels made of titles only, such as a bare "PRESIDENTE", keep the
		// title in their placeholder identity.
		normalized = matcher.Fold(label)
	}
	if normalized == "" {
		normalized = strings.ToUpper(unknownSpeakerLabel)
	}
	personID, err := identity.UnknownSpeakerKey(normalized)
	if err != nil {
		return nil, false, err
	}

	person, err = persons.Get(ctx, personID)
	if err != nil {
		return nil, false, err
	}
	if person != nil {
		return person, false, nil
	}

	person = &models.Person{
		ID:        personID,
		FullName:  label,
		Roles:     "[]",
		SourceIDs: "{}",
		RawData:   "{}",
	}
	if fields := strings.Fields(label); len(fields) > 0 {
		person.FamilyName = fields[len(fields)-1]
		if len(fields) > 1 {
			person.GivenName = fields[0]
		}
	} else {
		person.FamilyName = label
	}
	if err = persons.Create(ctx, person); err != nil {
		return nil, false, err
	}
	p.logger.LogAttrs(ctx, slog.LevelDebug, "created placeholder for unresolved speaker",
		slog.String("speaker", label), slog.String("personID", personID))
	return person, true, nil
}

// sessionDate parses the unit's date, falling back to the processing day when
// the source carried none.
func (p *TranscriptProcessor) sessionDate(ctx context.Context, unit *TranscriptUnit) time.Time {
	if unit.Date != "" {
		if parsed, err := time.Parse("2006-01-02", unit.Date); err == nil {
			return parsed
		}
		p.logger.LogAttrs(ctx, slog.LevelWarn, "unparseable session date, using processing day",
			slog.String("date", unit.Date),
			slog.Int("sessionNumber", unit.SessionNumber))
	}
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
