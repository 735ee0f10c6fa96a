package repositories

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/sqlite"
)

type SpeechRepository struct {
	read   sqlx.ExtContext
	write  sqlx.ExtContext
	logger *slog.Logger
}

func NewSpeechRepository(dbs *sqlite.Database, logger *slog.Logger) *SpeechRepository {
	return &SpeechRepository{
		read:   dbs.ReadOnly,
		write:  dbs.ReadWrite,
		logger: logger.With("source", "SpeechRepository"),
	}
}

// WithTx returns a copy of the repository that routes every statement through tx.
func (r *SpeechRepository) WithTx(tx *sqlx.Tx) *SpeechRepository {
	return &SpeechRepository{read: tx, write: tx, logger: r.logger}
}

// Exists reports whether a speech segment with the given identifier is stored.
// This is the dedup check that makes transcript ingestion idempotent.
func (r *SpeechRepository) Exists(ctx context.Context, speechID string) (bool, error) {
	var count int
	stmt := `SELECT COUNT(*) FROM speech_segments WHERE speech_id = ?`
	if err := sqlx.GetContext(ctx, r.read, &count, stmt, speechID); err != nil {
		return false, errors.Wrap(err, "check speech segment", slog.String("speechID", speechID))
	}
	return count > 0, nil
}

// Create inserts a new speech segment.
func (r *SpeechRepository) Create(ctx context.Context, segment *models.SpeechSegment) error {
	stmt := `INSERT INTO speech_segments (speech_id, session_id, topic_id, speaker_id, text, date,
                             source_reference, order_in_topic)
VALUES (:speech_id, :session_id, :topic_id, :speaker_id, :text, :date, :source_reference, :order_in_topic)`
	if _, err := sqlx.NamedExecContext(ctx, r.write, stmt, segment); err != nil {
		return errors.Wrap(err, "insert speech segment", slog.String("speechID", segment.ID))
	}
	return nil
}

// CountBySession returns the number of stored segments for a session.
func (r *SpeechRepository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var count int
	stmt := `SELECT COUNT(*) FROM speech_segments WHERE session_id = ?`
	if err := sqlx.GetContext(ctx, r.read, &count, stmt, sessionID); err != nil {
		return 0, errors.Wrap(err, "count speech segments", slog.String("sessionID", sessionID))
	}
	return count, nil
}
