package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/sqlite"
)

type SessionRepository struct {
	read   sqlx.ExtContext
	write  sqlx.ExtContext
	logger *slog.Logger
}

func NewSessionRepository(dbs *sqlite.Database, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{
		read:   dbs.ReadOnly,
		write:  dbs.ReadWrite,
		logger: logger.With("source", "SessionRepository"),
	}
}

// WithTx returns a copy of the repository that routes every statement through tx.
func (r *SessionRepository) WithTx(tx *sqlx.Tx) *SessionRepository {
	return &SessionRepository{read: tx, write: tx, logger: r.logger}
}

// Get returns the session with the given identifier, or nil when absent.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	stmt := `SELECT session_id, date, chamber, legislature, session_number, source_reference
FROM sessions WHERE session_id = ?`
	if err := sqlx.GetContext(ctx, r.read, &session, stmt, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read session", slog.String("sessionID", sessionID))
	}
	return &session, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	stmt := `INSERT INTO sessions (session_id, date, chamber, legislature, session_number, source_reference)
VALUES (:session_id, :date, :chamber, :legislature, :session_number, :source_reference)`
	if _, err := sqlx.NamedExecContext(ctx, r.write, stmt, session); err != nil {
		return errors.Wrap(err, "insert session", slog.String("sessionID", session.ID))
	}
	return nil
}

// BackfillSourceReference sets the provenance reference on a session that was
// created without one. Sessions are otherwise immutable after creation.
func (r *SessionRepository) BackfillSourceReference(ctx context.Context, sessionID, sourceReference string) error {
	stmt := `UPDATE sessions SET source_reference = ? WHERE session_id = ? AND source_reference = ''`
	if _, err := r.write.ExecContext(ctx, stmt, sourceReference, sessionID); err != nil {
		return errors.Wrap(err, "backfill session source reference", slog.String("sessionID", sessionID))
	}
	return nil
}

// MaxSessionNumber returns the highest materialized session number for a
// legislature. The second return value is false when no session exists yet, which
// incremental discovery treats as "no watermark".
func (r *SessionRepository) MaxSessionNumber(ctx context.Context, legislature int) (int, bool, error) {
	var maxNumber sql.NullInt64
	stmt := `SELECT MAX(session_number) FROM sessions WHERE legislature = ?`
	if err := sqlx.GetContext(ctx, r.read, &maxNumber, stmt, legislature); err != nil {
		return 0, false, errors.Wrap(err, "read session watermark", slog.Int("legislature", legislature))
	}
	if !maxNumber.Valid {
		return 0, false, nil
	}
	return int(maxNumber.Int64), true, nil
}

// SessionNumbers returns every materialized session number for a legislature.
// Fetchers use it to skip already-downloaded sittings without a network probe.
func (r *SessionRepository) SessionNumbers(ctx context.Context, legislature int) (map[int]bool, error) {
	var numbers []int
	stmt := `SELECT session_number FROM sessions WHERE legislature = ? ORDER BY session_number`
	if err := sqlx.SelectContext(ctx, r.read, &numbers, stmt, legislature); err != nil {
		return nil, errors.Wrap(err, "read session numbers", slog.Int("legislature", legislature))
	}
	existing := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		existing[n] = true
	}
	return existing, nil
}
