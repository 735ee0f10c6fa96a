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

type TopicRepository struct {
	read   sqlx.ExtContext
	write  sqlx.ExtContext
	logger *slog.Logger
}

func NewTopicRepository(dbs *sqlite.Database, logger *slog.Logger) *TopicRepository {
	return &TopicRepository{
		read:   dbs.ReadOnly,
		write:  dbs.ReadWrite,
		logger: logger.With("source", "TopicRepository"),
	}
}

// WithTx returns a copy of the repository that routes every statement through tx.
func (r *TopicRepository) WithTx(tx *sqlx.Tx) *TopicRepository {
	return &TopicRepository{read: tx, write: tx, logger: r.logger}
}

// Get returns the topic with the given identifier, or nil when absent.
func (r *TopicRepository) Get(ctx context.Context, topicID string) (*models.Topic, error) {
	var topic models.Topic
	stmt := `SELECT topic_id, session_id, title FROM topics WHERE topic_id = ?`
	if err := sqlx.GetContext(ctx, r.read, &topic, stmt, topicID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read topic", slog.String("topicID", topicID))
	}
	return &topic, nil
}

// Create inserts a new topic.
func (r *TopicRepository) Create(ctx context.Context, topic *models.Topic) error {
	stmt := `INSERT INTO topics (topic_id, session_id, title) VALUES (:topic_id, :session_id, :title)`
	if _, err := sqlx.NamedExecContext(ctx, r.write, stmt, topic); err != nil {
		return errors.Wrap(err, "insert topic", slog.String("topicID", topic.ID))
	}
	return nil
}
