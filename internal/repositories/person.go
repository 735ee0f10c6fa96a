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

const unknownSpeakerPrefix = "unknown_"

type PersonRepository struct {
	read   sqlx.ExtContext
	write  sqlx.ExtContext
	logger *slog.Logger
}

func NewPersonRepository(dbs *sqlite.Database, logger *slog.Logger) *PersonRepository {
	return &PersonRepository{
		read:   dbs.ReadOnly,
		write:  dbs.ReadWrite,
		logger: logger.With("source", "PersonRepository"),
	}
}

// WithTx returns a copy of the repository that routes every statement through tx.
// Lookups inside an ingestion transaction must see the transaction's own
// uncommitted writes, so reads are redirected too.
func (r *PersonRepository) WithTx(tx *sqlx.Tx) *PersonRepository {
	return &PersonRepository{read: tx, write: tx, logger: r.logger}
}

// Get returns the person with the given identifier, or nil when absent.
func (r *PersonRepository) Get(ctx context.Context, personID string) (*models.Person, error) {
	var person models.Person
	stmt := `SELECT person_id, full_name, family_name, given_name, party, roles, source_ids,
       birth_date, birth_place, image_url, slug, raw_data
FROM persons WHERE person_id = ?`
	if err := sqlx.GetContext(ctx, r.read, &person, stmt, personID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read person", slog.String("personID", personID))
	}
	return &person, nil
}

// All returns every person in insertion order. The matcher index depends on the
// ordering being stable so that reduced-confidence matches are deterministic.
func (r *PersonRepository) All(ctx context.Context) ([]models.Person, error) {
	var persons []models.Person
	stmt := `SELECT person_id, full_name, family_name, given_name, party, roles, source_ids,
       birth_date, birth_place, image_url, slug, raw_data
FROM persons ORDER BY rowid`
	if err := sqlx.SelectContext(ctx, r.read, &persons, stmt); err != nil {
		return nil, errors.Wrap(err, "read persons")
	}
	return persons, nil
}

// Create inserts a new person.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	stmt := `INSERT INTO persons (person_id, full_name, family_name, given_name, party, roles,
                     source_ids, birth_date, birth_place, image_url, slug, raw_data)
VALUES (:person_id, :full_name, :family_name, :given_name, :party, :roles,
        :source_ids, :birth_date, :birth_place, :image_url, :slug, :raw_data)`
	if _, err := sqlx.NamedExecContext(ctx, r.write, stmt, person); err != nil {
		return errors.Wrap(err, "insert person", slog.String("personID", person.ID))
	}
	return nil
}

// Update overwrites every mutable field of an existing person. Which fields may
// legitimately change is the ingestion layer's decision; the repository persists
// whatever it is handed.
func (r *PersonRepository) Update(ctx context.Context, person *models.Person) error {
	stmt := `UPDATE persons
SET full_name   = :full_name,
    family_name = :family_name,
    given_name  = :given_name,
    party       = :party,
    roles       = :roles,
    source_ids  = :source_ids,
    birth_date  = :birth_date,
    birth_place = :birth_place,
    image_url   = :image_url,
    slug        = :slug,
    raw_data    = :raw_data
WHERE person_id = :person_id`
	if _, err := sqlx.NamedExecContext(ctx, r.write, stmt, person); err != nil {
		return errors.Wrap(err, "update person", slog.String("personID", person.ID))
	}
	return nil
}

// ListUnknown returns the placeholder persons created for unresolved speaker
// labels, in insertion order.
func (r *PersonRepository) ListUnknown(ctx context.Context) ([]models.Person, error) {
	var persons []models.Person
	stmt := `SELECT person_id, full_name, family_name, given_name, party, roles, source_ids,
       birth_date, birth_place, image_url, slug, raw_data
FROM persons WHERE person_id LIKE ? ORDER BY rowid`
	if err := sqlx.SelectContext(ctx, r.read, &persons, stmt, unknownSpeakerPrefix+"%"); err != nil {
		return nil, errors.Wrap(err, "read unknown speakers")
	}
	return persons, nil
}
