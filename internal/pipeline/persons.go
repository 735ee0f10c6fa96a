package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/identity"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/sqlite"
)

// openParlamentoSource prefixes person identifiers derived from OpenParlamento
// records so they can never collide with identifiers from another source.
const openParlamentoSource = "op"

// PersonProcessor ingests biographical records into the persons table.
// Ingestion is idempotent: the same external record always lands on the same
// person row, created once and thereafter only updated.
type PersonProcessor struct {
	dbs     *sqlite.Database
	persons *repositories.PersonRepository
	logger  *slog.Logger
}

func NewPersonProcessor(dbs *sqlite.Database, persons *repositories.PersonRepository, logger *slog.Logger) *PersonProcessor {
	return &PersonProcessor{
		dbs:     dbs,
		persons: persons,
		logger:  logger.With("source", "PersonProcessor"),
	}
}

// IngestRecord upserts one biographical record. raw is the original payload and
// is stored verbatim as the person's supplementary data; pass nil to store the
// re-marshalled record instead.
func (p *PersonProcessor) IngestRecord(ctx context.Context, record *PersonRecord, raw json.RawMessage) error {
	if record.ID <= 0 {
		return errors.Wrap(identity.ErrInvalidKeyInput, "person record without id")
	}
	personID, err := identity.PersonKey(openParlamentoSource, strconv.Itoa(record.ID))
	if err != nil {
		return err
	}

	if raw == nil {
		if raw, err = json.Marshal(record); err != nil {
			return errors.Wrap(err, "marshal person record")
		}
	}

	return p.dbs.InWriteTx(ctx, func(tx *sqlx.Tx) error {
		persons := p.persons.WithTx(tx)
		existing, err := persons.Get(ctx, personID)
		if err != nil {
			return err
		}
		if existing == nil {
			return persons.Create(ctx, newPerson(personID, record, raw))
		}
		updatePerson(existing, record, raw)
		return persons.Update(ctx, existing)
	})
}

// IngestFile ingests one downloaded person JSON file.
func (p *PersonProcessor) IngestFile(ctx context.Context, path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read person file", slog.String("path", path))
	}
	var record PersonRecord
	if err = json.Unmarshal(payload, &record); err != nil {
		return errors.Wrap(ErrRecordParse, "unmarshal person record",
			slog.String("path", path), slog.String("cause", err.Error()))
	}
	return p.IngestRecord(ctx, &record, payload)
}

// IngestDir ingests every person JSON file under dir. One bad record is logged
// and skipped without aborting the batch; the returned count covers only records
// actually committed. An unreadable directory is fatal to the whole run.
func (p *PersonProcessor) IngestDir(ctx context.Context, dir string) (int, error) {
	if _, err := os.Stat(dir); err != nil {
		return 0, errors.Wrap(err, "person data path not accessible", slog.String("dir", dir))
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, errors.Wrap(err, "list person files", slog.String("dir", dir))
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "found person files",
		slog.Int("count", len(files)), slog.String("dir", dir))

	count := 0
	for _, file := range files {
		if err = ctx.Err(); err != nil {
			return count, errors.Wrap(err, "person ingestion cancelled")
		}
		if err = p.IngestFile(ctx, file); err != nil {
			p.logger.LogAttrs(ctx, slog.LevelError, "failed to ingest person file",
				slog.String("path", file), errors.SlogError(err))
			continue
		}
		count++
		if count%50 == 0 {
			p.logger.LogAttrs(ctx, slog.LevelInfo, "person ingestion progress",
				slog.Int("processed", count), slog.Int("total", len(files)))
		}
	}
	p.logger.LogAttrs(ctx, slog.LevelInfo, "person ingestion finished", slog.Int("ingested", count))
	return count, nil
}

func newPerson(personID string, record *PersonRecord, raw json.RawMessage) *models.Person {
	person := models.Person{
		ID:         personID,
		FullName:   strings.TrimSpace(record.FamilyName + " " + record.GivenName),
		FamilyName: record.FamilyName,
		GivenName:  record.GivenName,
		Roles:      "[]",
		BirthDate:  record.BirthDate,
		BirthPlace: record.BirthPlace,
		ImageURL:   record.Image,
		Slug:       record.Slug,
		RawData:    string(raw),
	}

	if parl := record.parlRole(); parl != nil {
		person.Party = parl.Party()
		person.Roles = marshalRoles([]models.Role{{
			Role:      parl.Role,
			StartDate: parl.StartDate,
			EndDate:   parl.EndDate,
			Party:     parl.Party(),
		}})
	}

	person.SourceIDs = marshalSourceIDs(map[string]string{
		"openparlamento": "p" + strconv.Itoa(record.ID),
		"slug":           record.Slug,
	})
	return &person
}

// updatePerson applies fill-in-only semantics: name fields are set only when
// empty, the party is refreshed whenever the record carries one (affiliations
// legitimately change between releases), the source-ID mapping is merged, and
// the raw payload is always replaced as the most recent authoritative copy.
func updatePerson(person *models.Person, record *PersonRecord, raw json.RawMessage) {
	if person.FamilyName == "" {
		person.FamilyName = record.FamilyName
	}
	if person.GivenName == "" {
		person.GivenName = record.GivenName
	}
	if person.FullName == "" {
		person.FullName = strings.TrimSpace(person.FamilyName + " " + person.GivenName)
	}

	if parl := record.parlRole(); parl != nil && parl.Party() != "" {
		person.Party = parl.Party()
	}

	sourceIDs := map[string]string{}
	if err := json.Unmarshal([]byte(person.SourceIDs), &sourceIDs); err != nil || len(sourceIDs) == 0 {
		sourceIDs = map[string]string{"slug": record.Slug}
	}
	sourceIDs["openparlamento"] = "p" + strconv.Itoa(record.ID)
	person.SourceIDs = marshalSourceIDs(sourceIDs)

	person.RawData = string(raw)
}

func (r *PersonRecord) parlRole() *ParlRole {
	if r.CurrentRoles == nil {
		return nil
	}
	return r.CurrentRoles.Parl
}

func marshalRoles(roles []models.Role) string {
	payload, err := json.Marshal(roles)
	if err != nil {
		return "[]"
	}
	return string(payload)
}

func marshalSourceIDs(sourceIDs map[string]string) string {
	payload, err := json.Marshal(sourceIDs)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
