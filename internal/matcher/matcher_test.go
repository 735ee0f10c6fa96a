package matcher_test

import (
	"context"
	"io"
	"testing"

	"github.com/politia/politia/internal/matcher"
	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T, persons ...models.Person) *matcher.Matcher {
	t.Helper()

	dbs := testhelpers.NewDatabase(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewPersonRepository(dbs, logger)
	for i := range persons {
		require.NoError(t, repo.Create(context.Background(), &persons[i]))
	}
	m := matcher.NewMatcher(repo, logger)
	require.NoError(t, m.Rebuild(context.Background()))
	return m
}

func person(id, family, given string) models.Person {
	return models.Person{
		ID:         id,
		FullName:   family + " " + given,
		FamilyName: family,
		GivenName:  given,
		Roles:      "[]",
		SourceIDs:  "{}",
		RawData:    "{}",
	}
}

func TestMatch_exact(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, person("op_1", "Rossi", "Mario"))

	outcome := m.Match(context.Background(), "ROSSI Mario")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.Equal(t, "exact", outcome.Stage)
	require.False(t, outcome.Ambiguous)
}

func TestMatch_titleStrippedBeforeLookup(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, person("op_1", "Fontana", "Lorenzo"))

	outcome := m.Match(context.Background(), "PRESIDENTE FONTANA LORENZO")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
}

func TestMatch_reversedOrder(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t,
		person("op_1", "Rossi", "Mario"),
		person("op_2", "Rossi", "Giulia"),
	)

	// "Mario ROSSI" must find Mario, not Giulia.
	outcome := m.Match(context.Background(), "Mario ROSSI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.False(t, outcome.Ambiguous)
}

func TestMatch_rotatedMultiTokenName(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, person("op_1", "Li", "Silvana Andreina"))

	outcome := m.Match(context.Background(), "Silvana Andreina LI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.False(t, outcome.Ambiguous)
}

func TestMatch_rotatedStageOnSingleIndexEntry(t *testing.T) {
	t.Parallel()

	// Only the surname-first full name is indexed, so neither the exact nor the
	// reversed lookup hits and the rotation has to put the surname back in front.
	m := newTestMatcher(t, models.Person{
		ID:        "op_1",
		FullName:  "LI Silvana Andreina",
		Roles:     "[]",
		SourceIDs: "{}",
		RawData:   "{}",
	})

	outcome := m.Match(context.Background(), "Silvana Andreina LI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.Equal(t, "rotated", outcome.Stage)
}

func TestMatch_surnameGivenDisambiguation(t *testing.T) {
	t.Parallel()

	// Middle names differ, so the exact/reversed/rotated stages all miss, but
	// surname plus first given name identify the person uniquely.
	m := newTestMatcher(t,
		person("op_1", "Bianchi", "Anna Maria"),
		person("op_2", "Bianchi", "Paola"),
	)

	outcome := m.Match(context.Background(), "Anna BIANCHI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.Equal(t, "surname-given", outcome.Stage)
	require.False(t, outcome.Ambiguous)
}

func TestMatch_surnameGivenAmbiguousReturnsFirst(t *testing.T) {
	t.Parallel()

	// Two distinct persons share surname and first given name. The stage is
	// specific enough to take the first by insertion order, flagged as ambiguous.
	m := newTestMatcher(t,
		person("op_1", "Verdi", "Anna Maria"),
		person("op_2", "Verdi", "Anna Lucia"),
	)

	outcome := m.Match(context.Background(), "Anna VERDI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_1", outcome.Person.ID)
	require.True(t, outcome.Ambiguous)
	require.Len(t, outcome.Candidates, 2)
}

func TestMatch_surnameOnlyUnique(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t,
		person("op_1", "Rossi", "Mario"),
		person("op_2", "Bianchi", "Paola"),
	)

	outcome := m.Match(context.Background(), "BIANCHI")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_2", outcome.Person.ID)
	require.Equal(t, "surname-only", outcome.Stage)
}

func TestMatch_surnameOnlyAmbiguousIsRejected(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t,
		person("op_1", "Rossi", "Mario"),
		person("op_2", "Rossi", "Giulia"),
	)

	// Bare surname shared by two people must never be guessed.
	outcome := m.Match(context.Background(), "ROSSI")
	require.Nil(t, outcome.Person)
	require.Len(t, outcome.Candidates, 2)
}

func TestMatch_noMatch(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t, person("op_1", "Rossi", "Mario"))

	require.Nil(t, m.Match(context.Background(), "Esposito GENNARO").Person)
	require.Nil(t, m.Match(context.Background(), "").Person)
	require.Nil(t, m.Match(context.Background(), "Unknown").Person)
	require.Nil(t, m.Match(context.Background(), "PRESIDENTE").Person)
}

func TestMatch_fullNameOnlyRecord(t *testing.T) {
	t.Parallel()

	// Placeholder persons may carry only a full name; they are indexed too.
	m := newTestMatcher(t, models.Person{
		ID:        "unknown_MELONI_GIORGIA",
		FullName:  "MELONI Giorgia",
		Roles:     "[]",
		SourceIDs: "{}",
		RawData:   "{}",
	})

	outcome := m.Match(context.Background(), "MELONI Giorgia")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "unknown_MELONI_GIORGIA", outcome.Person.ID)
}

func TestAdd_makesPersonMatchableWithoutRebuild(t *testing.T) {
	t.Parallel()

	m := newTestMatcher(t)
	require.Nil(t, m.Match(context.Background(), "ROSSI Mario").Person)

	p := person("op_9", "Rossi", "Mario")
	m.Add(&p)

	outcome := m.Match(context.Background(), "Mario Rossi")
	require.NotNil(t, outcome.Person)
	require.Equal(t, "op_9", outcome.Person.ID)
}

func TestRebuild_picksUpNewPersons(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewPersonRepository(dbs, logger)
	m := matcher.NewMatcher(repo, logger)
	require.NoError(t, m.Rebuild(context.Background()))

	require.Nil(t, m.Match(context.Background(), "ROSSI Mario").Person)

	p := person("op_1", "Rossi", "Mario")
	require.NoError(t, repo.Create(context.Background(), &p))

	// Index is a cache over the persons table; stale until rebuilt.
	require.Nil(t, m.Match(context.Background(), "ROSSI Mario").Person)
	require.NoError(t, m.Rebuild(context.Background()))
	require.NotNil(t, m.Match(context.Background(), "ROSSI Mario").Person)
}

func TestUnmatchedReport(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	logger := testhelpers.NewLogger(io.Discard)
	repo := repositories.NewPersonRepository(dbs, logger)

	known := person("op_1", "Rossi", "Mario")
	require.NoError(t, repo.Create(context.Background(), &known))
	unknown := models.Person{
		ID:         "unknown_PINCO_PALLINO",
		FullName:   "PINCO Pallino",
		FamilyName: "Pallino",
		GivenName:  "PINCO",
		Roles:      "[]",
		SourceIDs:  "{}",
		RawData:    "{}",
	}
	require.NoError(t, repo.Create(context.Background(), &unknown))

	m := matcher.NewMatcher(repo, logger)
	require.NoError(t, m.Rebuild(context.Background()))

	report, err := m.UnmatchedReport(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.TotalUnmatched)
	require.Len(t, report.Speakers, 1)
	require.Equal(t, "unknown_PINCO_PALLINO", report.Speakers[0].PersonID)
	require.Equal(t, "PINCO PALLINO", report.Speakers[0].Normalized)
}
