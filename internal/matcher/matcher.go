// Package matcher resolves free-text transcript speaker labels to canonical
// person records. Resolution runs a fixed cascade of strategies from most to
// least specific and returns on the first confident hit.
package matcher

import (
	"context"
	"log/slog"
	"strings"

	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
)

// unknownSentinel is the literal some transcript sources emit when the speaker
// could not be transcribed at all.
const unknownSentinel = "Unknown"

type indexEntry struct {
	key    string
	tokens []string
	person *models.Person
}

// Outcome describes one resolution attempt.
type Outcome struct {
	// Person is the resolved record, nil when no safe resolution exists.
	Person *models.Person
	// Stage names the strategy that decided the outcome, empty when nothing matched.
	Stage string
	// Ambiguous marks a reduced-confidence match where several candidates
	// survived and the first was taken deterministically.
	Ambiguous bool
	// Candidates holds the full names of all surviving candidates when the
	// outcome was ambiguous or rejected for ambiguity.
	Candidates []string
}

type strategy struct {
	name  string
	apply func(normalized string, tokens []string) Outcome
}

// Matcher holds an in-memory index over the persons table. The index is a cache:
// it goes stale whenever a pipeline stage adds person records, and the
// orchestrator must call Rebuild before the next stage reads it.
type Matcher struct {
	persons    *repositories.PersonRepository
	logger     *slog.Logger
	entries    []indexEntry
	byKey      map[string]*models.Person
	strategies []strategy
}

func NewMatcher(persons *repositories.PersonRepository, logger *slog.Logger) *Matcher {
	m := &Matcher{
		persons: persons,
		logger:  logger.With("source", "Matcher"),
		byKey:   map[string]*models.Person{},
	}
	m.strategies = []strategy{
		{name: "exact", apply: m.matchExact},
		{name: "reversed", apply: m.matchReversed},
		{name: "rotated", apply: m.matchRotated},
		{name: "surname-given", apply: m.matchSurnameGiven},
		{name: "surname-only", apply: m.matchSurnameOnly},
	}
	return m
}

// Rebuild loads every person into the index, replacing previous contents.
func (m *Matcher) Rebuild(ctx context.Context) error {
	persons, err := m.persons.All(ctx)
	if err != nil {
		return err
	}
	m.entries = nil
	m.byKey = make(map[string]*models.Person, 2*len(persons))
	for i := range persons {
		m.Add(&persons[i])
	}
	m.logger.LogAttrs(ctx, slog.LevelDebug, "rebuilt matcher index",
		slog.Int("persons", len(persons)), slog.Int("entries", len(m.entries)))
	return nil
}

// Add indexes one person under every normalized name variant: family+given,
// given+family, and the stored full name. Callers use it to make records created
// mid-run matchable without a full rebuild.
func (m *Matcher) Add(person *models.Person) {
	if person.FamilyName != "" && person.GivenName != "" {
		m.addKey(Normalize(person.FamilyName+" "+person.GivenName), person)
		m.addKey(Normalize(person.GivenName+" "+person.FamilyName), person)
	}
	if person.FullName != "" {
		m.addKey(Normalize(person.FullName), person)
	}
}

func (m *Matcher) addKey(key string, person *models.Person) {
	if key == "" {
		return
	}
	m.entries = append(m.entries, indexEntry{key: key, tokens: strings.Fields(key), person: person})
	m.byKey[key] = person
}

// Match resolves a raw speaker label. A nil Outcome.Person means no safe
// resolution exists; the caller decides whether to fall back to a placeholder.
func (m *Matcher) Match(ctx context.Context, speakerLabel string) Outcome {
	if speakerLabel == "" || speakerLabel == unknownSentinel {
		return Outcome{}
	}

	normalized := Normalize(speakerLabel)
	if normalized == "" {
		return Outcome{}
	}
	tokens := strings.Fields(normalized)

	for _, s := range m.strategies {
		outcome := s.apply(normalized, tokens)
		if outcome.Person != nil {
			outcome.Stage = s.name
			if outcome.Ambiguous {
				m.logger.LogAttrs(ctx, slog.LevelWarn, "ambiguous speaker match, using first candidate",
					slog.String("speaker", speakerLabel),
					slog.String("normalized", normalized),
					slog.String("matched", outcome.Person.FullName),
					slog.Any("candidates", outcome.Candidates))
			}
			return outcome
		}
		if len(outcome.Candidates) > 0 {
			// Too weak to guess among several people; surface them for manual review.
			m.logger.LogAttrs(ctx, slog.LevelDebug, "speaker match rejected as ambiguous",
				slog.String("speaker", speakerLabel),
				slog.String("normalized", normalized),
				slog.String("stage", s.name),
				slog.Any("candidates", outcome.Candidates))
			return Outcome{Stage: s.name, Candidates: outcome.Candidates}
		}
	}

	m.logger.LogAttrs(ctx, slog.LevelDebug, "no match for speaker",
		slog.String("speaker", speakerLabel), slog.String("normalized", normalized))
	return Outcome{}
}

// matchExact looks the whole normalized label up in the index.
func (m *Matcher) matchExact(normalized string, _ []string) Outcome {
	return Outcome{Person: m.byKey[normalized]}
}

// matchReversed retries with the token order flipped, covering "Nome COGNOME"
// against an index keyed "COGNOME Nome" and vice versa.
func (m *Matcher) matchReversed(_ string, tokens []string) Outcome {
	if len(tokens) < 2 {
		return Outcome{}
	}
	reversed := make([]string, len(tokens))
	for i, token := range tokens {
		reversed[len(tokens)-1-i] = token
	}
	return Outcome{Person: m.byKey[strings.Join(reversed, " ")]}
}

// matchRotated tries "last token + rest" and "rest + last token", covering mixed
// surname-first and given-first conventions for multi-word names such as
// "LI Silvana Andreina" against "SILVANA ANDREINA LI".
func (m *Matcher) matchRotated(_ string, tokens []string) Outcome {
	if len(tokens) < 2 {
		return Outcome{}
	}
	rest := strings.Join(tokens[:len(tokens)-1], " ")
	last := tokens[len(tokens)-1]
	if person := m.byKey[last+" "+rest]; person != nil {
		return Outcome{Person: person}
	}
	return Outcome{Person: m.byKey[rest+" "+last]}
}

// matchSurnameGiven collects indexed entries whose first and last tokens equal
// the query's first and last tokens in either order. A single survivor is a
// match; several survivors still resolve to the first by insertion order, but the
// reduced confidence is flagged.
func (m *Matcher) matchSurnameGiven(_ string, tokens []string) Outcome {
	if len(tokens) < 2 {
		return Outcome{}
	}
	surname := tokens[len(tokens)-1]
	firstGiven := tokens[0]

	candidates := m.collectCandidates(func(entryTokens []string) bool {
		if len(entryTokens) < 2 {
			return false
		}
		entryFirst, entryLast := entryTokens[0], entryTokens[len(entryTokens)-1]
		return (entryLast == surname && entryFirst == firstGiven) ||
			(entryFirst == surname && entryLast == firstGiven)
	})

	switch len(candidates) {
	case 0:
		return Outcome{}
	case 1:
		return Outcome{Person: candidates[0]}
	default:
		return Outcome{Person: candidates[0], Ambiguous: true, Candidates: candidateNames(candidates)}
	}
}

// matchSurnameOnly is the weakest stage: it resolves only when exactly one person
// carries the query's last token as surname. Several candidates are never guessed
// among; they are reported back instead.
func (m *Matcher) matchSurnameOnly(_ string, tokens []string) Outcome {
	if len(tokens) < 1 {
		return Outcome{}
	}
	surname := tokens[len(tokens)-1]

	candidates := m.collectCandidates(func(entryTokens []string) bool {
		return len(entryTokens) > 0 && entryTokens[len(entryTokens)-1] == surname
	})

	switch len(candidates) {
	case 0:
		return Outcome{}
	case 1:
		return Outcome{Person: candidates[0]}
	default:
		return Outcome{Candidates: candidateNames(candidates)}
	}
}

// collectCandidates walks the index in insertion order and returns the distinct
// persons whose entry tokens satisfy the predicate. Deduplication matters because
// every person is indexed under several name variants.
func (m *Matcher) collectCandidates(predicate func(entryTokens []string) bool) []*models.Person {
	var candidates []*models.Person
	seen := map[string]bool{}
	for _, entry := range m.entries {
		if !predicate(entry.tokens) || seen[entry.person.ID] {
			continue
		}
		seen[entry.person.ID] = true
		candidates = append(candidates, entry.person)
	}
	return candidates
}

func candidateNames(candidates []*models.Person) []string {
	names := make([]string, len(candidates))
	for i, candidate := range candidates {
		names[i] = candidate.FullName
	}
	return names
}
