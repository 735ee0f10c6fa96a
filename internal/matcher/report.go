package matcher

import (
	"context"

	"github.com/politia/politia/internal/errors"
)

// UnmatchedSpeaker is one placeholder person awaiting manual reconciliation.
type UnmatchedSpeaker struct {
	PersonID   string `json:"person_id"`
	FullName   string `json:"full_name"`
	Normalized string `json:"normalized"`
	FamilyName string `json:"family_name"`
	GivenName  string `json:"given_name"`
}

// UnmatchedReport lists every speaker label that resolution could not link to a
// canonical person.
type UnmatchedReport struct {
	TotalUnmatched int                `json:"total_unmatched"`
	Speakers       []UnmatchedSpeaker `json:"unmatched_speakers"`
}

// UnmatchedReport builds the manual-curation report from the placeholder persons
// in the store. It is a read-only query and never mutates the index.
func (m *Matcher) UnmatchedReport(ctx context.Context) (*UnmatchedReport, error) {
	unknown, err := m.persons.ListUnknown(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list unknown speakers")
	}

	report := UnmatchedReport{
		TotalUnmatched: len(unknown),
		Speakers:       make([]UnmatchedSpeaker, 0, len(unknown)),
	}
	for _, person := range unknown {
		report.Speakers = append(report.Speakers, UnmatchedSpeaker{
			PersonID:   person.ID,
			FullName:   person.FullName,
			Normalized: Normalize(person.FullName),
			FamilyName: person.FamilyName,
			GivenName:  person.GivenName,
		})
	}
	return &report, nil
}
