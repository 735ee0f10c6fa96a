package pipeline

// PersonRecord is one biographical record from the OpenParlamento API.
type PersonRecord struct {
	ID           int           `json:"id"`
	FamilyName   string        `json:"family_name"`
	GivenName    string        `json:"given_name"`
	Slug         string        `json:"slug"`
	BirthDate    string        `json:"birth_date"`
	BirthPlace   string        `json:"birth_place"`
	Image        string        `json:"image"`
	CurrentRoles *CurrentRoles `json:"current_roles"`
}

type CurrentRoles struct {
	Parl *ParlRole `json:"parl"`
}

type ParlRole struct {
	Role        string      `json:"role"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	LatestGroup LatestGroup `json:"latest_group"`
}

type LatestGroup struct {
	Acronym string `json:"acronym"`
	Name    string `json:"name"`
}

// Party returns the affiliation label for the role, preferring the group acronym
// over its full name.
func (r *ParlRole) Party() string {
	if r.LatestGroup.Acronym != "" {
		return r.LatestGroup.Acronym
	}
	return r.LatestGroup.Name
}

// Intervention is one speech within a debate, as transcribed.
type Intervention struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// TranscriptUnit is one parsed sitting: a mapping from debate title to the
// ordered interventions under it, keyed by (legislature, session number).
type TranscriptUnit struct {
	Legislature   int
	SessionNumber int
	// Date is the sitting date in ISO form when the source carried one, empty
	// otherwise.
	Date     string
	Contents map[string][]Intervention
}
