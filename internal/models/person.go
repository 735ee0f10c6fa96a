package models

// Role is one parliamentary role held by a person at some point in time.
type Role struct {
	Role      string `json:"role"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Party     string `json:"party"`
}

// Person is a canonical individual. Placeholder persons for unresolved transcript
// speakers share the table and carry an "unknown_" identifier prefix.
type Person struct {
	ID         string `db:"person_id"`
	FullName   string `db:"full_name"`
	FamilyName string `db:"family_name"`
	GivenName  string `db:"given_name"`
	Party      string `db:"party"`
	// Roles is a JSON array of Role records, most recent last.
	Roles string `db:"roles"`
	// SourceIDs is a JSON object mapping external source names to their native identifiers.
	SourceIDs  string `db:"source_ids"`
	BirthDate  string `db:"birth_date"`
	BirthPlace string `db:"birth_place"`
	ImageURL   string `db:"image_url"`
	Slug       string `db:"slug"`
	// RawData is the full payload from the richest source, kept verbatim.
	RawData string `db:"raw_data"`
}
