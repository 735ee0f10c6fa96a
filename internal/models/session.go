package models

import "time"

// Session is one sitting of a legislative chamber.
type Session struct {
	ID              string    `db:"session_id"`
	Date            time.Time `db:"date"`
	Chamber         string    `db:"chamber"`
	Legislature     int       `db:"legislature"`
	SessionNumber   int       `db:"session_number"`
	SourceReference string    `db:"source_reference"`
}

// Topic is a named debate within a session.
type Topic struct {
	ID        string `db:"topic_id"`
	SessionID string `db:"session_id"`
	Title     string `db:"title"`
}
