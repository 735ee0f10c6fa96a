package models

import (
	"database/sql"
	"time"
)

// SpeechSegment is one contiguous utterance by one speaker within a topic.
// TopicID and SpeakerID are nullable: a segment can sit directly under a session,
// and speaker resolution may have failed.
type SpeechSegment struct {
	ID              string         `db:"speech_id"`
	SessionID       string         `db:"session_id"`
	TopicID         sql.NullString `db:"topic_id"`
	SpeakerID       sql.NullString `db:"speaker_id"`
	Text            string         `db:"text"`
	Date            time.Time      `db:"date"`
	SourceReference string         `db:"source_reference"`
	OrderInTopic    int            `db:"order_in_topic"`
}
