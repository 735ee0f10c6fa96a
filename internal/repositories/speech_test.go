package repositories_test

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"github.com/politia/politia/internal/models"
	"github.com/politia/politia/internal/repositories"
	"github.com/politia/politia/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestSpeechRepository_existsAndCreate(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	logger := testhelpers.NewLogger(io.Discard)
	sessions := repositories.NewSessionRepository(dbs, logger)
	topics := repositories.NewTopicRepository(dbs, logger)
	speeches := repositories.NewSpeechRepository(dbs, logger)
	ctx := context.Background()

	session := testSession("session_19_347", 19, 347)
	require.NoError(t, sessions.Create(ctx, &session))
	topic := models.Topic{ID: "session_19_347_topic_ab12cd34", SessionID: "session_19_347", Title: "Interrogazioni a risposta immediata"}
	require.NoError(t, topics.Create(ctx, &topic))

	speechID := "session_19_347_topic_ab12cd34_speech_0011aabbccdd"
	exists, err := speeches.Exists(ctx, speechID)
	require.NoError(t, err)
	require.False(t, exists)

	segment := models.SpeechSegment{
		ID:              speechID,
		SessionID:       "session_19_347",
		TopicID:         sql.NullString{String: topic.ID, Valid: true},
		SpeakerID:       sql.NullString{},
		Text:            "Signor Presidente, onorevoli colleghi...",
		Date:            time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
		SourceReference: "19__347.json",
		OrderInTopic:    0,
	}
	require.NoError(t, speeches.Create(ctx, &segment))

	exists, err = speeches.Exists(ctx, speechID)
	require.NoError(t, err)
	require.True(t, exists)

	count, err := speeches.CountBySession(ctx, "session_19_347")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestTopicRepository_roundtripAndCascade(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	logger := testhelpers.NewLogger(io.Discard)
	sessions := repositories.NewSessionRepository(dbs, logger)
	topics := repositories.NewTopicRepository(dbs, logger)
	ctx := context.Background()

	session := testSession("session_19_347", 19, 347)
	require.NoError(t, sessions.Create(ctx, &session))

	got, err := topics.Get(ctx, "session_19_347_topic_ab12cd34")
	require.NoError(t, err)
	require.Nil(t, got)

	topic := models.Topic{ID: "session_19_347_topic_ab12cd34", SessionID: "session_19_347", Title: "Discussione sulle linee generali"}
	require.NoError(t, topics.Create(ctx, &topic))

	got, err = topics.Get(ctx, "session_19_347_topic_ab12cd34")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, topic, *got)

	// Topics are owned by their session: deleting the session cascades.
	_, err = dbs.ReadWrite.ExecContext(ctx, "DELETE FROM sessions WHERE session_id = ?", "session_19_347")
	require.NoError(t, err)
	got, err = topics.Get(ctx, "session_19_347_topic_ab12cd34")
	require.NoError(t, err)
	require.Nil(t, got)
}
