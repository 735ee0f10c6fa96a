package identity_test

import (
	"testing"

	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/identity"
	"github.com/stretchr/testify/require"
)

func TestPersonKey(t *testing.T) {
	t.Parallel()

	key, err := identity.PersonKey("op", "12345")
	require.NoError(t, err)
	require.Equal(t, "op_12345", key)

	_, err = identity.PersonKey("", "12345")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))

	_, err = identity.PersonKey("op", " ")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
}

func TestSessionKey(t *testing.T) {
	t.Parallel()

	key, err := identity.SessionKey(19, 347)
	require.NoError(t, err)
	require.Equal(t, "session_19_347", key)

	// Different legislatures must never collide even when the numbers read alike.
	key18, err := identity.SessionKey(18, 1347)
	require.NoError(t, err)
	key19, err := identity.SessionKey(19, 347)
	require.NoError(t, err)
	require.NotEqual(t, key18, key19)

	_, err = identity.SessionKey(0, 347)
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
	_, err = identity.SessionKey(19, -1)
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
}

func TestTopicKey(t *testing.T) {
	t.Parallel()

	key1, err := identity.TopicKey("session_19_347", "Discussione sulle linee generali")
	require.NoError(t, err)
	require.Contains(t, key1, "session_19_347_topic_")

	// Stable across runs.
	key2, err := identity.TopicKey("session_19_347", "Discussione sulle linee generali")
	require.NoError(t, err)
	require.Equal(t, key1, key2)

	// Case and whitespace insensitive.
	key3, err := identity.TopicKey("session_19_347", "  discussione   sulle linee GENERALI ")
	require.NoError(t, err)
	require.Equal(t, key1, key3)

	// Session scoping: same title in another session is a different topic.
	key4, err := identity.TopicKey("session_19_348", "Discussione sulle linee generali")
	require.NoError(t, err)
	require.NotEqual(t, key1, key4)

	_, err = identity.TopicKey("", "title")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
	_, err = identity.TopicKey("session_19_347", "   ")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
}

func TestSpeechKey(t *testing.T) {
	t.Parallel()

	topicID := "session_19_347_topic_deadbeef"
	key1, err := identity.SpeechKey(topicID, 0, "Signor Presidente, onorevoli colleghi...")
	require.NoError(t, err)
	require.Contains(t, key1, topicID+"_speech_")

	// Pure function: same inputs, same output.
	key2, err := identity.SpeechKey(topicID, 0, "Signor Presidente, onorevoli colleghi...")
	require.NoError(t, err)
	require.Equal(t, key1, key2)

	// Changing any one input changes the output.
	keyOrdinal, err := identity.SpeechKey(topicID, 1, "Signor Presidente, onorevoli colleghi...")
	require.NoError(t, err)
	require.NotEqual(t, key1, keyOrdinal)

	keyText, err := identity.SpeechKey(topicID, 0, "Signora Presidente, onorevoli colleghi...")
	require.NoError(t, err)
	require.NotEqual(t, key1, keyText)

	keyTopic, err := identity.SpeechKey("session_19_347_topic_cafebabe", 0, "Signor Presidente, onorevoli colleghi...")
	require.NoError(t, err)
	require.NotEqual(t, key1, keyTopic)

	_, err = identity.SpeechKey(topicID, -1, "text")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
	_, err = identity.SpeechKey(topicID, 0, "")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
}

func TestSpeechKey_prefixSensitivity(t *testing.T) {
	t.Parallel()

	topicID := "session_19_347_topic_deadbeef"
	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'a')
	}
	base := string(long)

	key1, err := identity.SpeechKey(topicID, 0, base)
	require.NoError(t, err)

	// Changes beyond the fingerprinted prefix do not mint a new identifier.
	key2, err := identity.SpeechKey(topicID, 0, base+"coda")
	require.NoError(t, err)
	require.Equal(t, key1, key2)
}

func TestUnknownSpeakerKey(t *testing.T) {
	t.Parallel()

	key, err := identity.UnknownSpeakerKey("ROSSI MARIO")
	require.NoError(t, err)
	require.Equal(t, "unknown_ROSSI_MARIO", key)

	_, err = identity.UnknownSpeakerKey("  ")
	require.True(t, errors.Is(err, identity.ErrInvalidKeyInput))
}
