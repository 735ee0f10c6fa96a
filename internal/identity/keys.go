// Package identity derives the stable identifiers shared by every entity in the
// store. All functions are pure: the same inputs always produce the same key, so
// re-ingesting the same source material maps onto the same rows.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/politia/politia/internal/errors"
)

// ErrInvalidKeyInput signals empty or malformed input to key derivation. Hashing
// garbage would silently funnel unrelated records into one identifier, so the
// derivation refuses instead.
var ErrInvalidKeyInput = errors.NewSentinel("invalid key input")

const (
	topicFingerprintLen  = 8
	speechFingerprintLen = 12
	// speechPrefixRunes bounds how much text feeds the speech fingerprint. Enough
	// to notice edited content, cheap enough to hash on every segment.
	speechPrefixRunes = 100
)

// PersonKey maps an external source's native person identifier to the store's
// person identifier. The source prefix keeps identifiers from different sources
// from colliding.
func PersonKey(source string, externalID string) (string, error) {
	if strings.TrimSpace(source) == "" || strings.TrimSpace(externalID) == "" {
		return "", errors.Wrap(ErrInvalidKeyInput, "person key",
			slog.String("source", source), slog.String("externalID", externalID))
	}
	return fmt.Sprintf("%s_%s", source, externalID), nil
}

// SessionKey composes legislature and session number into a session identifier.
func SessionKey(legislature, sessionNumber int) (string, error) {
	if legislature <= 0 || sessionNumber <= 0 {
		return "", errors.Wrap(ErrInvalidKeyInput, "session key",
			slog.Int("legislature", legislature), slog.Int("sessionNumber", sessionNumber))
	}
	return fmt.Sprintf("session_%d_%d", legislature, sessionNumber), nil
}

// TopicKey derives a topic identifier from the owning session and the debate
// title. The title is folded case- and whitespace-insensitively before hashing so
// cosmetic differences between runs do not mint new topics.
func TopicKey(sessionID, title string) (string, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(title) == "" {
		return "", errors.Wrap(ErrInvalidKeyInput, "topic key",
			slog.String("sessionID", sessionID))
	}
	fp := fingerprint(sessionID+"\x00"+foldTitle(title), topicFingerprintLen)
	return fmt.Sprintf("%s_topic_%s", sessionID, fp), nil
}

// SpeechKey derives a speech segment identifier from the owning topic, the
// segment's ordinal position, and a fingerprint of the leading text. A changed
// text at the same ordinal yields a new identifier rather than overwriting the
// old row.
func SpeechKey(topicID string, ordinal int, text string) (string, error) {
	if strings.TrimSpace(topicID) == "" || ordinal < 0 || strings.TrimSpace(text) == "" {
		return "", errors.Wrap(ErrInvalidKeyInput, "speech key",
			slog.String("topicID", topicID), slog.Int("ordinal", ordinal))
	}
	prefix := text
	if runes := []rune(text); len(runes) > speechPrefixRunes {
		prefix = string(runes[:speechPrefixRunes])
	}
	fp := fingerprint(fmt.Sprintf("%s_%d_%s", topicID, ordinal, prefix), speechFingerprintLen)
	return fmt.Sprintf("%s_speech_%s", topicID, fp), nil
}

// UnknownSpeakerKey derives the placeholder person identifier for a speaker label
// that could not be resolved. The label must already be in normalized form (see
// the matcher package) so the same unresolved name always maps to the same
// placeholder across runs.
func UnknownSpeakerKey(normalizedLabel string) (string, error) {
	if strings.TrimSpace(normalizedLabel) == "" {
		return "", errors.Wrap(ErrInvalidKeyInput, "unknown speaker key")
	}
	return "unknown_" + strings.ReplaceAll(normalizedLabel, " ", "_"), nil
}

func fingerprint(input string, length int) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:length]
}

func foldTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToUpper(title)), " ")
}
