package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/politia/politia/internal/errors"
	"github.com/politia/politia/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestUnitFile_roundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path, err := pipeline.WriteUnitFile(dir, sampleUnit())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "19__347.json"), path)

	unit, err := pipeline.ReadUnitFile(path)
	require.NoError(t, err)
	require.Equal(t, 19, unit.Legislature)
	require.Equal(t, 347, unit.SessionNumber)
	require.Equal(t, "2024-07-18", unit.Date)
	require.Len(t, unit.Contents, 2)
}

func TestReadUnitFile_keyFallsBackToPayload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	// A renamed file loses its stem key; the payload fields still carry it.
	payload := []byte(`{"legislature": "18", "session_number": "42", "date": null, "contents": {}}`)
	path := filepath.Join(dir, "renamed.json")
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	unit, err := pipeline.ReadUnitFile(path)
	require.NoError(t, err)
	require.Equal(t, 18, unit.Legislature)
	require.Equal(t, 42, unit.SessionNumber)
	require.Empty(t, unit.Date)
}

func TestReadUnitFile_malformedPayload(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := filepath.Join(dir, "19__1.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))

	_, err := pipeline.ReadUnitFile(path)
	require.True(t, errors.Is(err, pipeline.ErrRecordParse))
}
