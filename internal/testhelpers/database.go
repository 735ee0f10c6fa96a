package testhelpers

import (
	"context"
	"io"
	"testing"

	"github.com/politia/politia/internal/sqlite"
)

// NewDatabase creates a fresh in-memory database for testing purposes.
func NewDatabase(t *testing.T) *sqlite.Database {
	t.Helper()

	dbs, err := sqlite.NewDatabase(context.Background(), ":memory:", NewLogger(io.Discard))
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := dbs.Close(); err != nil {
			t.Fatal(err)
		}
	})

	return dbs
}
