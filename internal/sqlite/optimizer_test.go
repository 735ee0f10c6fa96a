package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/politia/politia/internal/testhelpers"
)

func TestStartOptimizer_doesNotBlockCaller(t *testing.T) {
	t.Parallel()

	dbs := testhelpers.NewDatabase(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		dbs.StartOptimizer(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StartOptimizer blocked the caller")
	}
}
