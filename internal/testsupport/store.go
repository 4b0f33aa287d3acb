package testsupport

import (
	"context"
	"testing"

	"reelcast/internal/config"
	"reelcast/internal/episode"
	"reelcast/internal/history"
)

// MustOpenStore opens the continuity store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAppend appends records to the store in order.
func MustAppend(t testing.TB, store *history.Store, records ...episode.Episode) {
	t.Helper()

	for _, ep := range records {
		if err := store.Append(context.Background(), ep); err != nil {
			t.Fatalf("store.Append(%d): %v", ep.Number, err)
		}
	}
}
