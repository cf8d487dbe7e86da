package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/medreza/honcho-rewards-ledger/pkg/database"
	"github.com/medreza/honcho-rewards-ledger/pkg/repository/repotest"
)

// Runs only when POSTGRESQL_URL points at a disposable database.
func TestStoreContract(t *testing.T) {
	url := os.Getenv("POSTGRESQL_URL")
	if url == "" {
		t.Skip("POSTGRESQL_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.InitPostgres(ctx, url)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	store := New(pool)
	defer store.Close(context.Background())

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	repotest.RunContract(t, store)
}
