package booking

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tripbot/internal/infra"
)

func TestStoreRoundTrip(t *testing.T) {
	svc := NewService(setupTestStore(t), MockPayments{}, nil)
	ctx := context.Background()

	b, err := svc.Create(ctx, CreateCommand{SessionID: "s_db", Fields: tripFields(), Cost: testCost(15525)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.Get(ctx, b.Reference)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Cost.TotalCost != 15525 || got.Fields["destination"] != "Coorg" || got.Status != StatusConfirmed {
		t.Fatalf("round trip = %+v", got)
	}

	list, err := svc.ListByEmail(ctx, "GAGAN.BAJPAI@gmail.com")
	if err != nil || len(list) != 1 {
		t.Fatalf("list = %v, %v", list, err)
	}

	if _, err := svc.Cancel(ctx, b.Reference); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	got, err = svc.Get(ctx, b.Reference)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCancelled || got.CancelledAt == nil {
		t.Fatalf("status = %s", got.Status)
	}

	if _, err := svc.Get(ctx, "TRP-NOPE0000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TRIPBOT_TEST_DSN")
	if dsn == "" {
		t.Skip("TRIPBOT_TEST_DSN not set; skipping DB-backed booking tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root, err := infra.RepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	if err := infra.ApplyMigrations(ctx, db, filepath.Join(root, "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE bookings"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}
