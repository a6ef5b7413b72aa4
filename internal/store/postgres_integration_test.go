//go:build postgres_integration

package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	ctx := context.Background()
	p, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer func() { _ = p.Close() }()
	if err := p.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := p.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := p.ListAssignments(ctx, "c_missing", "2025-03-03"); err != nil {
		t.Fatalf("ListAssignments: %v", err)
	}
	if _, err := p.GetCrew(ctx, "c_missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetCrew: want ErrNotFound, got %v", err)
	}
}
