package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestRepo(t *testing.T) ResolutionRepository {
	t.Helper()

	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return NewResolutionRepository(db)
}

func TestResolutionRepository_CreateAndCount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("fresh database count = %d", count)
	}

	ms := int64(1234)
	res := &Resolution{
		Query:      "plumber in davidson",
		Provider:   "gemini",
		Model:      "gemini-2.0-flash",
		MatchCount: 3,
		Success:    true,
		DurationMs: &ms,
	}
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.ID == 0 {
		t.Error("expected the inserted id to be backfilled")
	}

	count, err = repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestResolutionRepository_FailedResolution(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	kind := "quota"
	res := &Resolution{
		Query:     "plumber",
		Provider:  "gemini",
		Model:     "gemini-2.0-flash",
		Success:   false,
		ErrorKind: &kind,
	}
	if err := repo.Create(ctx, res); err != nil {
		t.Fatalf("create: %v", err)
	}

	rows, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	got := rows[0]
	if got.Success {
		t.Error("expected success = false")
	}
	if got.ErrorKind == nil || *got.ErrorKind != "quota" {
		t.Errorf("error_kind = %v", got.ErrorKind)
	}
	if got.DurationMs != nil {
		t.Errorf("duration should be null when unset, got %v", got.DurationMs)
	}
	if got.CreatedAt == "" {
		t.Error("created_at should be populated by the database")
	}
}

func TestResolutionRepository_ListRecentLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		res := &Resolution{Query: "q", Provider: "gemini", Model: "m", Success: true}
		if err := repo.Create(ctx, res); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	rows, err := repo.ListRecent(ctx, 3)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}
