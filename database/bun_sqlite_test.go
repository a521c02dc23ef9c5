package database

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/drummonds/pagestrip/config"
)

func setupTestRepository(t *testing.T) *BunDB {
	t.Helper()
	// Initialize logger for tests
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}

	// shared-cache :memory: is process wide, so each test gets its own file
	dbFile := filepath.Join(t.TempDir(), "renders.sqlite")
	db, err := NewRepository(config.ServerConfig{DatabaseType: "sqlite", DatabaseDbname: dbFile})
	if err != nil {
		t.Fatalf("Failed to setup database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func recordRender(t *testing.T, db *BunDB, page int, d time.Duration, renderErr error) *RenderRecord {
	t.Helper()
	record, err := NewRenderRecord("test.pdf", page, 60, 80, d, renderErr)
	if err != nil {
		t.Fatalf("Failed to build render record: %v", err)
	}
	if err := db.RecordRender(record); err != nil {
		t.Fatalf("Failed to record render: %v", err)
	}
	return record
}

func TestBunSQLiteDatabase(t *testing.T) {
	db := setupTestRepository(t)
	t.Log("Bun SQLite database setup successfully")

	t.Run("Record and retrieve renders", func(t *testing.T) {
		first := recordRender(t, db, 3, 12*time.Millisecond, nil)
		time.Sleep(2 * time.Millisecond)
		second := recordRender(t, db, 5, 8*time.Millisecond, errors.New("broken page"))

		recent, err := db.GetRecentRenders(10, 0)
		if err != nil {
			t.Fatalf("Failed to get recent renders: %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("Expected 2 renders, got %d", len(recent))
		}
		if recent[0].ID != second.ID || recent[1].ID != first.ID {
			t.Errorf("Expected newest render first, got %v then %v", recent[0].ID, recent[1].ID)
		}
		if recent[0].Status != RenderStatusFailed || recent[0].Error != "broken page" {
			t.Errorf("Expected failed render with error, got %s %q", recent[0].Status, recent[0].Error)
		}
		if recent[1].Status != RenderStatusRendered || recent[1].Error != "" {
			t.Errorf("Expected rendered status without error, got %s %q", recent[1].Status, recent[1].Error)
		}
		if recent[1].PageIndex != 3 || recent[1].Width != 60 || recent[1].Height != 80 || recent[1].DurationMs != 12 {
			t.Errorf("Render record fields not preserved: %+v", recent[1])
		}

		paged, err := db.GetRecentRenders(1, 1)
		if err != nil {
			t.Fatalf("Failed to page renders: %v", err)
		}
		if len(paged) != 1 || paged[0].ID != first.ID {
			t.Errorf("Expected second page to hold the first render, got %+v", paged)
		}
	})

	t.Run("Renders for page", func(t *testing.T) {
		recordRender(t, db, 3, 4*time.Millisecond, nil)

		renders, err := db.GetRendersForPage(3)
		if err != nil {
			t.Fatalf("Failed to get renders for page: %v", err)
		}
		if len(renders) != 2 {
			t.Fatalf("Expected 2 renders for page 3, got %d", len(renders))
		}
		for _, r := range renders {
			if r.PageIndex != 3 {
				t.Errorf("Expected page 3, got %d", r.PageIndex)
			}
		}

		none, err := db.GetRendersForPage(99)
		if err != nil {
			t.Fatalf("Failed to get renders for unknown page: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("Expected no renders for page 99, got %d", len(none))
		}
	})

	t.Run("Render summary", func(t *testing.T) {
		summary, err := db.GetRenderSummary()
		if err != nil {
			t.Fatalf("Failed to get render summary: %v", err)
		}
		if summary.Total != 3 || summary.Rendered != 2 || summary.Failed != 1 {
			t.Errorf("Expected 3 total, 2 rendered, 1 failed, got %+v", summary)
		}
		if summary.DistinctPages != 2 {
			t.Errorf("Expected 2 distinct pages, got %d", summary.DistinctPages)
		}
		if summary.AvgDuration != 8 {
			t.Errorf("Expected average duration 8ms, got %v", summary.AvgDuration)
		}
		if summary.LastRender == nil {
			t.Error("Expected last render time to be set")
		}
	})

	t.Run("Delete old renders", func(t *testing.T) {
		deleted, err := db.DeleteOldRenders(time.Hour)
		if err != nil {
			t.Fatalf("Failed to delete old renders: %v", err)
		}
		if deleted != 0 {
			t.Errorf("Expected nothing older than an hour, deleted %d", deleted)
		}

		time.Sleep(5 * time.Millisecond)
		deleted, err = db.DeleteOldRenders(time.Millisecond)
		if err != nil {
			t.Fatalf("Failed to delete old renders: %v", err)
		}
		if deleted != 3 {
			t.Errorf("Expected 3 renders deleted, got %d", deleted)
		}

		recent, err := db.GetRecentRenders(10, 0)
		if err != nil {
			t.Fatalf("Failed to get recent renders: %v", err)
		}
		if len(recent) != 0 {
			t.Errorf("Expected empty render log, got %d records", len(recent))
		}
	})
}

func TestRenderSummary_Empty(t *testing.T) {
	db := setupTestRepository(t)

	summary, err := db.GetRenderSummary()
	if err != nil {
		t.Fatalf("Failed to get render summary: %v", err)
	}
	if summary.Total != 0 || summary.AvgDuration != 0 || summary.LastRender != nil {
		t.Errorf("Expected empty summary, got %+v", summary)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := setupTestRepository(t)

	if err := db.runMigrations(t.Context()); err != nil {
		t.Fatalf("Failed to re-run migrations: %v", err)
	}
	recordRender(t, db, 0, time.Millisecond, nil)
}

func TestNewRepository_UnknownType(t *testing.T) {
	if Logger == nil {
		Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	if _, err := NewRepository(config.ServerConfig{DatabaseType: "mongodb"}); err == nil {
		t.Error("Expected error for unknown database type")
	}
}

func TestNewRenderRecord(t *testing.T) {
	record, err := NewRenderRecord("doc.pdf", 7, 60, 80, 1500*time.Microsecond, nil)
	if err != nil {
		t.Fatalf("Failed to build render record: %v", err)
	}
	if record.Status != RenderStatusRendered || record.DurationMs != 1 {
		t.Errorf("Unexpected record: %+v", record)
	}
	if record.ID.Time() != uint64(record.CreatedAt.UnixMilli()) {
		t.Errorf("Expected ULID timestamp to match creation time")
	}

	failed, err := NewRenderRecord("doc.pdf", 7, 60, 80, 0, errors.New("no image"))
	if err != nil {
		t.Fatalf("Failed to build render record: %v", err)
	}
	if failed.Status != RenderStatusFailed || failed.Error != "no image" {
		t.Errorf("Expected failed record, got %+v", failed)
	}
}
