package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAutoSnapshot(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	snapshotPath := filepath.Join(t.TempDir(), "auto-snapshot.jsonl")
	db.EnableAutoSnapshot(snapshotPath)

	tasks := sampleTasks()
	if err := db.SaveTasks(ctx, tasks); err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		t.Fatalf("Snapshot file was not created after SaveTasks: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("Expected 2 lines, got %d", got)
	}

	if err := db.SaveTasks(ctx, tasks[:1]); err != nil {
		t.Fatalf("SaveTasks failed: %v", err)
	}
	data, _ = os.ReadFile(snapshotPath)
	if got := strings.Count(string(data), "\n"); got != 1 {
		t.Errorf("Snapshot was not refreshed, got %d lines", got)
	}
}
