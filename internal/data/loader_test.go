package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDirMergesAndSortsAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := "datetime,open,high,low,close,volume\n2024-01-03 08:45:00,18100,18150,18050,18120,900\n"
	b := "datetime,open,high,low,close,volume\n2024-01-02 08:45:00,18000,18050,17980,18020,1000\n"
	if err := os.WriteFile(filepath.Join(dir, "day2.csv"), []byte(a), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "day1.csv"), []byte(b), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewCSVSource("TXFG5")
	bars, err := LoadDir(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 merged bars, got %d", len(bars))
	}
	if bars[0].Timestamp.After(bars[1].Timestamp) {
		t.Errorf("expected chronological merge across files, got %v then %v", bars[0].Timestamp, bars[1].Timestamp)
	}
}

func TestLoadDirEmptyDirReturnsNoBars(t *testing.T) {
	dir := t.TempDir()
	src := NewCSVSource("TXFG5")
	bars, err := LoadDir(context.Background(), src, dir)
	if err != nil {
		t.Fatalf("LoadDir error: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("expected no bars, got %d", len(bars))
	}
}
