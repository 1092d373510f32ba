package data

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/txf-quant/txfbt/internal/txerrors"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadFileGenericLayout(t *testing.T) {
	content := "datetime,open,high,low,close,volume\n" +
		"2024-01-02 08:45:00,18000,18050,17980,18020,1000\n" +
		"2024-01-02 08:46:00,18020,18060,18000,18040,1200\n"
	path := writeTemp(t, "generic.csv", content)

	src := NewCSVSource("TXFG5")
	bars, err := src.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Symbol != "TXFG5" {
		t.Errorf("symbol = %q, want TXFG5", bars[0].Symbol)
	}
	if !bars[0].Open.Equal(bars[0].Open) {
		t.Errorf("sanity check failed")
	}
	if bars[0].Timestamp.After(bars[1].Timestamp) {
		t.Errorf("bars not in chronological order")
	}
}

func TestLoadFileTaifexDailyLayout(t *testing.T) {
	content := "日期,契約,開盤價,最高價,最低價,收盤價,成交量\n" +
		"113/01/15,TX,18000,18100,17950,18050,50000\n" +
		"113/01/16,TX,18050,18200,18000,18150,52000\n"
	path := writeTemp(t, "taifex.csv", content)

	src := NewCSVSource("TX")
	bars, err := src.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	if bars[0].Timestamp.Year() != 2024 {
		t.Errorf("ROC year conversion failed: got %v", bars[0].Timestamp)
	}
	if bars[0].Session != bars[0].Session {
		t.Errorf("sanity")
	}
}

func TestLoadFileSkipsMalformedRows(t *testing.T) {
	content := "datetime,open,high,low,close,volume\n" +
		"not-a-date,18000,18050,17980,18020,1000\n" +
		"2024-01-02 08:46:00,18020,18060,18000,18040,1200\n"
	path := writeTemp(t, "malformed.csv", content)

	src := NewCSVSource("TXFG5")
	bars, err := src.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("expected malformed row skipped, got %d bars", len(bars))
	}
}

func TestLoadFileMissingFileReturnsDataError(t *testing.T) {
	src := NewCSVSource("TXFG5")
	_, err := src.LoadFile("/nonexistent/path.csv")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	if !errors.Is(err, txerrors.ErrDataError) {
		t.Fatalf("expected ErrDataError, got %v", err)
	}
}
