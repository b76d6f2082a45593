package store

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeKlineZip writes one zip archive holding a single CSV of kline rows.
func writeKlineZip(t *testing.T, dir, name string, rows []string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	w, err := zw.Create("klines.csv")
	if err != nil {
		t.Fatalf("zip Create: %v", err)
	}
	for _, row := range rows {
		if _, err := w.Write([]byte(row + "\n")); err != nil {
			t.Fatalf("zip Write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close: %v", err)
	}
}

func TestKlineDirReadBars(t *testing.T) {
	dataDir := t.TempDir()

	// 2024-06-01 00:00 and 01:00 UTC in milliseconds; header and junk rows
	// must be skipped silently.
	writeKlineZip(t, filepath.Join(dataDir, "BTCUSDT"), "BTCUSDT-1h-2024-06.zip", []string{
		"open_time,open,high,low,close,volume,close_time,quote_volume,count,taker_buy_volume,taker_buy_quote_volume,ignore",
		"1717200000000,67000,67500,66800,67200,123.4,1717203599999,0,0,0,0,0",
		"1717203600000,67200,67900,67100,67800,234.5,1717207199999,0,0,0,0,0",
		"not,a,kline,row",
	})

	k := NewKlineDir(dataDir)
	bars, err := k.ReadBars(context.Background(), "BTC/USDT", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("ReadBars returned %d bars, want 2", len(bars))
	}

	first := bars[0]
	if !first.Timestamp.Equal(time.UnixMilli(1717200000000).UTC()) {
		t.Errorf("first bar timestamp = %v", first.Timestamp)
	}
	if first.Open != 67000 || first.High != 67500 || first.Low != 66800 ||
		first.Close != 67200 || first.Volume != 123.4 {
		t.Errorf("first bar = %+v", first)
	}
	if first.Symbol != "BTC/USDT" {
		t.Errorf("Symbol = %q, want the slash form", first.Symbol)
	}
	if !bars[0].Timestamp.Before(bars[1].Timestamp) {
		t.Error("bars not sorted ascending")
	}
}

func TestKlineDirDateFilter(t *testing.T) {
	dataDir := t.TempDir()
	writeKlineZip(t, filepath.Join(dataDir, "BTCUSDT"), "BTCUSDT.zip", []string{
		"1717200000000,1,1,1,1,1,0,0,0,0,0,0", // 2024-06-01 00:00
		"1717286400000,2,2,2,2,2,0,0,0,0,0,0", // 2024-06-02 00:00
		"1717372800000,3,3,3,3,3,0,0,0,0,0,0", // 2024-06-03 00:00
	})

	k := NewKlineDir(dataDir)
	start := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 2, 23, 59, 59, 0, time.UTC)

	bars, err := k.ReadBars(context.Background(), "BTC/USDT", start, end)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 2 {
		t.Errorf("date filter returned %v, want just the 06-02 bar", bars)
	}
}

func TestKlineDirMicrosecondTimestamps(t *testing.T) {
	dataDir := t.TempDir()
	// 2025 dumps carry microsecond open times.
	writeKlineZip(t, filepath.Join(dataDir, "ETHUSDT"), "ETHUSDT.zip", []string{
		"1735689600000000,3000,3100,2900,3050,10,0,0,0,0,0,0",
	})

	k := NewKlineDir(dataDir)
	bars, err := k.ReadBars(context.Background(), "ETH/USDT", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("ReadBars returned %d bars, want 1", len(bars))
	}
	want := time.UnixMicro(1735689600000000).UTC()
	if !bars[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", bars[0].Timestamp, want)
	}
}

func TestKlineDirMissingDirectory(t *testing.T) {
	k := NewKlineDir(t.TempDir())
	bars, err := k.ReadBars(context.Background(), "NO/PE", time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ReadBars on missing dir: %v", err)
	}
	if len(bars) != 0 {
		t.Errorf("ReadBars on missing dir returned %d bars, want 0", len(bars))
	}
}
