package store

import (
	"context"
	"testing"
	"time"

	"tradewatch/internal/domain"
)

func testBar(ts time.Time, closePrice float64) domain.Bar {
	return domain.Bar{
		Symbol:    "BTCUSDT",
		Timestamp: ts,
		Open:      closePrice - 1,
		High:      closePrice + 1,
		Low:       closePrice - 2,
		Close:     closePrice,
		Volume:    10,
	}
}

func TestParquetWriteReadRoundTrip(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := []domain.Bar{
		testBar(base, 100),
		testBar(base.Add(time.Hour), 101),
		testBar(base.Add(2*time.Hour), 102),
	}
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "BTCUSDT", base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadBars returned %d bars, want 3", len(got))
	}
	for i, b := range got {
		if !b.Timestamp.Equal(bars[i].Timestamp) || b.Close != bars[i].Close {
			t.Errorf("bar %d = %+v, want %+v", i, b, bars[i])
		}
	}
}

func TestParquetRangeFilter(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := s.WriteBars(ctx, []domain.Bar{
		testBar(base, 100),
		testBar(base.AddDate(0, 0, 1), 101),
		testBar(base.AddDate(0, 0, 2), 102),
	}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "BTCUSDT", base.AddDate(0, 0, 1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 1 || got[0].Close != 101 {
		t.Errorf("range filter returned %v, want just the middle bar", got)
	}
}

func TestParquetRewriteIsIdempotent(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	bars := []domain.Bar{testBar(base, 100), testBar(base.Add(time.Hour), 101)}

	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}
	// Re-importing the same archive must not duplicate rows.
	if err := s.WriteBars(ctx, bars); err != nil {
		t.Fatalf("WriteBars (second): %v", err)
	}

	got, err := s.ReadBars(ctx, "BTCUSDT", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ReadBars returned %d bars after double import, want 2", len(got))
	}
}

func TestParquetSpansYears(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	dec := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	jan := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if err := s.WriteBars(ctx, []domain.Bar{testBar(dec, 100), testBar(jan, 101)}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	got, err := s.ReadBars(ctx, "BTCUSDT", dec, jan)
	if err != nil {
		t.Fatalf("ReadBars: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("cross-year read returned %d bars, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(dec) || !got[1].Timestamp.Equal(jan) {
		t.Errorf("cross-year read out of order: %v", got)
	}
}

func TestParquetListSymbols(t *testing.T) {
	s := NewParquetStore(t.TempDir())
	ctx := context.Background()

	symbols, err := s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 0 {
		t.Errorf("ListSymbols on empty store = %v, want none", symbols)
	}

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	eth := testBar(base, 3000)
	eth.Symbol = "ETHUSDT"
	if err := s.WriteBars(ctx, []domain.Bar{testBar(base, 100), eth}); err != nil {
		t.Fatalf("WriteBars: %v", err)
	}

	symbols, err = s.ListSymbols(ctx)
	if err != nil {
		t.Fatalf("ListSymbols: %v", err)
	}
	if len(symbols) != 2 || symbols[0] != "BTCUSDT" || symbols[1] != "ETHUSDT" {
		t.Errorf("ListSymbols = %v, want [BTCUSDT ETHUSDT]", symbols)
	}
}
