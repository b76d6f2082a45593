package store

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"tradewatch/internal/domain"
)

// Compile-time interface check.
var _ BarSource = (*KlineDir)(nil)

// KlineDir reads historical bars from a directory of Binance kline zip
// archives (one CSV per archive, 12 columns, optional header row). Archives
// are grouped per symbol: <DataDir>/<SYMBOL>/*.zip.
type KlineDir struct {
	DataDir string

	log *slog.Logger
}

// NewKlineDir creates a KlineDir rooted at the given directory.
func NewKlineDir(dataDir string) *KlineDir {
	return &KlineDir{
		DataDir: dataDir,
		log:     slog.Default().With("component", "klines"),
	}
}

// ReadBars decodes every archive for the symbol and returns bars within the
// inclusive [start, end] range, sorted by timestamp ascending. Zero start or
// end leaves that side unbounded. Missing directories and malformed rows are
// logged and skipped; no matching data yields an empty result, not an error.
func (k *KlineDir) ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	dir := filepath.Join(k.DataDir, strings.ReplaceAll(symbol, "/", ""))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading kline dir %s: %w", dir, err)
	}

	var bars []domain.Bar
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(dir, e.Name())
		fileBars, err := k.readArchive(path, symbol)
		if err != nil {
			// A single bad archive never aborts the whole load.
			k.log.Error("skipping kline archive", "path", path, "error", err)
			continue
		}
		bars = append(bars, fileBars...)
	}

	filtered := bars[:0]
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		filtered = append(filtered, b)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.Before(filtered[j].Timestamp)
	})
	return filtered, nil
}

// readArchive decodes every CSV inside one zip archive.
func (k *KlineDir) readArchive(path, symbol string) ([]domain.Bar, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var bars []domain.Bar
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".csv") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		fileBars := k.readCSV(rc, symbol, f.Name)
		rc.Close()
		bars = append(bars, fileBars...)
	}
	return bars, nil
}

// readCSV parses Binance kline rows:
//
//	open_time, open, high, low, close, volume, close_time,
//	quote_volume, count, taker_buy_volume, taker_buy_quote_volume, ignore
//
// Header rows and malformed rows are skipped.
func (k *KlineDir) readCSV(r io.Reader, symbol, name string) []domain.Bar {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []domain.Bar
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			k.log.Warn("skipping unreadable kline row", "file", name, "error", err)
			continue
		}
		if len(record) < 6 {
			k.log.Warn("skipping short kline row", "file", name, "fields", len(record))
			continue
		}

		openTime, err := strconv.ParseInt(record[0], 10, 64)
		if err != nil {
			// Header row or garbage.
			continue
		}

		open, err1 := strconv.ParseFloat(record[1], 64)
		high, err2 := strconv.ParseFloat(record[2], 64)
		low, err3 := strconv.ParseFloat(record[3], 64)
		closePrice, err4 := strconv.ParseFloat(record[4], 64)
		volume, err5 := strconv.ParseFloat(record[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			k.log.Warn("skipping malformed kline row", "file", name)
			continue
		}

		bars = append(bars, domain.Bar{
			Symbol:    symbol,
			Timestamp: klineTime(openTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
		})
	}
	return bars
}

// klineTime converts a Binance open_time to UTC. Dumps switched from
// milliseconds to microseconds in 2025; disambiguate by magnitude.
func klineTime(openTime int64) time.Time {
	if openTime > 1e15 {
		return time.UnixMicro(openTime).UTC()
	}
	return time.UnixMilli(openTime).UTC()
}
