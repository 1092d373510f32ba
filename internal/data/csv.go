// Package data loads historical bars from CSV files and remote HTTP
// endpoints ahead of a backtest run. Parsing runs concurrently across
// files; the replay loop that consumes the resulting bars is strictly
// single-threaded.
package data

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/calendar"
	"github.com/txf-quant/txfbt/internal/txerrors"
	"github.com/txf-quant/txfbt/pkg/types"
)

// CSVSource loads bars from CSV files. It supports two layouts:
//
//  1. TAIFEX daily exports, detected by the Chinese column headers
//     日期/開盤價/最高價/最低價/收盤價/成交量.
//  2. A generic layout with columns datetime,open,high,low,close,volume.
type CSVSource struct {
	Symbol         string
	DatetimeLayout string // used for the generic layout; default "2006-01-02 15:04:05"
}

// NewCSVSource creates a loader that tags every bar it produces with
// symbol.
func NewCSVSource(symbol string) *CSVSource {
	return &CSVSource{Symbol: symbol, DatetimeLayout: "2006-01-02 15:04:05"}
}

// LoadFile reads bars from a single CSV file, auto-detecting the
// layout from its header row.
func (s *CSVSource) LoadFile(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", txerrors.ErrDataError, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return nil, nil
	}
	header := splitCSVLine(scanner.Text())
	cols := indexHeader(header)

	var bars []types.Bar
	if _, ok := cols["日期"]; ok {
		if _, ok := cols["開盤價"]; ok {
			bars, err = s.parseTaifexDaily(scanner, cols)
		}
	}
	if bars == nil && err == nil {
		bars, err = s.parseGeneric(scanner, cols)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

func (s *CSVSource) parseTaifexDaily(scanner *bufio.Scanner, cols map[string]int) ([]types.Bar, error) {
	var bars []types.Bar
	for scanner.Scan() {
		row := splitCSVLine(scanner.Text())
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		dt, ok := parseROCDate(field(row, cols, "日期"))
		if !ok {
			continue
		}
		open, err1 := decimalFromField(row, cols, "開盤價")
		high, err2 := decimalFromField(row, cols, "最高價")
		low, err3 := decimalFromField(row, cols, "最低價")
		cls, err4 := decimalFromField(row, cols, "收盤價")
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := intFromField(row, cols, "成交量")
		oi, _ := intFromField(row, cols, "未沖倉契約數")
		bars = append(bars, types.Bar{
			Symbol:       s.Symbol,
			Timestamp:    dt,
			Open:         open,
			High:         high,
			Low:          low,
			Close:        cls,
			Volume:       volume,
			OpenInterest: oi,
			Session:      types.SessionDay,
		})
	}
	return bars, nil
}

func (s *CSVSource) parseGeneric(scanner *bufio.Scanner, cols map[string]int) ([]types.Bar, error) {
	layout := s.DatetimeLayout
	if layout == "" {
		layout = "2006-01-02 15:04:05"
	}
	var bars []types.Bar
	for scanner.Scan() {
		row := splitCSVLine(scanner.Text())
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		dt, err := time.Parse(layout, field(row, cols, "datetime"))
		if err != nil {
			continue
		}
		open, err1 := decimalFromField(row, cols, "open")
		high, err2 := decimalFromField(row, cols, "high")
		low, err3 := decimalFromField(row, cols, "low")
		cls, err4 := decimalFromField(row, cols, "close")
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		volume, _ := intFromField(row, cols, "volume")
		bars = append(bars, types.Bar{
			Symbol:    s.Symbol,
			Timestamp: dt,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Volume:    volume,
			Session:   calendar.SessionType(calendar.LiveClock{}, dt),
		})
	}
	return bars, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func field(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func decimalFromField(row []string, cols map[string]int, name string) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(field(row, cols, name), ",", "")
	if raw == "" {
		return decimal.Decimal{}, fmt.Errorf("empty field %s", name)
	}
	return decimal.NewFromString(raw)
}

func intFromField(row []string, cols map[string]int, name string) (int64, error) {
	raw := strings.ReplaceAll(field(row, cols, name), ",", "")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// parseROCDate converts a Republic-of-China date ("113/01/15") into a
// time.Time in the Taipei zone.
func parseROCDate(s string) (time.Time, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	d, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(y+1911, time.Month(m), d, 0, 0, 0, 0, calendar.TaipeiLocation), true
}

// splitCSVLine splits a comma-separated line, tolerating UTF-8 content
// in any field (TAIFEX exports carry Chinese text in the header only).
func splitCSVLine(line string) []string {
	return strings.Split(line, ",")
}
