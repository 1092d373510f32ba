package data

import (
	"sort"
	"time"

	"github.com/txf-quant/txfbt/pkg/types"
)

// Feed yields bars in chronological order for the replay loop to
// consume one at a time.
type Feed interface {
	Next() (types.Bar, bool)
	Reset()
	Len() int
}

// HistoricalFeed replays a fixed slice of bars, optionally bounded to
// a date range.
type HistoricalFeed struct {
	all   []types.Bar
	start time.Time
	end   time.Time

	bars []types.Bar
	pos  int
}

// NewHistoricalFeed sorts bars chronologically and applies an
// optional [start, end] filter. A zero start or end leaves that bound
// open.
func NewHistoricalFeed(bars []types.Bar, start, end time.Time) *HistoricalFeed {
	all := make([]types.Bar, len(bars))
	copy(all, bars)
	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })

	f := &HistoricalFeed{all: all, start: start, end: end}
	f.Reset()
	return f
}

// Next returns the next bar in the feed, or false when exhausted.
func (f *HistoricalFeed) Next() (types.Bar, bool) {
	if f.pos >= len(f.bars) {
		return types.Bar{}, false
	}
	bar := f.bars[f.pos]
	f.pos++
	return bar, true
}

// Reset rewinds the feed to its first bar, reapplying the date
// filter.
func (f *HistoricalFeed) Reset() {
	f.bars = filterByDate(f.all, f.start, f.end)
	f.pos = 0
}

// Len returns the number of bars the feed will yield after the
// current filter.
func (f *HistoricalFeed) Len() int {
	return len(f.bars)
}

func filterByDate(bars []types.Bar, start, end time.Time) []types.Bar {
	out := make([]types.Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}
