// Package calendar implements the trading-session clock used by the
// backtest engine: SimulatedClock is driven by the engine's bar
// timestamps, LiveClock exposes real wall-clock time for a future
// paper/live mode.
package calendar

import (
	"time"

	"github.com/txf-quant/txfbt/pkg/types"
)

// TaipeiLocation is Taiwan's fixed UTC+8 offset. Taiwan does not
// observe daylight saving time.
var TaipeiLocation = time.FixedZone("Asia/Taipei", 8*60*60)

// Session boundaries in Taiwan local time.
var (
	DaySessionStart   = clockTime(8, 45)
	DaySessionEnd     = clockTime(13, 45)
	NightSessionStart = clockTime(15, 0)
	NightSessionEnd   = clockTime(5, 0) // next calendar day
)

func clockTime(hour, min int) time.Time {
	return time.Date(0, 1, 1, hour, min, 0, 0, time.UTC)
}

func timeOfDay(t time.Time) time.Time {
	return clockTime(t.Hour(), t.Minute())
}

// Clock provides the current time and derives session information
// from it.
type Clock interface {
	Now() time.Time
}

// SessionType returns which trading session a timestamp falls in. If
// dt is the zero value, the clock's current time is used.
func SessionType(c Clock, dt time.Time) types.SessionType {
	if dt.IsZero() {
		dt = c.Now()
	}
	t := timeOfDay(dt)
	if !t.Before(DaySessionStart) && !t.After(DaySessionEnd) {
		return types.SessionDay
	}
	return types.SessionNight
}

// IsTradingHours reports whether dt falls within the day or night
// session.
func IsTradingHours(dt time.Time) bool {
	t := timeOfDay(dt)
	if !t.Before(DaySessionStart) && !t.After(DaySessionEnd) {
		return true
	}
	return !t.Before(NightSessionStart) || !t.After(NightSessionEnd)
}

// SimulatedClock is controlled entirely by the backtest engine: each
// call to AdvanceTo sets the current time to the timestamp of the bar
// being processed.
type SimulatedClock struct {
	current time.Time
}

// NewSimulatedClock creates a clock starting at the given time (or a
// fixed default if the zero value is passed).
func NewSimulatedClock(start time.Time) *SimulatedClock {
	if start.IsZero() {
		start = time.Date(2024, 1, 1, 8, 45, 0, 0, TaipeiLocation)
	}
	return &SimulatedClock{current: start}
}

// Now returns the clock's current simulated time.
func (c *SimulatedClock) Now() time.Time {
	return c.current
}

// AdvanceTo sets the clock to dt. Called by the engine once per bar.
func (c *SimulatedClock) AdvanceTo(dt time.Time) {
	c.current = dt
}

// LiveClock returns the real wall-clock time in Taiwan local time.
// Reserved for a future paper/live trading mode; the backtest engine
// only uses SimulatedClock.
type LiveClock struct{}

// Now returns time.Now() converted to Taiwan local time.
func (LiveClock) Now() time.Time {
	return time.Now().In(TaipeiLocation)
}
