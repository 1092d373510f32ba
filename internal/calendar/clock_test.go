package calendar

import (
	"testing"
	"time"

	"github.com/txf-quant/txfbt/pkg/types"
)

func TestSessionType(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		want types.SessionType
	}{
		{"day open", 8, 45, types.SessionDay},
		{"day middle", 11, 0, types.SessionDay},
		{"day close", 13, 45, types.SessionDay},
		{"just after day close", 13, 46, types.SessionNight},
		{"night open", 15, 0, types.SessionNight},
		{"after midnight", 2, 0, types.SessionNight},
		{"night close", 5, 0, types.SessionNight},
	}
	clock := NewSimulatedClock(time.Time{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := time.Date(2024, 3, 1, tt.hour, tt.min, 0, 0, TaipeiLocation)
			if got := SessionType(clock, dt); got != tt.want {
				t.Errorf("SessionType(%02d:%02d) = %v, want %v", tt.hour, tt.min, got, tt.want)
			}
		})
	}
}

func TestIsTradingHours(t *testing.T) {
	tests := []struct {
		name string
		hour int
		min  int
		want bool
	}{
		{"day session", 9, 0, true},
		{"night session", 20, 0, true},
		{"after midnight night", 3, 0, true},
		{"gap between sessions", 14, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt := time.Date(2024, 3, 1, tt.hour, tt.min, 0, 0, TaipeiLocation)
			if got := IsTradingHours(dt); got != tt.want {
				t.Errorf("IsTradingHours(%02d:%02d) = %v, want %v", tt.hour, tt.min, got, tt.want)
			}
		})
	}
}

func TestSimulatedClockAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 45, 0, 0, TaipeiLocation)
	clock := NewSimulatedClock(start)
	if !clock.Now().Equal(start) {
		t.Fatalf("Now() = %v, want %v", clock.Now(), start)
	}

	next := start.Add(time.Minute)
	clock.AdvanceTo(next)
	if !clock.Now().Equal(next) {
		t.Errorf("after AdvanceTo, Now() = %v, want %v", clock.Now(), next)
	}
}
