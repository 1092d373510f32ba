package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/txf-quant/txfbt/internal/config"
)

// fakeProvider is a minimal Provider stub driven directly by each
// test, standing in for a running Engine.
type fakeProvider struct {
	progress    ProgressSnapshot
	result      ResultSnapshot
	resultReady bool
	events      chan DashboardEvent
}

func (p *fakeProvider) Progress() ProgressSnapshot { return p.progress }

func (p *fakeProvider) Result() (ResultSnapshot, bool) {
	return p.result, p.resultReady
}

func (p *fakeProvider) DashboardEvents() <-chan DashboardEvent { return p.events }

func TestHandleSnapshotReturnsCurrentProgress(t *testing.T) {
	provider := &fakeProvider{progress: ProgressSnapshot{
		BarIndex:  42,
		TotalBars: 100,
		Equity:    1050000,
		Halted:    false,
	}}
	h := NewHandlers(provider, config.DashboardConfig{}, NewHub(slog.Default()), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	h.HandleSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got ProgressSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.BarIndex != 42 || got.TotalBars != 100 {
		t.Errorf("got %+v, want bar_index=42 total_bars=100", got)
	}
}

func TestHandleResultReturns202WhileRunning(t *testing.T) {
	provider := &fakeProvider{resultReady: false}
	h := NewHandlers(provider, config.DashboardConfig{}, NewHub(slog.Default()), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/result", nil)
	rec := httptest.NewRecorder()
	h.HandleResult(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}

func TestHandleResultReturnsFinishedResult(t *testing.T) {
	provider := &fakeProvider{
		resultReady: true,
		result: ResultSnapshot{
			FinalEquity:    1123400,
			InitialCapital: 1000000,
			TotalTrades:    7,
		},
	}
	h := NewHandlers(provider, config.DashboardConfig{}, NewHub(slog.Default()), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/api/result", nil)
	rec := httptest.NewRecorder()
	h.HandleResult(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got ResultSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.TotalTrades != 7 || got.FinalEquity != 1123400 {
		t.Errorf("got %+v, want total_trades=7 final_equity=1123400", got)
	}
}

func TestIsOriginAllowedForDashboardClients(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		cfg     config.DashboardConfig
		reqHost string
		want    bool
	}{
		{
			name:    "CLI poller with no Origin header is allowed",
			origin:  "",
			cfg:     config.DashboardConfig{},
			reqHost: "127.0.0.1:8090",
			want:    true,
		},
		{
			name:    "dashboard served from localhost is allowed by default",
			origin:  "http://localhost:8090",
			cfg:     config.DashboardConfig{},
			reqHost: "localhost:8090",
			want:    true,
		},
		{
			name:    "a random external site is denied by default",
			origin:  "https://attacker.example",
			cfg:     config.DashboardConfig{},
			reqHost: "localhost:8090",
			want:    false,
		},
		{
			name:    "an operator-configured origin is allowed",
			origin:  "https://backtest-dashboard.internal",
			cfg:     config.DashboardConfig{AllowedOrigins: []string{"https://backtest-dashboard.internal"}},
			reqHost: "0.0.0.0:8090",
			want:    true,
		},
		{
			name:    "the allowlist rejects everything not on it",
			origin:  "https://attacker.example",
			cfg:     config.DashboardConfig{AllowedOrigins: []string{"https://backtest-dashboard.internal"}},
			reqHost: "0.0.0.0:8090",
			want:    false,
		},
		{
			name:    "the same host the server is reachable at is allowed with no allowlist",
			origin:  "https://txfbt.internal:8090",
			cfg:     config.DashboardConfig{},
			reqHost: "txfbt.internal:8090",
			want:    true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isOriginAllowed(tt.origin, tt.cfg, tt.reqHost); got != tt.want {
				t.Fatalf("isOriginAllowed(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}
