package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/txf-quant/txfbt/pkg/types"
)

// Store persists a backtest run's results — trade log, equity curve,
// and computed metrics — to JSON files in a directory. Writes are
// atomic (write to .tmp, then rename) so a crash mid-write never
// leaves a corrupted result file behind.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open creates a store backed by dir, creating it if necessary.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// RunResult bundles everything a completed backtest run produces.
type RunResult struct {
	Trades      []types.TradeRecord `json:"trades"`
	EquityCurve []types.EquityPoint `json:"equity_curve"`
	Metrics     Metrics              `json:"metrics"`
}

// SaveRun atomically persists a run's results under runID.json.
func (s *Store) SaveRun(runID string, result RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run result: %w", err)
	}

	path := filepath.Join(s.dir, runID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write run result: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadRun restores a previously saved run's results. Returns nil, nil
// if no such run exists.
func (s *Store) LoadRun(runID string) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read run result: %w", err)
	}

	var result RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal run result: %w", err)
	}
	return &result, nil
}
