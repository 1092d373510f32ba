package data

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/txf-quant/txfbt/pkg/types"
)

// LoadDir concurrently loads every *.csv file under dir with source,
// then merges and sorts the result into a single chronological bar
// series. Parsing runs with bounded concurrency; the replay loop that
// consumes the returned bars remains single-threaded.
func LoadDir(ctx context.Context, source *CSVSource, dir string) ([]types.Bar, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}

	var (
		mu  sync.Mutex
		all []types.Bar
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, p := range paths {
		p := p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			bars, err := source.LoadFile(p)
			if err != nil {
				return err
			}
			mu.Lock()
			all = append(all, bars...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.Before(all[j].Timestamp) })
	return all, nil
}
