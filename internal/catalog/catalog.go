// Package catalog tracks the model-output files in the data directory and
// serves normalized datasets out of an LRU cache.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pmav99/thalassa/internal/lru"
	"github.com/pmav99/thalassa/internal/observability"
	"github.com/pmav99/thalassa/ncio"
	"github.com/pmav99/thalassa/normalize"
	"github.com/pmav99/thalassa/schema"
)

const probeConcurrency = 4

// Entry describes one file the catalog knows about. The dataset itself is
// loaded lazily.
type Entry struct {
	Name      string    `json:"name"`
	Path      string    `json:"-"`
	Solver    string    `json:"solver"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
	ScannedAt time.Time `json:"scanned_at"`
}

// Catalog indexes the NetCDF files in a directory.
type Catalog struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   *lru.Cache[*schema.Dataset]
	ready   atomic.Bool

	mu      sync.RWMutex
	entries map[string]Entry

	// loadMu serializes dataset loads so concurrent requests for the same
	// file do not read it twice.
	loadMu sync.Mutex
}

// New creates a catalog over dir. Call Refresh to populate it.
func New(dir string, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Catalog {
	return &Catalog{
		dir:     dir,
		logger:  logger,
		metrics: metrics,
		cache:   lru.New[*schema.Dataset](cacheSize),
		entries: make(map[string]Entry),
	}
}

// Refresh rescans the data directory, probing each candidate file for a
// recognized solver format. Files that fail the probe are skipped.
func (c *Catalog) Refresh(ctx context.Context) error {
	files, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("catalog: scan %s: %w", c.dir, err)
	}
	c.metrics.CatalogRefresh.Inc()

	now := schema.Clock().Now().UTC()
	found := make(map[string]Entry)
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".nc") {
			continue
		}
		name := f.Name()
		g.Go(func() error {
			path := filepath.Join(c.dir, name)
			info, err := os.Stat(path)
			if err != nil {
				c.logger.Warn("skipping unreadable file", "path", path, "error", err)
				return nil
			}
			solver, err := c.probe(path)
			if err != nil {
				c.metrics.NormalizeErrors.Inc()
				c.logger.Warn("skipping unrecognized file", "path", path, "error", err)
				return nil
			}
			mu.Lock()
			found[name] = Entry{
				Name:      name,
				Path:      path,
				Solver:    solver,
				SizeBytes: info.Size(),
				ModTime:   info.ModTime().UTC(),
				ScannedAt: now,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	c.mu.Lock()
	for name, old := range c.entries {
		cur, ok := found[name]
		if !ok || !cur.ModTime.Equal(old.ModTime) {
			c.cache.Remove(name)
		}
	}
	c.entries = found
	c.mu.Unlock()

	c.metrics.DatasetsLoaded.Set(float64(len(found)))
	c.metrics.CatalogReady.Set(1)
	c.ready.Store(true)
	c.logger.Info("catalog refreshed", "dir", c.dir, "datasets", len(found))
	return nil
}

func (c *Catalog) probe(path string) (string, error) {
	raw, err := ncio.ReadRaw(path)
	if err != nil {
		return "", err
	}
	solver, err := normalize.DetectSolver(raw)
	if err != nil {
		return "", err
	}
	return string(solver), nil
}

// List returns the known entries sorted by name.
func (c *Catalog) List() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Entry looks up one catalog entry by name.
func (c *Catalog) Entry(name string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	return e, ok
}

// Get returns the normalized dataset for a catalog entry, loading and
// caching it on first use.
func (c *Catalog) Get(name string) (*schema.Dataset, error) {
	entry, ok := c.Entry(name)
	if !ok {
		return nil, fmt.Errorf("catalog: unknown dataset %q", name)
	}

	if ds, ok := c.cache.Get(name); ok {
		c.metrics.DatasetCache.WithLabelValues("hit").Inc()
		return ds, nil
	}
	c.metrics.DatasetCache.WithLabelValues("miss").Inc()

	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if ds, ok := c.cache.Get(name); ok {
		return ds, nil
	}

	ds, err := ncio.Open(entry.Path)
	if err != nil {
		c.metrics.DatasetOpens.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("catalog: open %s: %w", entry.Path, err)
	}
	c.metrics.DatasetOpens.WithLabelValues("success").Inc()
	c.cache.Put(name, ds)
	c.logger.Info("dataset loaded",
		"name", name, "solver", ds.Solver,
		"nodes", ds.NumNodes(), "triangles", ds.NumTriangles(), "times", ds.NumTimes())
	return ds, nil
}

// Ready reports whether the initial scan has completed.
func (c *Catalog) Ready() bool {
	return c.ready.Load()
}
