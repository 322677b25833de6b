package channelmap

import (
	"fmt"
	"strconv"
	"sync"

	sqlx "github.com/jmoiron/sqlx"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"
)

// Registry caches one immutable map per run. Concurrent first requests for
// a run share a single load; failed loads are not cached.
type Registry[T any] struct {
	load  func(runNumber int) (T, error)
	mu    sync.RWMutex
	maps  map[int]T
	group singleflight.Group
}

func NewRegistry[T any](load func(runNumber int) (T, error)) *Registry[T] {
	return &Registry[T]{
		load: load,
		maps: make(map[int]T),
	}
}

func (r *Registry[T]) cached(runNumber int) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.maps[runNumber]
	return m, ok
}

// ForRun returns the map of a run, loading it on first use.
func (r *Registry[T]) ForRun(runNumber int) (T, error) {
	if m, ok := r.cached(runNumber); ok {
		return m, nil
	}
	v, err, _ := r.group.Do(strconv.Itoa(runNumber), func() (any, error) {
		if m, ok := r.cached(runNumber); ok {
			return m, nil
		}
		if configuration.Verbosity > 0 {
			logger.Info(fmt.Sprintf("Loading channel map for run %d", runNumber), "registry")
		}
		m, err := r.load(runNumber)
		if err != nil {
			return m, err
		}
		r.mu.Lock()
		r.maps[runNumber] = m
		r.mu.Unlock()
		return m, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Forget drops the cached map of a run. Holders of the map keep using it.
func (r *Registry[T]) Forget(runNumber int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.maps, runNumber)
}

// Runs returns the cached runs in increasing order.
func (r *Registry[T]) Runs() []int {
	r.mu.RLock()
	runs := make([]int, 0, len(r.maps))
	for run := range r.maps {
		runs = append(runs, run)
	}
	r.mu.RUnlock()
	slices.Sort(runs)
	return runs
}

// NewFDHDRegistry loads FDHD maps from the configured files, which serve
// every run, or from the database by run.
func NewFDHDRegistry(config Configuration, db sqlx.Queryer) *Registry[*FDHDMap] {
	opts := fdhdOptionsFromConfig(config)
	if config.Source == SourceDB {
		return NewRegistry(func(runNumber int) (*FDHDMap, error) {
			return LoadFDHDMapFromDB(db, runNumber, opts...)
		})
	}
	return NewRegistry(func(int) (*FDHDMap, error) {
		return ReadFDHDMapFromFiles(config.ChanMapFile, config.CrateMapFile, opts...)
	})
}

// NewTPCChannelMapRegistry is NewFDHDRegistry for electronics maps.
func NewTPCChannelMapRegistry(config Configuration, db sqlx.Queryer) *Registry[*TPCChannelMap] {
	opts := tpcMapOptionsFromConfig(config)
	if config.Source == SourceDB {
		return NewRegistry(func(runNumber int) (*TPCChannelMap, error) {
			return LoadTPCChannelMapFromDB(db, runNumber, opts...)
		})
	}
	return NewRegistry(func(int) (*TPCChannelMap, error) {
		return ReadTPCChannelMapFromFile(config.ChanMapFile, opts...)
	})
}
