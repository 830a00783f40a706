package kb

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"groundtruth/internal/types"
)

// Library holds the active rule set for every domain behind a read
// lock, so a reload swaps programs without disturbing in-flight
// sessions. Sessions opened before a swap keep the program they were
// created with.
type Library struct {
	mu   sync.RWMutex
	sets map[Domain]*RuleSet
	opts Options
}

// NewLibrary compiles every domain's rule set up front. Any compile
// failure aborts construction; a process that cannot load rules runs
// heuristics-only instead, and that choice belongs to the caller.
func NewLibrary(opts Options) (*Library, error) {
	sets, err := buildAll(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEngineUnavailable, err)
	}
	return &Library{sets: sets, opts: opts}, nil
}

// RuleSet returns the active program for a domain.
func (l *Library) RuleSet(d Domain) *RuleSet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sets[d]
}

// Reload recompiles every domain from the current sources and swaps
// the programs in atomically. If any domain fails to compile the
// previous programs stay active and the error is returned.
func (l *Library) Reload() error {
	sets, err := buildAll(l.opts)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrEngineUnavailable, err)
	}
	l.mu.Lock()
	l.sets = sets
	l.mu.Unlock()
	return nil
}

func buildAll(opts Options) (map[Domain]*RuleSet, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	sets := make(map[Domain]*RuleSet, len(Domains()))
	for _, d := range Domains() {
		rs, err := NewRuleSet(d, opts)
		if err != nil {
			return nil, err
		}
		sets[d] = rs
	}
	return sets, nil
}
