// Package optimizer computes which crew collections can be completed together
// and what completing them costs.
//
// An invocation runs five stages in order: group construction, cross-collection
// link scoring, combo generation, combo classification and cost ranking. Every
// stage is a function of the invocation's Config; nothing survives between
// invocations and roster records are never modified.
package optimizer

import (
	"io"
	"log/slog"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

// Subset search limits.
const (
	// DefaultSubsetCap is the maximum number of subsets enumerated once the
	// candidate list reaches DefaultSubsetCapTrigger names.
	DefaultSubsetCap = 1000
	// DefaultSubsetCapTrigger is the candidate count at which enumeration is capped.
	DefaultSubsetCapTrigger = 8
)

// Tuning bounds the combinatorial search.
type Tuning struct {
	SubsetCap        int
	SubsetCapTrigger int
}

// DefaultTuning returns the standard search limits.
func DefaultTuning() Tuning {
	return Tuning{
		SubsetCap:        DefaultSubsetCap,
		SubsetCapTrigger: DefaultSubsetCapTrigger,
	}
}

// Config is the input of a single optimizer invocation.
type Config struct {
	PlayerData        collections.PlayerData
	PlayerCollections []collections.Collection
	CollectionCrew    []string
	FilterProps       collections.FilterProps
	MatchMode         collections.MatchMode
	ByCost            bool
}

// Result is the output of a single optimizer invocation.
type Result struct {
	Groups  []*collections.OptimizedGroup
	Maps    []*collections.CollectionGroup
	CostMap []*collections.CostEntry
}

// Optimizer runs collection optimizations.
type Optimizer struct {
	costs  CostFunc
	tuning Tuning
	logger *slog.Logger
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithCostFunc sets the crew valuation.
func WithCostFunc(c CostFunc) Option {
	return func(o *Optimizer) {
		if c != nil {
			o.costs = c
		}
	}
}

// WithTuning sets the subset search limits.
func WithTuning(t Tuning) Option {
	return func(o *Optimizer) {
		o.tuning = t
	}
}

// WithLogger sets the logger used for stage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *Optimizer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Optimizer.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		costs:  DefaultStarCoster(),
		tuning: DefaultTuning(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.tuning.SubsetCap <= 0 {
		o.tuning.SubsetCap = DefaultSubsetCap
	}
	if o.tuning.SubsetCapTrigger <= 0 {
		o.tuning.SubsetCapTrigger = DefaultSubsetCapTrigger
	}
	return o
}

// Optimize runs all stages synchronously and returns the ranked result.
// Empty input yields an empty result.
func (o *Optimizer) Optimize(cfg Config) *Result {
	r := newRun(o, &cfg)

	unfiltered := r.buildGroups()
	maps := r.selectMaps(unfiltered)
	r.logger.Debug("collection groups built", "groups", len(unfiltered), "maps", len(maps))

	groups := r.optimizeGroups(optimizerInput(unfiltered))
	groups, costMap := r.rankCosts(groups)
	groups = r.applySearch(groups, costMap)
	r.logger.Debug("optimization finished", "groups", len(groups), "cost_entries", len(costMap))

	return &Result{
		Groups:  groups,
		Maps:    maps,
		CostMap: costMap,
	}
}

// run holds the derived state of one invocation.
type run struct {
	cfg       *Config
	costs     CostFunc
	tuning    Tuning
	logger    *slog.Logger
	searches  []string
	searchSet map[string]bool
	sale      bool
	catalog   map[string]*collections.Collection
	weights   map[string]int
}

func newRun(o *Optimizer, cfg *Config) *run {
	r := &run{
		cfg:       cfg,
		costs:     o.costs,
		tuning:    o.tuning,
		logger:    o.logger,
		searches:  cfg.FilterProps.Searches(),
		searchSet: make(map[string]bool),
		sale:      cfg.FilterProps.Sale(),
		catalog:   make(map[string]*collections.Collection, len(cfg.PlayerCollections)),
		weights:   make(map[string]int),
	}
	for _, s := range r.searches {
		r.searchSet[s] = true
	}
	for i := range cfg.PlayerCollections {
		col := &cfg.PlayerCollections[i]
		if _, ok := r.catalog[col.Name]; !ok {
			r.catalog[col.Name] = col
		}
	}
	return r
}

func (r *run) crewOrder() crewOrder {
	return crewOrder{
		searches:  r.searchSet,
		favorites: r.cfg.FilterProps.Favorited,
		weights:   r.weights,
	}
}

// lookup resolves collection names, skipping unknown ones.
func (r *run) lookup(names []string) []*collections.Collection {
	out := make([]*collections.Collection, 0, len(names))
	for _, n := range names {
		if col := r.catalog[n]; col != nil {
			out = append(out, col)
		}
	}
	return out
}
