package engine

import (
	"context"
	"time"

	"github.com/rsned/stt-collections-server/internal/collections/optimizer"
	"github.com/rsned/stt-collections-server/pkg/collections"
)

// Optimize executes the collection_optimize tool logic. The optimization runs
// as a background job; a cancelled ctx abandons the wait, not the job.
func (e *Engine) Optimize(ctx context.Context, req collections.OptimizeRequest) (*collections.OptimizeResponse, error) {
	startTime := time.Now()

	// Apply defaults
	if req.MatchMode == "" {
		req.MatchMode = collections.MatchNormal
	}
	if req.Filter.CostMode == "" {
		req.Filter.CostMode = collections.CostModeNormal
	}

	snap, err := e.loadSnapshot(ctx, req.PlayerID)
	if err != nil {
		return nil, err
	}

	crewSymbols := req.CollectionCrew
	if len(crewSymbols) == 0 {
		crewSymbols = rosterSymbols(snap.player)
	}

	costs, err := e.costFunc(ctx)
	if err != nil {
		return nil, err
	}

	opt := optimizer.New(
		optimizer.WithCostFunc(costs),
		optimizer.WithTuning(e.tuning),
		optimizer.WithLogger(e.logger),
	)
	job := opt.Start(optimizer.Config{
		PlayerData:        *snap.player,
		PlayerCollections: snap.catalog,
		CollectionCrew:    crewSymbols,
		FilterProps:       req.Filter,
		MatchMode:         req.MatchMode,
		ByCost:            req.ByCost,
	})
	e.logger.Debug("optimizer job started", "job", job.ID, "player", req.PlayerID)

	res, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	e.logger.Info("optimizer job finished", "job", job.ID, "groups", len(res.Groups), "elapsed", job.Elapsed())

	return &collections.OptimizeResponse{
		JobID:   job.ID,
		Groups:  res.Groups,
		Maps:    res.Maps,
		CostMap: res.CostMap,
		QueryStats: collections.QueryStats{
			CrewConsidered:   len(crewSymbols),
			CollectionsFound: len(res.Maps),
			GroupsReturned:   len(res.Groups),
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		},
	}, nil
}

// rosterSymbols lists every distinct symbol on the roster, owned first.
func rosterSymbols(p *collections.PlayerData) []string {
	seen := make(map[string]bool, len(p.Crew)+len(p.UnownedCrew))
	var out []string
	for _, list := range [][]collections.Crew{p.Crew, p.UnownedCrew} {
		for _, c := range list {
			if !seen[c.Symbol] {
				seen[c.Symbol] = true
				out = append(out, c.Symbol)
			}
		}
	}
	return out
}
