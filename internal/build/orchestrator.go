package build

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"estatekg/relate/internal/config"
	"estatekg/relate/internal/logger"
	"estatekg/relate/internal/model"
)

// Orchestrator sequences the five builder phases, batches the writes, and
// aggregates the run report. Phases run strictly in order; a failure inside
// one phase is isolated to that phase and already-committed batches stay in
// the store.
type Orchestrator struct {
	cfg   config.Config
	store Store
	log   *logger.Logger
}

func NewOrchestrator(cfg config.Config, store Store, log *logger.Logger) *Orchestrator {
	return &Orchestrator{cfg: cfg, store: store, log: log}
}

// Run executes one build. Configuration and dataset preconditions are fatal
// before any write; everything after that lands in the report rather than an
// error.
func (o *Orchestrator) Run(ctx context.Context) (*RunReport, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	ds, err := o.store.LoadDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}
	if len(ds.Properties) == 0 && len(ds.Neighborhoods) == 0 {
		return nil, fmt.Errorf("%w: store contains no properties or neighborhoods; run the loader first", config.ErrInvalid)
	}

	report := &RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now().UTC(),
	}
	o.log.Info("build starting", "run_id", report.RunID,
		"properties", len(ds.Properties), "neighborhoods", len(ds.Neighborhoods),
		"articles", len(ds.Articles))

	o.runPhase(ctx, report, "hierarchy", func(ctx context.Context, pr *PhaseReport) error {
		res := NewHierarchy(o.log).Build(ds)
		pr.Candidates = len(res.Edges)
		pr.addWarnings(res.Warnings)
		created, err := o.writeBatches(ctx, res.Edges)
		pr.Created += created
		return err
	})

	o.runPhase(ctx, report, "classification", func(ctx context.Context, pr *PhaseReport) error {
		res := NewClassifier(o.cfg, o.log).Build(ds)
		pr.Candidates = len(res.Edges)
		pr.addWarnings(res.Warnings)

		// Catalog nodes must exist before the edges that point at them.
		if err := withRetry(ctx, o.cfg.Retry, func() error {
			_, err := o.store.UpsertFeatures(ctx, res.Features)
			return err
		}); err != nil {
			return fmt.Errorf("upserting features: %w", err)
		}
		if err := withRetry(ctx, o.cfg.Retry, func() error {
			_, err := o.store.UpsertPropertyTypes(ctx, res.Types)
			return err
		}); err != nil {
			return fmt.Errorf("upserting property types: %w", err)
		}
		if err := withRetry(ctx, o.cfg.Retry, func() error {
			_, err := o.store.UpsertPriceBands(ctx, res.Bands)
			return err
		}); err != nil {
			return fmt.Errorf("upserting price ranges: %w", err)
		}

		created, err := o.writeBatches(ctx, res.Edges)
		pr.Created += created
		return err
	})

	o.runPhase(ctx, report, "proximity", func(ctx context.Context, pr *PhaseReport) error {
		prox := NewProximity(o.cfg, o.log)
		cities, parts := prox.Partition(ds)
		return o.runPartitions(ctx, pr, cities, func(ctx context.Context, city string) ([]model.Edge, error) {
			return prox.BuildCity(parts[city]), nil
		})
	})

	o.runPhase(ctx, report, "similarity", func(ctx context.Context, pr *PhaseReport) error {
		sim := NewSimilarity(o.cfg, o.log)
		cities, parts := sim.Partition(ds)
		return o.runPartitions(ctx, pr, cities, func(ctx context.Context, city string) ([]model.Edge, error) {
			return sim.BuildCity(parts[city]), nil
		})
	})

	o.runPhase(ctx, report, "knowledge", func(ctx context.Context, pr *PhaseReport) error {
		res := NewKnowledge(o.log).Build(ds)
		pr.Candidates = len(res.Edges)
		pr.addWarnings(res.Warnings)
		created, err := o.writeBatches(ctx, res.Edges)
		pr.Created += created
		return err
	})

	report.Status = aggregate(report.Phases)
	report.DurationMS = time.Since(report.StartedAt).Milliseconds()
	o.log.Info("build finished", "run_id", report.RunID, "status", report.Status,
		"duration_ms", report.DurationMS)
	return report, nil
}

// runPhase wraps one phase with index verification, timing, status
// derivation, and failure isolation.
func (o *Orchestrator) runPhase(ctx context.Context, report *RunReport, name string, fn func(context.Context, *PhaseReport) error) {
	pr := PhaseReport{Phase: name}
	start := time.Now()

	err := o.store.EnsureIndexes(ctx)
	if err == nil {
		err = fn(ctx, &pr)
	}
	if err != nil {
		pr.Status = PhaseFailed
		pr.Error = err.Error()
		o.log.Error("phase failed", "phase", name, "error", err)
	}

	pr.DurationMS = time.Since(start).Milliseconds()
	pr.finalize()
	o.log.Info("phase done", "phase", name, "status", pr.Status,
		"candidates", pr.Candidates, "created", pr.Created, "warnings", pr.Warnings)
	report.Phases = append(report.Phases, pr)
}

// writeBatches upserts edges in bounded batches. Cancellation is checked
// between batches only, so an interrupted run stays batch-aligned; each
// batch write gets the retry/backoff treatment.
func (o *Orchestrator) writeBatches(ctx context.Context, edges []model.Edge) (int, error) {
	created := 0
	for start := 0; start < len(edges); start += o.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		end := start + o.cfg.BatchSize
		if end > len(edges) {
			end = len(edges)
		}
		batch := edges[start:end]

		var n int
		err := withRetry(ctx, o.cfg.Retry, func() error {
			var err error
			n, err = o.store.UpsertEdges(ctx, batch)
			return err
		})
		if err != nil {
			return created, fmt.Errorf("writing batch of %d edges: %w", len(batch), err)
		}
		created += n
	}
	return created, nil
}

// runPartitions fans city partitions out over the bounded worker pool. Each
// worker computes its own candidates and writes its own batches; upserts are
// idempotent so concurrent writers never race on duplicate creation.
func (o *Orchestrator) runPartitions(ctx context.Context, pr *PhaseReport, cities []string,
	buildCity func(context.Context, string) ([]model.Edge, error)) error {

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)

	for _, city := range cities {
		g.Go(func() error {
			edges, err := buildCity(gctx, city)
			if err != nil {
				return fmt.Errorf("city %q: %w", city, err)
			}
			created, err := o.writeBatches(gctx, edges)

			mu.Lock()
			pr.Candidates += len(edges)
			pr.Created += created
			mu.Unlock()

			if err != nil {
				return fmt.Errorf("city %q: %w", city, err)
			}
			return nil
		})
	}
	return g.Wait()
}
