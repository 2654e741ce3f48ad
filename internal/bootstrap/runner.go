package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/swimlab/agecurve/internal/aggregate"
	"github.com/swimlab/agecurve/internal/config"
	"github.com/swimlab/agecurve/internal/dataset"
	"github.com/swimlab/agecurve/internal/replicate"
)

// Runner orchestrates the bootstrap: one resample-and-fit per replicate,
// sequentially or across a bounded worker pool, with results merged by
// replicate index afterward.
type Runner struct {
	cfg    *config.RunConfig
	fitter *replicate.Fitter

	workers int
	timeout time.Duration
	policy  string

	// Progress tracking
	progressMu sync.Mutex
	listeners  []ProgressListener
}

// ProgressListener receives progress updates
type ProgressListener func(event ProgressEvent)

// EventType represents the type of progress event
type EventType string

// EventType constants
const (
	EventRunStart          EventType = "run_start"
	EventRunComplete       EventType = "run_complete"
	EventReplicateStart    EventType = "replicate_start"
	EventReplicateComplete EventType = "replicate_complete"
	EventReplicateSkipped  EventType = "replicate_skipped"
)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	EventType  EventType
	Replicate  int
	Total      int
	Seed       int64
	DurationMs int64
	Details    map[string]any
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers overrides the worker count from the pipeline file.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		r.workers = n
	}
}

// WithTimeout overrides the per-replicate timeout. Zero disables it.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithFailurePolicy overrides what happens when a replicate fails to fit.
func WithFailurePolicy(policy string) RunnerOption {
	return func(r *Runner) {
		r.policy = policy
	}
}

// WithProgress registers a progress listener at construction time.
func WithProgress(listener ProgressListener) RunnerOption {
	return func(r *Runner) {
		r.listeners = append(r.listeners, listener)
	}
}

// NewRunner builds the member models and replicate fitter from the pipeline
// spec carried by cfg.
func NewRunner(cfg *config.RunConfig, opts ...RunnerOption) (*Runner, error) {
	spec := cfg.Spec()
	if spec == nil {
		return nil, fmt.Errorf("bootstrap: run config carries no pipeline spec")
	}

	members, err := spec.BuildMembers()
	if err != nil {
		return nil, err
	}
	fitter, err := replicate.NewFitter(members, replicate.Params{
		TrainFraction: spec.Config.TrainFraction,
		Folds:         spec.Config.Folds,
		AgeMin:        spec.Grid.AgeMin,
		AgeMax:        spec.Grid.AgeMax,
	})
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:       cfg,
		fitter:    fitter,
		workers:   spec.Config.Workers,
		timeout:   time.Duration(spec.Config.TimeoutSec) * time.Second,
		policy:    spec.Config.OnFitFailure,
		listeners: []ProgressListener{},
	}
	for _, o := range opts {
		o(r)
	}

	if r.policy != config.FailureSkip && r.policy != config.FailureFail {
		return nil, fmt.Errorf("'%s' is not a valid failure policy", r.policy)
	}
	return r, nil
}

// OnProgress registers a progress listener
func (r *Runner) OnProgress(listener ProgressListener) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.listeners = append(r.listeners, listener)
}

func (r *Runner) notifyProgress(event ProgressEvent) {
	r.progressMu.Lock()
	listeners := make([]ProgressListener, len(r.listeners))
	copy(listeners, r.listeners)
	r.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Run loads and prepares the dataset named by the configuration, then
// executes every replicate and aggregates the completed ones.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	obs, err := dataset.LoadObservations(r.cfg.DatasetPath())
	if err != nil {
		return nil, err
	}
	points, _, err := dataset.Prepare(obs)
	if err != nil {
		return nil, err
	}
	return r.RunPrepared(ctx, points)
}

// RunPrepared executes the bootstrap over an already prepared dataset.
func (r *Runner) RunPrepared(ctx context.Context, points []dataset.Point) (*Outcome, error) {
	spec := r.cfg.Spec()
	total := spec.Config.Replicates
	started := time.Now()

	r.notifyProgress(ProgressEvent{
		EventType: EventRunStart,
		Total:     total,
	})

	var (
		results []replicate.Result
		skipped []SkippedReplicate
		err     error
	)
	if spec.Config.Concurrent {
		results, skipped, err = r.runConcurrent(ctx, points)
	} else {
		results, skipped, err = r.runSequential(ctx, points)
	}
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("bootstrap: all %d replicates were skipped", total)
	}

	table, err := aggregate.Build(results, spec.Config.Interval[0], spec.Config.Interval[1])
	if err != nil {
		return nil, err
	}

	outcome := r.buildOutcome(points, results, skipped, table, started)

	r.notifyProgress(ProgressEvent{
		EventType:  EventRunComplete,
		Total:      total,
		DurationMs: time.Since(started).Milliseconds(),
	})
	return outcome, nil
}

// seedFor returns the seed for 1-based replicate i: consecutive seeds from
// the configured base, so any replicate can be reproduced in isolation.
func (r *Runner) seedFor(i int) int64 {
	return r.cfg.Spec().Config.Seed + int64(i) - 1
}

// runOne resamples and fits replicate i. The resample draw and everything
// stochastic inside the fit consume one generator, so the replicate is a
// pure function of its seed.
func (r *Runner) runOne(ctx context.Context, points []dataset.Point, i int) (*replicate.Result, error) {
	seed := r.seedFor(i)
	rng := rand.New(rand.NewSource(seed))
	sample := Resample(points, rng)

	if r.timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.fitter.Run(ctx, sample, i, seed, rng)
}

// handleFailure classifies a replicate error under the failure policy.
// Cancellation of the run itself is never skippable.
func (r *Runner) handleFailure(parent context.Context, i int, err error) (SkippedReplicate, error) {
	if parent.Err() != nil {
		return SkippedReplicate{}, parent.Err()
	}
	seed := r.seedFor(i)
	if r.policy == config.FailureFail {
		return SkippedReplicate{}, fmt.Errorf("replicate %d (seed %d): %w", i, seed, err)
	}
	reason := err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		reason = fmt.Sprintf("timed out after %s", r.timeout)
	}
	return SkippedReplicate{Index: i, Seed: seed, Reason: reason}, nil
}

func (r *Runner) runSequential(ctx context.Context, points []dataset.Point) ([]replicate.Result, []SkippedReplicate, error) {
	total := r.cfg.Spec().Config.Replicates

	results := make([]replicate.Result, 0, total)
	var skipped []SkippedReplicate

	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		r.notifyProgress(ProgressEvent{
			EventType: EventReplicateStart,
			Replicate: i,
			Total:     total,
			Seed:      r.seedFor(i),
		})

		start := time.Now()
		res, err := r.runOne(ctx, points, i)
		if err != nil {
			skip, herr := r.handleFailure(ctx, i, err)
			if herr != nil {
				return nil, nil, herr
			}
			skipped = append(skipped, skip)
			r.notifyProgress(ProgressEvent{
				EventType: EventReplicateSkipped,
				Replicate: i,
				Total:     total,
				Seed:      skip.Seed,
				Details:   map[string]any{"reason": skip.Reason},
			})
			continue
		}

		results = append(results, *res)
		r.notifyProgress(ProgressEvent{
			EventType:  EventReplicateComplete,
			Replicate:  i,
			Total:      total,
			Seed:       res.Seed,
			DurationMs: time.Since(start).Milliseconds(),
		})
	}
	return results, skipped, nil
}

func (r *Runner) runConcurrent(ctx context.Context, points []dataset.Point) ([]replicate.Result, []SkippedReplicate, error) {
	total := r.cfg.Spec().Config.Replicates
	workers := r.workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	// Each goroutine owns one slot, so collection needs no locking; g.Wait
	// is the barrier before anything reads them.
	type slot struct {
		result  *replicate.Result
		skipped *SkippedReplicate
	}
	slots := make([]slot, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 1; i <= total; i++ {
		g.Go(func() error {
			r.notifyProgress(ProgressEvent{
				EventType: EventReplicateStart,
				Replicate: i,
				Total:     total,
				Seed:      r.seedFor(i),
			})

			start := time.Now()
			res, err := r.runOne(gctx, points, i)
			if err != nil {
				skip, herr := r.handleFailure(gctx, i, err)
				if herr != nil {
					return herr
				}
				slots[i-1].skipped = &skip
				r.notifyProgress(ProgressEvent{
					EventType: EventReplicateSkipped,
					Replicate: i,
					Total:     total,
					Seed:      skip.Seed,
					Details:   map[string]any{"reason": skip.Reason},
				})
				return nil
			}

			slots[i-1].result = res
			r.notifyProgress(ProgressEvent{
				EventType:  EventReplicateComplete,
				Replicate:  i,
				Total:      total,
				Seed:       res.Seed,
				DurationMs: time.Since(start).Milliseconds(),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	// Merge by replicate index
	results := make([]replicate.Result, 0, total)
	var skipped []SkippedReplicate
	for _, s := range slots {
		if s.result != nil {
			results = append(results, *s.result)
		}
		if s.skipped != nil {
			skipped = append(skipped, *s.skipped)
		}
	}
	return results, skipped, nil
}

func (r *Runner) buildOutcome(points []dataset.Point, results []replicate.Result, skipped []SkippedReplicate, table *aggregate.Table, started time.Time) *Outcome {
	spec := r.cfg.Spec()

	digest := Digest{
		Replicates: spec.Config.Replicates,
		Completed:  len(results),
		Skipped:    len(skipped),
		Rows:       len(points),
		DurationMs: time.Since(started).Milliseconds(),
		MeanCVRMSE: meanAcross(results, func(res replicate.Result) map[string]float64 {
			return res.CVRMSE
		}),
		MeanRMSE: meanAcross(results, func(res replicate.Result) map[string]float64 {
			return res.RMSE
		}),
		MeanWeights: meanAcross(results, func(res replicate.Result) map[string]float64 {
			return res.Weights
		}),
	}

	return &Outcome{
		RunID:     uuid.NewString(),
		Pipeline:  spec.Name,
		Timestamp: started,
		Setup: Setup{
			Dataset: spec.DatasetPath,
			Config:  spec.Config,
			Models:  spec.Models,
			Grid:    spec.Grid,
		},
		Digest:  digest,
		Skipped: skipped,
		Bands:   table.Rows(),
		Results: results,
		Table:   table,
	}
}

// meanAcross averages a per-replicate map field over all completed
// replicates, key by key.
func meanAcross(results []replicate.Result, pick func(replicate.Result) map[string]float64) map[string]float64 {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, res := range results {
		for k, v := range pick(res) {
			sums[k] += v
			counts[k]++
		}
	}
	means := make(map[string]float64, len(sums))
	for k, s := range sums {
		means[k] = s / float64(counts[k])
	}
	return means
}
