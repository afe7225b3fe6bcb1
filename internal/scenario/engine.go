package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Funding/internal/hermes"
	"github.com/MikeSquared-Agency/Funding/internal/metrics"
	"github.com/MikeSquared-Agency/Funding/internal/policy"
	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/store"
)

// ErrUnknownGeography is returned for a geography absent from the population.
var ErrUnknownGeography = errors.New("scenario: unknown geography")

// IsConfigError reports whether err was caused by the request itself.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnknownGeography) || policy.IsConfigError(err)
}

// IsDegenerate reports whether err is an undefined result.
func IsDegenerate(err error) bool { return stats.IsDegenerate(err) }

// Metrics receives evaluation telemetry.
type Metrics interface {
	ObserveScenario(level, outcome string, d time.Duration)
	SetPopulation(persons, households int)
	SetLastUBI(level string, ubi float64)
}

type Options struct {
	Rules             policy.Rules
	MaxTaxRatePercent float64
	Events            hermes.Client // optional
	Metrics           Metrics       // optional
	Logger            *slog.Logger
}

// Evaluation is one evaluated scenario.
type Evaluation struct {
	ID      string        `json:"id"`
	Params  policy.Params `json:"params"`
	Bundle  *stats.Bundle `json:"bundle"`
	Summary []string      `json:"summary"`
}

// Stats describes the loaded snapshot and evaluation counts.
type Stats struct {
	Persons        int            `json:"persons"`
	Households     int            `json:"households"`
	Geographies    int            `json:"geographies"`
	BaselineSource BaselineSource `json:"baseline_source"`
	LoadedAt       time.Time      `json:"loaded_at"`
	Evaluated      int64          `json:"evaluated"`
	Rejected       int64          `json:"rejected"`
}

// Engine evaluates scenarios against a shared read-only snapshot. The
// snapshot can be swapped while evaluations are in flight; each
// evaluation uses the snapshot current when it started.
type Engine struct {
	snap   atomic.Pointer[Snapshot]
	opts   Options
	logger *slog.Logger

	events *publisher // nil without Options.Events

	evaluated atomic.Int64
	rejected  atomic.Int64
}

func NewEngine(snap *Snapshot, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Engine{opts: opts, logger: opts.Logger}
	if opts.Events != nil {
		e.events = newPublisher(opts.Events, opts.Logger)
	}
	e.install(snap)
	return e
}

// Close flushes queued events. Evaluations still work afterwards but no
// longer publish.
func (e *Engine) Close() {
	if e.events != nil {
		e.events.close()
	}
}

// Swap replaces the snapshot and announces the reload.
func (e *Engine) Swap(snap *Snapshot) {
	e.install(snap)
	e.publish(hermes.SubjectSnapshotReloaded, hermes.SnapshotReloadedEvent{
		Persons:        len(snap.Population.Persons()),
		Households:     len(snap.Population.Households()),
		Geographies:    len(snap.Population.Geographies()),
		BaselineSource: string(snap.Source),
		Timestamp:      time.Now().UTC(),
	})
}

func (e *Engine) install(snap *Snapshot) {
	e.snap.Store(snap)
	if e.opts.Metrics != nil {
		e.opts.Metrics.SetPopulation(len(snap.Population.Persons()), len(snap.Population.Households()))
	}
}

// Reload loads a fresh snapshot from src and swaps it in. The current
// snapshot stays in place if loading fails.
func (e *Engine) Reload(ctx context.Context, src store.Store) error {
	snap, err := Load(ctx, src, e.logger)
	if err != nil {
		return fmt.Errorf("reload: %w", err)
	}
	e.Swap(snap)
	return nil
}

// Evaluate runs simulate-and-compare for p.
func (e *Engine) Evaluate(ctx context.Context, p policy.Params) (*Evaluation, error) {
	id := uuid.NewString()
	start := time.Now()
	ev, err := e.evaluate(ctx, id, p)
	elapsed := time.Since(start)

	if err != nil {
		e.rejected.Add(1)
		reason := rejectReason(err)
		e.observe(p.Level, reason, elapsed)
		e.logger.Debug("scenario rejected", "scenario_id", id, "reason", reason, "error", err)
		e.publish(hermes.SubjectScenarioRejected(id), hermes.ScenarioRejectedEvent{
			ScenarioID: id,
			Geography:  p.Geography,
			Level:      p.Level,
			Reason:     reason,
			Error:      err.Error(),
			Timestamp:  time.Now().UTC(),
		})
		return nil, err
	}

	e.evaluated.Add(1)
	b := ev.Bundle
	e.observe(string(b.Level), metrics.OutcomeEvaluated, elapsed)
	if e.opts.Metrics != nil {
		e.opts.Metrics.SetLastUBI(string(b.Level), b.UBI)
	}
	e.logger.Debug("scenario evaluated",
		"scenario_id", id,
		"level", b.Level,
		"geography", b.Geography,
		"ubi", b.UBI,
		"revenue", b.Revenue,
		"duration_ms", elapsed.Milliseconds(),
	)
	e.publish(hermes.SubjectScenarioEvaluated(id), hermes.ScenarioEvaluatedEvent{
		ScenarioID:       id,
		Geography:        b.Geography,
		Level:            string(b.Level),
		TaxRate:          p.TaxRate,
		Benefits:         p.Benefits,
		Taxes:            p.Taxes,
		Include:          p.Include,
		UBI:              b.UBI,
		Revenue:          b.Revenue,
		PercentBetterOff: b.PercentBetterOff,
		PovertyRateDelta: b.PovertyRate.Change,
		DurationMs:       elapsed.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	})
	return ev, nil
}

func (e *Engine) evaluate(ctx context.Context, id string, p policy.Params) (*Evaluation, error) {
	snap := e.snap.Load()
	r, err := policy.NewReform(p, e.opts.MaxTaxRatePercent)
	if err != nil {
		return nil, err
	}
	if !snap.Population.HasGeography(r.Geography()) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeography, r.Geography())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := policy.Simulate(snap.Population, r, e.opts.Rules)
	if err != nil {
		return nil, err
	}
	b, err := stats.Compare(snap.Population, snap.Baseline, res)
	if err != nil {
		return nil, err
	}
	return &Evaluation{ID: id, Params: p, Bundle: b, Summary: Summarize(b)}, nil
}

func rejectReason(err error) string {
	switch {
	case IsConfigError(err):
		return metrics.OutcomeConfig
	case IsDegenerate(err):
		return metrics.OutcomeDegenerate
	}
	return metrics.OutcomeError
}

func (e *Engine) observe(level, outcome string, d time.Duration) {
	if e.opts.Metrics != nil {
		e.opts.Metrics.ObserveScenario(level, outcome, d)
	}
}

func (e *Engine) publish(subject string, data any) {
	if e.events != nil {
		e.events.enqueue(subject, data)
	}
}

// Geographies returns "US" followed by every state in the snapshot.
func (e *Engine) Geographies() []string {
	return e.snap.Load().Population.Geographies()
}

// BaselineView is the baseline of one geography.
type BaselineView struct {
	stats.GeographyStats
	Demographics []stats.DemographicStats `json:"demographics"`
}

// Baseline returns the pre-reform statistics of geo.
func (e *Engine) Baseline(geo string) (*BaselineView, error) {
	base := e.snap.Load().Baseline
	g, ok := base.Geography(geo)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGeography, geo)
	}
	v := &BaselineView{GeographyStats: g}
	for _, d := range stats.Demographics() {
		ds, _ := base.Demographic(geo, d)
		v.Demographics = append(v.Demographics, ds)
	}
	return v, nil
}

func (e *Engine) Stats() Stats {
	snap := e.snap.Load()
	return Stats{
		Persons:        len(snap.Population.Persons()),
		Households:     len(snap.Population.Households()),
		Geographies:    len(snap.Population.Geographies()),
		BaselineSource: snap.Source,
		LoadedAt:       snap.LoadedAt,
		Evaluated:      e.evaluated.Load(),
		Rejected:       e.rejected.Load(),
	}
}
