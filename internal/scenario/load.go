package scenario

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/store"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// BaselineSource records where a snapshot's baseline came from.
type BaselineSource string

const (
	BaselineFromSnapshot BaselineSource = "snapshot"
	BaselineComputed     BaselineSource = "computed"
)

// Snapshot is an immutable population with its baseline statistics.
type Snapshot struct {
	Population *survey.Population
	Baseline   *stats.Baseline
	Source     BaselineSource
	LoadedAt   time.Time
}

// NewSnapshot measures the baseline of pop.
func NewSnapshot(pop *survey.Population) (*Snapshot, error) {
	base, err := stats.NewBaseline(pop)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Population: pop, Baseline: base, Source: BaselineComputed, LoadedAt: time.Now().UTC()}, nil
}

// Load reads persons and households from src, checks that the households
// match their persons, and attaches the stored baseline. A missing
// baseline is computed, and written back when src is also a store.Writer.
func Load(ctx context.Context, src store.Store, logger *slog.Logger) (*Snapshot, error) {
	persons, err := src.LoadPersons(ctx)
	if err != nil {
		return nil, fmt.Errorf("load persons: %w", err)
	}
	households, err := src.LoadHouseholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load households: %w", err)
	}
	if err := survey.Verify(households, persons); err != nil {
		return nil, err
	}
	pop, err := survey.NewPopulation(households, persons)
	if err != nil {
		return nil, err
	}
	logger.Info("population loaded", "persons", len(persons), "households", len(households))

	geo, demog, err := src.LoadBaseline(ctx)
	switch {
	case errors.Is(err, store.ErrNoBaseline):
		snap, err := NewSnapshot(pop)
		if err != nil {
			return nil, err
		}
		logger.Info("baseline computed", "geographies", len(snap.Baseline.Geographies()))
		if w, ok := src.(store.Writer); ok {
			g, d := snap.Baseline.Rows()
			if err := w.SaveBaseline(ctx, g, d); err != nil {
				logger.Warn("failed to save computed baseline", "error", err)
			}
		}
		return snap, nil
	case err != nil:
		return nil, fmt.Errorf("load baseline: %w", err)
	}

	base, err := stats.BaselineFromRows(geo, demog)
	if err != nil {
		return nil, err
	}
	for _, g := range pop.Geographies() {
		if _, ok := base.Geography(g); !ok {
			return nil, fmt.Errorf("%w: no baseline for %q", stats.ErrIncompleteBaseline, g)
		}
	}
	logger.Info("baseline loaded from snapshot", "geographies", len(geo))
	return &Snapshot{Population: pop, Baseline: base, Source: BaselineFromSnapshot, LoadedAt: time.Now().UTC()}, nil
}
