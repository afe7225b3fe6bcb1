//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		for _, table := range []string{tablePersons, tableHouseholds, tableBaselineGeo, tableBaselineDemog} {
			_, _ = s.pool.Exec(ctx, "TRUNCATE "+table)
		}
		s.Close()
	})

	return s
}

func TestPostgresSnapshotRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	persons := samplePersons()
	households, err := survey.Aggregate(persons)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if err := s.SavePersons(ctx, persons); err != nil {
		t.Fatalf("SavePersons failed: %v", err)
	}
	if err := s.SaveHouseholds(ctx, households); err != nil {
		t.Fatalf("SaveHouseholds failed: %v", err)
	}

	gotPersons, err := s.LoadPersons(ctx)
	if err != nil {
		t.Fatalf("LoadPersons failed: %v", err)
	}
	if len(gotPersons) != len(persons) {
		t.Fatalf("expected %d persons, got %d", len(persons), len(gotPersons))
	}
	if gotPersons[1].ID != "2020-1-2" || !gotPersons[1].NonCitizenChild {
		t.Errorf("unexpected second person: %+v", gotPersons[1])
	}

	gotHouseholds, err := s.LoadHouseholds(ctx)
	if err != nil {
		t.Fatalf("LoadHouseholds failed: %v", err)
	}
	if err := survey.Verify(gotHouseholds, gotPersons); err != nil {
		t.Errorf("loaded snapshot does not verify: %v", err)
	}
}

func TestPostgresBaseline(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	if _, _, err := s.LoadBaseline(ctx); err != ErrNoBaseline {
		t.Fatalf("expected ErrNoBaseline, got %v", err)
	}

	persons := samplePersons()
	households, _ := survey.Aggregate(persons)
	pop, err := survey.NewPopulation(households, persons)
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	base, err := stats.NewBaseline(pop)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	geo, demog := base.Rows()
	if err := s.SaveBaseline(ctx, geo, demog); err != nil {
		t.Fatalf("SaveBaseline failed: %v", err)
	}

	gotGeo, gotDemog, err := s.LoadBaseline(ctx)
	if err != nil {
		t.Fatalf("LoadBaseline failed: %v", err)
	}
	if _, err := stats.BaselineFromRows(gotGeo, gotDemog); err != nil {
		t.Fatalf("rebuild baseline: %v", err)
	}
	if len(gotGeo) != len(geo) {
		t.Errorf("expected %d geographies, got %d", len(geo), len(gotGeo))
	}
}
