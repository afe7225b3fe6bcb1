package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

var (
	// ErrNoBaseline is returned by LoadBaseline when no baseline snapshot
	// has been written yet.
	ErrNoBaseline = errors.New("store: no baseline snapshot")
	// ErrMissingColumns is returned when a snapshot lacks required columns.
	ErrMissingColumns = errors.New("store: missing required columns")
)

// Store is a read-only source of population snapshots.
type Store interface {
	LoadPersons(ctx context.Context) ([]survey.Person, error)
	LoadHouseholds(ctx context.Context) ([]survey.Household, error)
	LoadBaseline(ctx context.Context) ([]stats.GeographyStats, []stats.DemographicStats, error)
	Close() error
}

// Writer persists snapshots produced by preprocessing.
type Writer interface {
	SavePersons(ctx context.Context, persons []survey.Person) error
	SaveHouseholds(ctx context.Context, households []survey.Household) error
	SaveBaseline(ctx context.Context, geo []stats.GeographyStats, demog []stats.DemographicStats) error
}

// Versioned sources report a token that changes whenever their snapshots
// do.
type Versioned interface {
	Version(ctx context.Context) (string, error)
}

// ReadWriter is a snapshot source that also accepts snapshots.
type ReadWriter interface {
	Store
	Writer
}

// Open returns a PostgresStore, with its tables created, when databaseURL
// is set and a FileStore on dir otherwise.
func Open(ctx context.Context, databaseURL, dir string, names Names) (ReadWriter, error) {
	if databaseURL == "" {
		return NewFileStore(dir, names), nil
	}
	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Names are the snapshot file names.
type Names struct {
	Persons       string `yaml:"persons" toml:"persons"`
	Households    string `yaml:"households" toml:"households"`
	BaselineGeo   string `yaml:"baseline_geo" toml:"baseline_geo"`
	BaselineDemog string `yaml:"baseline_demog" toml:"baseline_demog"`
}

// DefaultNames are the file names written by fundingctl preprocess.
func DefaultNames() Names {
	return Names{
		Persons:       "persons.csv.gz",
		Households:    "spm_units.csv.gz",
		BaselineGeo:   "baseline_geo.csv.gz",
		BaselineDemog: "baseline_demog.csv.gz",
	}
}

// withDefaults fills empty names from DefaultNames.
func (n Names) withDefaults() Names {
	d := DefaultNames()
	if n.Persons == "" {
		n.Persons = d.Persons
	}
	if n.Households == "" {
		n.Households = d.Households
	}
	if n.BaselineGeo == "" {
		n.BaselineGeo = d.BaselineGeo
	}
	if n.BaselineDemog == "" {
		n.BaselineDemog = d.BaselineDemog
	}
	return n
}
