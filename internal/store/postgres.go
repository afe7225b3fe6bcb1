package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

const (
	tablePersons       = "persons"
	tableHouseholds    = "spm_units"
	tableBaselineGeo   = "baseline_geo"
	tableBaselineDemog = "baseline_demog"
)

const schema = `
CREATE TABLE IF NOT EXISTS persons (
	person_id          TEXT NOT NULL,
	spmfamunit         BIGINT NOT NULL,
	year               INTEGER NOT NULL,
	state              TEXT NOT NULL,
	age                INTEGER NOT NULL,
	adult              BOOLEAN NOT NULL,
	child              BOOLEAN NOT NULL,
	black              BOOLEAN NOT NULL,
	white_non_hispanic BOOLEAN NOT NULL,
	hispanic           BOOLEAN NOT NULL,
	pwd                BOOLEAN NOT NULL,
	non_citizen        BOOLEAN NOT NULL,
	non_citizen_child  BOOLEAN NOT NULL,
	non_citizen_adult  BOOLEAN NOT NULL,
	spmtotres          DOUBLE PRECISION NOT NULL,
	spmthresh          DOUBLE PRECISION NOT NULL,
	spmwt              DOUBLE PRECISION NOT NULL,
	spmsnap            DOUBLE PRECISION NOT NULL,
	spmheat            DOUBLE PRECISION NOT NULL,
	numper             INTEGER NOT NULL,
	adjginc            DOUBLE PRECISION NOT NULL,
	fica               DOUBLE PRECISION NOT NULL,
	fedtaxac           DOUBLE PRECISION NOT NULL,
	ctc                DOUBLE PRECISION NOT NULL,
	incssi             DOUBLE PRECISION NOT NULL,
	incunemp           DOUBLE PRECISION NOT NULL,
	eitcred            DOUBLE PRECISION NOT NULL,
	stataxac           DOUBLE PRECISION NOT NULL,
	asecwt             DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (year, spmfamunit, person_id)
);

CREATE TABLE IF NOT EXISTS spm_units (
	spmfamunit        BIGINT NOT NULL,
	year              INTEGER NOT NULL,
	state             TEXT NOT NULL,
	spmthresh         DOUBLE PRECISION NOT NULL,
	spmtotres         DOUBLE PRECISION NOT NULL,
	spmwt             DOUBLE PRECISION NOT NULL,
	spmsnap           DOUBLE PRECISION NOT NULL,
	spmheat           DOUBLE PRECISION NOT NULL,
	numper            INTEGER NOT NULL,
	adjginc           DOUBLE PRECISION NOT NULL,
	fica              DOUBLE PRECISION NOT NULL,
	fedtaxac          DOUBLE PRECISION NOT NULL,
	ctc               DOUBLE PRECISION NOT NULL,
	incssi            DOUBLE PRECISION NOT NULL,
	incunemp          DOUBLE PRECISION NOT NULL,
	eitcred           DOUBLE PRECISION NOT NULL,
	stataxac          DOUBLE PRECISION NOT NULL,
	child             INTEGER NOT NULL,
	adult             INTEGER NOT NULL,
	non_citizen       INTEGER NOT NULL,
	non_citizen_child INTEGER NOT NULL,
	non_citizen_adult INTEGER NOT NULL,
	PRIMARY KEY (year, spmfamunit)
);

CREATE TABLE IF NOT EXISTS baseline_geo (
	state           TEXT PRIMARY KEY,
	poverty_gap     DOUBLE PRECISION NOT NULL,
	gini            DOUBLE PRECISION NOT NULL,
	total_resources DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS baseline_demog (
	state  TEXT NOT NULL,
	demog  TEXT NOT NULL,
	metric TEXT NOT NULL,
	value  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (state, demog, metric)
);
`

// PostgresStore serves snapshots from PostgreSQL tables that mirror the
// CSV snapshot columns.
type PostgresStore struct {
	pool *pgxpool.Pool
	psql sq.StatementBuilderType
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the snapshot tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) LoadPersons(ctx context.Context) ([]survey.Person, error) {
	return selectAll(ctx, s, tablePersons, personColumns, "year", "spmfamunit", "person_id")
}

func (s *PostgresStore) LoadHouseholds(ctx context.Context) ([]survey.Household, error) {
	return selectAll(ctx, s, tableHouseholds, householdColumns, "year", "spmfamunit")
}

// LoadBaseline returns ErrNoBaseline when the baseline tables are empty.
func (s *PostgresStore) LoadBaseline(ctx context.Context) ([]stats.GeographyStats, []stats.DemographicStats, error) {
	geo, err := selectAll(ctx, s, tableBaselineGeo, geographyColumns, "state")
	if err != nil {
		return nil, nil, err
	}
	if len(geo) == 0 {
		return nil, nil, ErrNoBaseline
	}
	recs, err := selectAll(ctx, s, tableBaselineDemog, demogColumns, "state", "demog", "metric")
	if err != nil {
		return nil, nil, err
	}
	demog, err := fromDemogRecords(recs)
	if err != nil {
		return nil, nil, err
	}
	return geo, demog, nil
}

func selectAll[T any](ctx context.Context, s *PostgresStore, table string, cols []column[T], orderBy ...string) ([]T, error) {
	query, args, err := s.psql.Select(names(cols)...).From(table).OrderBy(orderBy...).ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var row T
		if err := rows.Scan(targets(cols, &row)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SavePersons(ctx context.Context, persons []survey.Person) error {
	return s.replace(ctx, func(tx pgx.Tx) error {
		return copyRows(ctx, tx, tablePersons, personColumns, persons)
	}, tablePersons)
}

func (s *PostgresStore) SaveHouseholds(ctx context.Context, households []survey.Household) error {
	return s.replace(ctx, func(tx pgx.Tx) error {
		return copyRows(ctx, tx, tableHouseholds, householdColumns, households)
	}, tableHouseholds)
}

func (s *PostgresStore) SaveBaseline(ctx context.Context, geo []stats.GeographyStats, demog []stats.DemographicStats) error {
	return s.replace(ctx, func(tx pgx.Tx) error {
		if err := copyRows(ctx, tx, tableBaselineGeo, geographyColumns, geo); err != nil {
			return err
		}
		return copyRows(ctx, tx, tableBaselineDemog, demogColumns, toDemogRecords(demog))
	}, tableBaselineGeo, tableBaselineDemog)
}

// replace truncates tables and refills them in one transaction.
func (s *PostgresStore) replace(ctx context.Context, fill func(pgx.Tx) error, tables ...string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, t := range tables {
		if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{t}.Sanitize()); err != nil {
			return fmt.Errorf("truncate %s: %w", t, err)
		}
	}
	if err := fill(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func copyRows[T any](ctx context.Context, tx pgx.Tx, table string, cols []column[T], rows []T) error {
	_, err := tx.CopyFrom(ctx, pgx.Identifier{table}, names(cols),
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			return values(cols, &rows[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	return nil
}
