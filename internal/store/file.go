package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MikeSquared-Agency/Funding/internal/stats"
	"github.com/MikeSquared-Agency/Funding/internal/survey"
)

// FileStore reads and writes gzip CSV snapshots in one directory.
type FileStore struct {
	dir   string
	names Names
}

func NewFileStore(dir string, names Names) *FileStore {
	return &FileStore{dir: dir, names: names.withDefaults()}
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) path(name string) string { return filepath.Join(s.dir, name) }

func (s *FileStore) LoadPersons(ctx context.Context) ([]survey.Person, error) {
	return readFile(ctx, s.path(s.names.Persons), personColumns)
}

func (s *FileStore) LoadHouseholds(ctx context.Context) ([]survey.Household, error) {
	return readFile(ctx, s.path(s.names.Households), householdColumns)
}

// LoadBaseline returns ErrNoBaseline when either baseline file is absent.
func (s *FileStore) LoadBaseline(ctx context.Context) ([]stats.GeographyStats, []stats.DemographicStats, error) {
	geo, err := readFile(ctx, s.path(s.names.BaselineGeo), geographyColumns)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNoBaseline
	}
	if err != nil {
		return nil, nil, err
	}
	recs, err := readFile(ctx, s.path(s.names.BaselineDemog), demogColumns)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNoBaseline
	}
	if err != nil {
		return nil, nil, err
	}
	demog, err := fromDemogRecords(recs)
	if err != nil {
		return nil, nil, err
	}
	return geo, demog, nil
}

func (s *FileStore) SavePersons(_ context.Context, persons []survey.Person) error {
	return writeFile(s.path(s.names.Persons), personColumns, persons)
}

func (s *FileStore) SaveHouseholds(_ context.Context, households []survey.Household) error {
	return writeFile(s.path(s.names.Households), householdColumns, households)
}

func (s *FileStore) SaveBaseline(_ context.Context, geo []stats.GeographyStats, demog []stats.DemographicStats) error {
	if err := writeFile(s.path(s.names.BaselineGeo), geographyColumns, geo); err != nil {
		return err
	}
	return writeFile(s.path(s.names.BaselineDemog), demogColumns, toDemogRecords(demog))
}

// Version combines the size and modification time of every snapshot
// file. Absent files contribute a placeholder.
func (s *FileStore) Version(context.Context) (string, error) {
	var b strings.Builder
	for _, name := range []string{s.names.Persons, s.names.Households, s.names.BaselineGeo, s.names.BaselineDemog} {
		info, err := os.Stat(s.path(name))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			fmt.Fprintf(&b, "%s:-;", name)
		case err != nil:
			return "", err
		default:
			fmt.Fprintf(&b, "%s:%d:%d;", name, info.Size(), info.ModTime().UnixNano())
		}
	}
	return b.String(), nil
}

func readFile[T any](ctx context.Context, path string, cols []column[T]) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := readCSV(ctx, f, cols)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// writeFile writes to a temporary file and renames it into place, so
// readers never observe a partial snapshot.
func writeFile[T any](path string, cols []column[T], rows []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := writeCSV(tmp, cols, rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
