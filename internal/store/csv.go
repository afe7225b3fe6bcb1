package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// writeCSV writes rows as a gzip-compressed CSV with a header row.
func writeCSV[T any](w io.Writer, cols []column[T], rows []T) error {
	gz := gzip.NewWriter(w)
	cw := csv.NewWriter(gz)
	if err := cw.Write(names(cols)); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for i := range rows {
		for j, c := range cols {
			record[j] = formatField(c.field(&rows[i]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return gz.Close()
}

// readCSV decodes a gzip-compressed CSV. Columns are matched by name,
// case-insensitively; extra columns are ignored.
func readCSV[T any](ctx context.Context, r io.Reader, cols []column[T]) ([]T, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := mapHeaders(header)
	if missing := missingHeaders(names(cols), index); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	pos := make([]int, len(cols))
	for i, c := range cols {
		pos[i] = index[c.name]
	}

	var rows []T
	line := 1
	for {
		line++
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		var row T
		for i, c := range cols {
			if err := parseField(c.field(&row), record[pos[i]]); err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, c.name, err)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func mapHeaders(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func missingHeaders(required []string, index map[string]int) []string {
	var missing []string
	for _, key := range required {
		if _, ok := index[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}
