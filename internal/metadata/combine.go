package metadata

import (
	"fmt"

	"go.uber.org/zap"
)

// OriginMarker flags the origins a strain was read from.
const OriginMarker = "yes"

// Source is one origin's metadata.
type Source struct {
	Origin string
	Path   string
	Table  *Table
}

// Combine merges sources in order into a single table.
func Combine(sources []Source, logger *zap.Logger) (*Table, error) {
	if len(sources) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewOrigins, len(sources))
	}

	for _, src := range sources {
		logger.Info("parsed metadata",
			zap.String("origin", src.Origin),
			zap.String("path", src.Path),
			zap.Int("strains", src.Table.Len()),
			zap.Int("columns", len(src.Table.Columns)),
		)
	}

	columns := make([]string, 0)
	seen := map[string]struct{}{}
	addColumn := func(c string) {
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		columns = append(columns, c)
	}
	for _, src := range sources {
		for _, c := range src.Table.Columns {
			addColumn(c)
		}
	}
	for _, src := range sources {
		addColumn(src.Origin)
	}

	combined := NewTable(columns)

	first := sources[0]
	for _, strain := range first.Table.strains {
		row := combined.row(strain)
		for column, value := range first.Table.rows[strain] {
			row[column] = value
		}
		row[first.Origin] = OriginMarker
	}

	for _, src := range sources[1:] {
		present := make(map[string]struct{}, len(src.Table.Columns))
		for _, c := range src.Table.Columns {
			present[c] = struct{}{}
		}

		for _, strain := range src.Table.strains {
			row := combined.row(strain)
			incoming := src.Table.rows[strain]
			for _, column := range columns {
				if _, ok := present[column]; !ok {
					continue
				}
				existing := row[column]
				value := incoming[column]
				if value == "" || value == existing {
					continue
				}
				if existing != "" {
					logger.Info("overwriting metadata value",
						zap.String("strain", strain),
						zap.String("column", column),
						zap.String("old", existing),
						zap.String("new", value),
						zap.String("origin", src.Origin),
					)
				}
				row[column] = value
			}
			row[src.Origin] = OriginMarker
		}
	}

	logger.Info("combined metadata",
		zap.Int("strains", combined.Len()),
		zap.Int("columns", len(combined.Columns)),
	)
	return combined, nil
}

// CombineFiles reads one metadata file per origin, combines them and writes
// the result to output. Compression follows each file's extension.
func CombineFiles(paths, origins []string, output string, logger *zap.Logger) error {
	if len(paths) != len(origins) {
		return fmt.Errorf("%w: %d files, %d origins", ErrOriginMismatch, len(paths), len(origins))
	}
	if len(origins) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewOrigins, len(origins))
	}

	sources := make([]Source, 0, len(paths))
	for i, path := range paths {
		table, err := ReadFile(path)
		if err != nil {
			return err
		}
		sources = append(sources, Source{Origin: origins[i], Path: path, Table: table})
	}

	combined, err := Combine(sources, logger)
	if err != nil {
		return err
	}

	return WriteFile(output, combined)
}
