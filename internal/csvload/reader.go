// Package csvload parses wow.tools CSV exports into typed frames ready to be
// inserted into the relational store.
package csvload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ReadFile parses the CSV file at path.
func ReadFile(path string, opts Options) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()

	frame, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// Read parses CSV data with a header row. A leading UTF-8 byte order mark is dropped.
func Read(r io.Reader, opts Options) (*Frame, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	reader.Comma = opts.comma()

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("CSV input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	header = DedupeNames(header)

	keep, err := selectColumns(header, opts.UseCols)
	if err != nil {
		return nil, err
	}
	for col := range opts.DType {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("dtype column %q not in header", col)
		}
	}

	na := make(map[string]bool, len(opts.NAValues)+1)
	na[""] = true
	for _, v := range opts.NAValues {
		na[v] = true
	}

	var cells [][]string
	var nulls [][]bool
	skipped := 0
	for opts.NRows == 0 || len(cells) < opts.NRows {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid record: %w", err)
		}
		if skipped < opts.SkipRows {
			skipped++
			continue
		}

		row := make([]string, len(keep))
		isNull := make([]bool, len(keep))
		for i, idx := range keep {
			row[i] = record[idx]
			isNull[i] = na[record[idx]]
		}
		cells = append(cells, row)
		nulls = append(nulls, isNull)
	}

	frame := &Frame{Columns: make([]Column, len(keep))}
	for i, idx := range keep {
		name := header[idx]
		colType, forced := dtypes[opts.DType[name]]
		if !forced {
			colType = inferType(cells, nulls, i)
		}
		frame.Columns[i] = Column{Name: name, Type: colType}
	}

	frame.Rows = make([][]any, len(cells))
	for r, row := range cells {
		values := make([]any, len(row))
		for c, cell := range row {
			if nulls[r][c] {
				continue
			}
			v, err := convert(cell, frame.Columns[c].Type)
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", r+1, frame.Columns[c].Name, err)
			}
			values[c] = v
		}
		frame.Rows[r] = values
	}

	return frame, nil
}

// DedupeNames renames repeated column names to name.1, name.2 and so on.
func DedupeNames(header []string) []string {
	seen := make(map[string]bool, len(header))
	for _, name := range header {
		seen[name] = false
	}
	out := make([]string, len(header))
	for i, name := range header {
		if !seen[name] {
			seen[name] = true
			out[i] = name
			continue
		}
		for n := 1; ; n++ {
			candidate := fmt.Sprintf("%s.%d", name, n)
			if _, taken := seen[candidate]; !taken {
				seen[candidate] = true
				out[i] = candidate
				break
			}
		}
	}
	return out
}

func selectColumns(header, useCols []string) ([]int, error) {
	if len(useCols) == 0 {
		keep := make([]int, len(header))
		for i := range header {
			keep[i] = i
		}
		return keep, nil
	}

	for _, col := range useCols {
		if !slices.Contains(header, col) {
			return nil, fmt.Errorf("usecols column %q not in header", col)
		}
	}
	var keep []int
	for i, name := range header {
		if slices.Contains(useCols, name) {
			keep = append(keep, i)
		}
	}
	return keep, nil
}

// inferType picks the narrowest type that every non-null cell of column col parses as.
func inferType(cells [][]string, nulls [][]bool, col int) ColumnType {
	colType := ColumnTypeInteger
	seen := false
	for r, row := range cells {
		if nulls[r][col] {
			continue
		}
		seen = true
		cell := row[col]
		if colType == ColumnTypeInteger {
			if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
				continue
			}
			colType = ColumnTypeReal
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return ColumnTypeText
		}
	}
	if !seen {
		return ColumnTypeText
	}
	return colType
}

func convert(cell string, colType ColumnType) (any, error) {
	switch colType {
	case ColumnTypeInteger:
		return strconv.ParseInt(cell, 10, 64)
	case ColumnTypeReal:
		return strconv.ParseFloat(cell, 64)
	default:
		return cell, nil
	}
}
