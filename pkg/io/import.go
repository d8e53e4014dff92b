package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/matzehuels/plexsim/pkg/core/attrs"
	"github.com/matzehuels/plexsim/pkg/core/value"
	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// Row is one entity of a population table.
type Row struct {
	Attrs *attrs.Attributes
	X, Y  float64
}

// Table is a population: attribute names in scope order and one row per
// entity. HasCoords reports whether x and y were read from (or should be
// written to) the file.
type Table struct {
	Names     []string
	Rows      []Row
	HasCoords bool
}

// ReadCSV parses a population table from r, validating every cell against
// scope. ReadCSV does not close r.
//
// ReadCSV returns an error if:
//   - the header is missing, repeats a column, or names a column outside scope
//   - an attribute of scope has no column
//   - only one of x and y is present
//   - a row has the wrong number of cells
//   - a cell fails its attribute's range, or a coordinate is not a number
//
// Errors carry the line number of the offending row.
func ReadCSV(r io.Reader, scope *attrs.Scope) (*Table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "population table is empty")
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "read header")
	}

	cols, xCol, yCol, err := mapHeader(header, scope)
	if err != nil {
		return nil, err
	}

	t := &Table{Names: scope.Names(), HasCoords: xCol >= 0}
	ranges := scope.Ranges()
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "read row")
		}
		line, _ := cr.FieldPos(0)

		a := attrs.New(len(ranges))
		for _, rg := range ranges {
			cell := rec[cols[rg.ID()]]
			v := rg.Validate(cell)
			if !v.IsValid() {
				return nil, perrors.New(perrors.ErrCodeInvalidValue,
					"line %d: attribute %q: %q is not in %s", line, rg.Name(), cell, rg)
			}
			a.Replace(rg.ID(), rg.Name(), v)
		}

		row := Row{Attrs: a}
		if t.HasCoords {
			if row.X, err = coord(rec[xCol]); err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidValue, err, "line %d: column x", line)
			}
			if row.Y, err = coord(rec[yCol]); err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidValue, err, "line %d: column y", line)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// mapHeader returns, for every range id, the column holding it, plus the x
// and y columns (-1 when absent).
func mapHeader(header []string, scope *attrs.Scope) (cols []int, xCol, yCol int, err error) {
	cols = make([]int, scope.Len())
	for i := range cols {
		cols[i] = -1
	}
	xCol, yCol = -1, -1

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if seen[h] {
			return nil, 0, 0, perrors.New(perrors.ErrCodeInvalidInput, "header: duplicate column %q", h)
		}
		seen[h] = true

		switch h {
		case "x":
			xCol = i
			continue
		case "y":
			yCol = i
			continue
		}
		rg, ok := scope.Lookup(h)
		if !ok {
			return nil, 0, 0, perrors.New(perrors.ErrCodeInvalidInput,
				"header: unknown column %q (expected %s)", h, strings.Join(scope.Names(), ", "))
		}
		cols[rg.ID()] = i
	}

	if (xCol < 0) != (yCol < 0) {
		return nil, 0, 0, perrors.New(perrors.ErrCodeInvalidInput, "header: columns x and y must appear together")
	}
	for id, c := range cols {
		if c < 0 {
			return nil, 0, 0, perrors.New(perrors.ErrCodeInvalidInput, "header: missing attribute %q", scope.Range(id).Name())
		}
	}
	return cols, xCol, yCol, nil
}

func coord(s string) (float64, error) {
	v := value.ParseDouble(strings.TrimSpace(s))
	if !v.IsValid() {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v.Double(), nil
}

// ImportCSV reads a population table from the file at path.
// This is a convenience wrapper around [ReadCSV] for file-based input.
func ImportCSV(path string, scope *attrs.Scope) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, perrors.Wrap(perrors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	t, err := ReadCSV(f, scope)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
