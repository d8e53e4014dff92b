package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	perrors "github.com/matzehuels/plexsim/pkg/errors"
)

// WriteCSV encodes t as CSV and writes it to w. Attribute columns follow
// t.Names; x and y are appended when t.HasCoords is set. The output can be
// re-imported with [ReadCSV].
func WriteCSV(t *Table, w io.Writer) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), t.Names...)
	if t.HasCoords {
		header = append(header, "x", "y")
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	rec := make([]string, len(header))
	for i, row := range t.Rows {
		if row.Attrs.Size() != len(t.Names) {
			return fmt.Errorf("row %d: %d attributes, header has %d", i, row.Attrs.Size(), len(t.Names))
		}
		for j := range t.Names {
			rec[j] = row.Attrs.Value(j).Text()
		}
		if t.HasCoords {
			rec[len(t.Names)] = strconv.FormatFloat(row.X, 'g', -1, 64)
			rec[len(t.Names)+1] = strconv.FormatFloat(row.Y, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportCSV writes t to the file at path. The table is written to a
// temporary file next to path and renamed over it only once complete.
func ExportCSV(t *Table, path string) (err error) {
	if err := perrors.ValidateOutputPath(path); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "create %s", path)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if err = WriteCSV(t, f); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "write %s", path)
	}
	if err = f.Close(); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "close %s", path)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return perrors.Wrap(perrors.ErrCodeIO, err, "rename %s", path)
	}
	return nil
}
