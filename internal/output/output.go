// Package output writes the compound x sample intensity table
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/524D/fiannotate/internal/fia"
)

// Table is the annotation result joined with the reference table layout
type Table struct {
	IDHeader  string   // name of the index column, empty for the row index
	Header    []string // names of the descriptive columns
	MassIndex int      // index of the mass column in Header, -1 if none
	Result    fia.Result
}

// FormatFloat formats intensities and masses with single precision
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 32)
}

// Rows returns the table as text, including a header row
func (t *Table) Rows() [][]string {
	r := t.Result
	rows := make([][]string, 0, len(r.Compounds)+1)
	header := make([]string, 0, 1+len(t.Header)+len(r.Samples))
	header = append(header, t.IDHeader)
	header = append(header, t.Header...)
	header = append(header, r.Samples...)
	rows = append(rows, header)
	for j, c := range r.Compounds {
		row := make([]string, 0, len(header))
		row = append(row, c.ID)
		for k, v := range c.Fields {
			if k == t.MassIndex {
				v = FormatFloat(c.Mass)
			}
			row = append(row, v)
		}
		for i := range r.Samples {
			row = append(row, FormatFloat(r.Intens[j][i]))
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteCSV writes the table as comma separated values
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Rows()); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return nil
}

// IsSQLite reports whether a file name selects the SQLite output format
func IsSQLite(fn string) bool {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	}
	return false
}

// Save writes the table to fn, as SQLite database if the extension
// is .db or .sqlite and as CSV otherwise.
// The output is first written to a temporary file that is renamed to fn
// when complete, so fn is never left with partial results.
func Save(fn string, t *Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(fn), "."+filepath.Base(fn)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if IsSQLite(fn) {
		// SQLite opens the file itself
		tmp.Close()
		err = WriteSQLite(tmpName, t)
	} else {
		err = WriteCSV(tmp, t)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}
	// CreateTemp makes the file only accessible for the owner
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpName, fn); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
