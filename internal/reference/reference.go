// Package reference reads the table with reference compound masses.
//
// The table is a CSV file with a header line. It must contain a column with
// the (uncharged) mass of each compound, all other columns are descriptive.
// By convention, the first data row is not a compound: its mass is the
// ionization offset (the mass of a proton).
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/524D/fiannotate/internal/fia"
)

// DefaultMassColumn is the name of the mass column if none is specified
const DefaultMassColumn = "mass"

// Options selects the columns of the table
type Options struct {
	MassColumn string // name of the mass column, DefaultMassColumn if empty
	IDColumn   string // name of the column with compound IDs, row index if empty
}

// Table is the reference compound table
type Table struct {
	// Header contains the names of the descriptive columns, in file order.
	// The ID column (if any) is not included, the mass column is.
	Header []string
	// IDHeader is the name of the ID column, empty if compounds are
	// identified by their row index
	IDHeader string
	// MassIndex is the index of the mass column in Header
	MassIndex int
	compounds []fia.Compound
}

var (
	// ErrNoMassColumn means the table has no column with compound masses
	ErrNoMassColumn = errors.New("reference: mass column not found")
	// ErrNoIDColumn means the requested ID column doesn't exist
	ErrNoIDColumn = errors.New("reference: ID column not found")
	// ErrEmpty means the table contains no rows
	ErrEmpty = errors.New("reference: table has no rows")
	// ErrDuplicateID means two compounds have the same identifier
	ErrDuplicateID = errors.New("reference: duplicate compound ID")
	// ErrNoOffset means the first row contains no valid ionization offset
	ErrNoOffset = errors.New("reference: no ionization offset in first row")
)

// LoadFile reads a reference table from a file
func LoadFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot locate the CSV file containing reference masses: %w", err)
	}
	defer f.Close()
	t, err := Load(f, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Load reads a reference table in CSV format
func Load(r io.Reader, opt Options) (*Table, error) {
	if opt.MassColumn == "" {
		opt.MassColumn = DefaultMassColumn
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, ErrEmpty
	}

	header := records[0]
	massCol, idCol := -1, -1
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == opt.MassColumn {
			massCol = i
		}
		if opt.IDColumn != "" && h == opt.IDColumn {
			idCol = i
		}
	}
	if massCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMassColumn, opt.MassColumn)
	}
	if opt.IDColumn != "" && idCol < 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoIDColumn, opt.IDColumn)
	}
	if idCol == massCol {
		return nil, fmt.Errorf("ID column and mass column are both %q", opt.MassColumn)
	}

	t := &Table{IDHeader: opt.IDColumn}
	for i, h := range header {
		if i == idCol {
			continue
		}
		if i == massCol {
			t.MassIndex = len(t.Header)
		}
		t.Header = append(t.Header, strings.TrimSpace(h))
	}

	ids := make(map[string]int, len(records)-1)
	t.compounds = make([]fia.Compound, 0, len(records)-1)
	for n, rec := range records[1:] {
		line := n + 2
		mass, err := parseMass(rec[massCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid mass %q: %w", line, rec[massCol], err)
		}
		c := fia.Compound{
			ID:     strconv.Itoa(n),
			Row:    n,
			Mass:   mass,
			Fields: make([]string, 0, len(t.Header)),
		}
		if idCol >= 0 {
			c.ID = strings.TrimSpace(rec[idCol])
		}
		if prev, ok := ids[c.ID]; ok {
			return nil, fmt.Errorf("line %d: %w %q (also on line %d)", line, ErrDuplicateID, c.ID, prev)
		}
		ids[c.ID] = line
		for i, v := range rec {
			if i != idCol {
				c.Fields = append(c.Fields, v)
			}
		}
		t.compounds = append(t.compounds, c)
	}
	return t, nil
}

// parseMass parses a mass value. Empty values are accepted and result in
// NaN, so the compound is never a candidate.
func parseMass(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// Len returns the number of rows in the table, including the offset row
func (t *Table) Len() int {
	return len(t.compounds)
}

// Offset returns the ionization offset, the mass in the first row
func (t *Table) Offset() (float64, error) {
	m := t.compounds[0].Mass
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0, ErrNoOffset
	}
	return m, nil
}

// Candidates returns the compounds with a mass strictly between min and max.
// The first (offset) row is never a candidate.
func (t *Table) Candidates(min, max float64) []fia.Compound {
	var cands []fia.Compound
	for _, c := range t.compounds[1:] {
		if min < c.Mass && c.Mass < max {
			cands = append(cands, c)
		}
	}
	return cands
}
