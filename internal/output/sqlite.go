package output

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE compound (
	id          TEXT PRIMARY KEY,
	ref_row     INTEGER,
	mass        DOUBLE,
	median_mass DOUBLE,
	hits        INTEGER
);

CREATE TABLE compound_field (
	compound_id TEXT REFERENCES compound(id),
	name        TEXT,
	value       TEXT
);

CREATE TABLE sample (
	id TEXT PRIMARY KEY
);

CREATE TABLE intensity (
	compound_id TEXT REFERENCES compound(id),
	sample_id   TEXT REFERENCES sample(id),
	value       REAL,
	matched     BOOL,
	PRIMARY KEY (compound_id, sample_id)
);
`

// sqliteWriter writes a result table to a SQLite database
type sqliteWriter struct {
	db            *sql.DB
	tx            *sql.Tx
	compoundStmt  *sql.Stmt
	fieldStmt     *sql.Stmt
	sampleStmt    *sql.Stmt
	intensityStmt *sql.Stmt
}

// WriteSQLite writes the table to a new SQLite database in file fn.
// All rows are written in a single transaction.
func WriteSQLite(fn string, t *Table) error {
	db, err := sql.Open("sqlite3", fn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	w := &sqliteWriter{db: db}
	err = w.write(t)
	if cerr := db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	return err
}

func (w *sqliteWriter) write(t *Table) error {
	if _, err := w.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	w.tx = tx
	if err := w.prepareStatements(); err != nil {
		tx.Rollback()
		return err
	}
	defer w.closeStatements()

	if err := w.writeRows(t); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *sqliteWriter) prepareStatements() error {
	var err error
	w.compoundStmt, err = w.tx.Prepare(`
		INSERT INTO compound (id, ref_row, mass, median_mass, hits)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare compound statement: %w", err)
	}
	w.fieldStmt, err = w.tx.Prepare(`
		INSERT INTO compound_field (compound_id, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare field statement: %w", err)
	}
	w.sampleStmt, err = w.tx.Prepare(`INSERT INTO sample (id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample statement: %w", err)
	}
	w.intensityStmt, err = w.tx.Prepare(`
		INSERT INTO intensity (compound_id, sample_id, value, matched)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare intensity statement: %w", err)
	}
	return nil
}

func (w *sqliteWriter) closeStatements() {
	for _, s := range []*sql.Stmt{w.compoundStmt, w.fieldStmt, w.sampleStmt, w.intensityStmt} {
		if s != nil {
			s.Close()
		}
	}
}

func (w *sqliteWriter) writeRows(t *Table) error {
	r := t.Result
	for _, s := range r.Samples {
		if _, err := w.sampleStmt.Exec(s); err != nil {
			return fmt.Errorf("failed to insert sample %s: %w", s, err)
		}
	}
	for j, c := range r.Compounds {
		// Values are stored with the same (single) precision as in CSV output
		_, err := w.compoundStmt.Exec(c.ID, c.Row,
			float64(float32(c.Mass)), float64(float32(r.Medians[j])), r.Hits[j])
		if err != nil {
			return fmt.Errorf("failed to insert compound %s: %w", c.ID, err)
		}
		for k, v := range c.Fields {
			if k == t.MassIndex {
				continue
			}
			if _, err := w.fieldStmt.Exec(c.ID, t.Header[k], v); err != nil {
				return fmt.Errorf("failed to insert field of compound %s: %w", c.ID, err)
			}
		}
		for i, s := range r.Samples {
			_, err := w.intensityStmt.Exec(c.ID, s, float64(float32(r.Intens[j][i])), r.Matched[j][i])
			if err != nil {
				return fmt.Errorf("failed to insert intensity %s/%s: %w", c.ID, s, err)
			}
		}
	}
	return nil
}
