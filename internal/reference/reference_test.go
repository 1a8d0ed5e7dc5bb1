package reference

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testTable = `name,formula,mass
H+,H,1.007276
glycine,C2H5NO2,75.032028
too light,X,49.0
boundary,Y,50
citrate,C6H8O7,192.027003
heavy,Z,1000.5
`

func TestLoad(t *testing.T) {
	tab, err := Load(strings.NewReader(testTable), Options{})
	if err != nil {
		t.Fatalf("Load: error return %v", err)
	}
	if tab.Len() != 6 {
		t.Errorf("Expected 6 rows, got: %d", tab.Len())
	}
	if diff := cmp.Diff([]string{"name", "formula", "mass"}, tab.Header); diff != "" {
		t.Errorf("Header mismatch (-want +got):\n%s", diff)
	}
	if tab.MassIndex != 2 {
		t.Errorf("Expected mass index 2, got: %d", tab.MassIndex)
	}
	off, err := tab.Offset()
	if err != nil || off != 1.007276 {
		t.Errorf("Offset: %f, %v", off, err)
	}

	cands := tab.Candidates(50, 1000)
	var ids []string
	for _, c := range cands {
		ids = append(ids, c.ID)
	}
	// Row index is the ID; 50 is excluded because the range is exclusive
	if diff := cmp.Diff([]string{"1", "4"}, ids); diff != "" {
		t.Errorf("Candidates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"citrate", "C6H8O7", "192.027003"}, cands[1].Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
	if cands[1].Row != 4 {
		t.Errorf("Expected row 4, got: %d", cands[1].Row)
	}
}

func TestLoadIDColumn(t *testing.T) {
	tab, err := Load(strings.NewReader(testTable), Options{IDColumn: "name"})
	if err != nil {
		t.Fatalf("Load: error return %v", err)
	}
	if tab.IDHeader != "name" {
		t.Errorf("Expected IDHeader name, got: %q", tab.IDHeader)
	}
	if diff := cmp.Diff([]string{"formula", "mass"}, tab.Header); diff != "" {
		t.Errorf("Header mismatch (-want +got):\n%s", diff)
	}
	if tab.MassIndex != 1 {
		t.Errorf("Expected mass index 1, got: %d", tab.MassIndex)
	}
	cands := tab.Candidates(50, 1000)
	if len(cands) != 2 || cands[0].ID != "glycine" || cands[1].ID != "citrate" {
		t.Errorf("Unexpected candidates: %+v", cands)
	}
	if diff := cmp.Diff([]string{"C2H5NO2", "75.032028"}, cands[0].Fields); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		opt   Options
		want  error
	}{
		{"no mass column", "name,weight\nH+,1.0\n", Options{}, ErrNoMassColumn},
		{"no id column", testTable, Options{IDColumn: "id"}, ErrNoIDColumn},
		{"header only", "name,mass\n", Options{}, ErrEmpty},
		{"duplicate id", "name,mass\nH+,1\na,60\na,70\n", Options{IDColumn: "name"}, ErrDuplicateID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.table), tc.opt)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got: %v", tc.want, err)
			}
		})
	}

	_, err := Load(strings.NewReader("name,mass\nH+,1\na,sixty\n"), Options{})
	if err == nil {
		t.Errorf("Expected error for invalid mass")
	}
}

func TestBlankMass(t *testing.T) {
	tab, err := Load(strings.NewReader("name,mass\n,\na,\nb,60\n"), Options{})
	if err != nil {
		t.Fatalf("Load: error return %v", err)
	}
	if _, err := tab.Offset(); !errors.Is(err, ErrNoOffset) {
		t.Errorf("Expected ErrNoOffset, got: %v", err)
	}
	cands := tab.Candidates(0, 100)
	if len(cands) != 1 || cands[0].ID != "2" {
		t.Errorf("Expected only compound 2, got: %+v", cands)
	}
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "EMDTB.csv"), Options{})
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got: %v", err)
	}

	fn := filepath.Join(t.TempDir(), "ref.csv")
	if err := os.WriteFile(fn, []byte(testTable), 0644); err != nil {
		t.Fatal(err)
	}
	tab, err := LoadFile(fn, Options{MassColumn: "mass"})
	if err != nil {
		t.Fatalf("LoadFile: error return %v", err)
	}
	if tab.Len() != 6 {
		t.Errorf("Expected 6 rows, got: %d", tab.Len())
	}
}
