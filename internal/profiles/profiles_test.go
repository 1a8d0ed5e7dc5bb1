package profiles

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/524D/fiannotate/internal/fia"
	"github.com/524D/fiannotate/internal/mzml"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t testing.TB, fn string, content string) {
	t.Helper()
	if err := os.WriteFile(fn, []byte(content), 0644); err != nil {
		t.Fatalf("Error writing %s: %v", fn, err)
	}
}

func writeMzML(t testing.TB, fn string, p fia.Profile, centroid bool) {
	t.Helper()
	doc := mzml.New(SampleID(fn))
	peaks := make([]mzml.Peak, len(p))
	for i, pt := range p {
		peaks[i] = mzml.Peak{Mz: pt.Mz, Intens: pt.Intens}
	}
	if _, err := doc.AppendSpectrum("scan=1", peaks, 1, centroid); err != nil {
		t.Fatalf("AppendSpectrum: %v", err)
	}
	f, err := os.Create(fn)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := doc.Write(f); err != nil {
		t.Fatalf("Write: %v", err)
	}
}

func TestReadText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want fia.Profile
	}{
		{"comma with header", "mz,intensity\n100.5,10\n101,20\n", fia.Profile{{Mz: 100.5, Intens: 10}, {Mz: 101, Intens: 20}}},
		{"tab", "100.5\t10\n101\t20\n", fia.Profile{{Mz: 100.5, Intens: 10}, {Mz: 101, Intens: 20}}},
		{"spaces and comments", "# exported\n\n  100.5   10  \n101 20\n", fia.Profile{{Mz: 100.5, Intens: 10}, {Mz: 101, Intens: 20}}},
		{"semicolon, extra column", "100.5;10;x\n", fia.Profile{{Mz: 100.5, Intens: 10}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadText(strings.NewReader(tc.text))
			if err != nil {
				t.Fatalf("ReadText: error return %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("ReadText mismatch (-want +got):\n%s", diff)
			}
		})
	}

	malformed := []string{
		"100.5\n",
		"100,1\n101,abc\n",
		"100,1\nmz,intensity\n",
		"1e,5\nx,6\n100,5\n101,6\n",          // corrupt first row is not a header
		"mz,intensity\nx,6\n100,5\n101,6\n",  // only one header line
		"# comment\nmz,10\n100,5\n",          // header with a numeric field
	}
	for _, text := range malformed {
		if _, err := ReadText(strings.NewReader(text)); !errors.Is(err, ErrMalformed) {
			t.Errorf("ReadText(%q): expected ErrMalformed, got: %v", text, err)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, fia.ErrEmptyProfile) {
		t.Errorf("Expected ErrEmptyProfile, got: %v", err)
	}
	if err := Validate(fia.Profile{{Mz: 2, Intens: 1}, {Mz: 1, Intens: 1}}); !errors.Is(err, ErrUnsorted) {
		t.Errorf("Expected ErrUnsorted, got: %v", err)
	}
	if err := Validate(fia.Profile{{Mz: 1, Intens: math.NaN()}}); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got: %v", err)
	}
	if err := Validate(fia.Profile{{Mz: 1, Intens: 1}, {Mz: 1, Intens: 2}, {Mz: 3, Intens: 0}}); err != nil {
		t.Errorf("Expected valid profile, got: %v", err)
	}
}

func TestDirProfiles(t *testing.T) {
	root := t.TempDir()
	batch := filepath.Join(root, "EXP-1")
	if err := os.Mkdir(batch, 0755); err != nil {
		t.Fatal(err)
	}
	profA := fia.Profile{{Mz: 100, Intens: 1}, {Mz: 100.25, Intens: 50}, {Mz: 100.5, Intens: 2}}
	profB := fia.Profile{{Mz: 100, Intens: 3}, {Mz: 100.25, Intens: 70}, {Mz: 100.5, Intens: 1}}
	writeMzML(t, filepath.Join(batch, "A.mzML"), profA, false)
	writeMzML(t, filepath.Join(batch, "C.mzML"), profA, true)
	writeFile(t, filepath.Join(batch, "B.txt"), "mz\tintensity\n100\t3\n100.25\t70\n100.5\t1\n")
	writeFile(t, filepath.Join(batch, "notes.md"), "not a sample")
	if err := os.Mkdir(filepath.Join(batch, "sub.txt"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := Dir{Root: root}.Profiles("EXP-1")
	if err != nil {
		t.Fatalf("Profiles: error return %v", err)
	}
	want := map[string]fia.Profile{"A": profA, "B": profB, "C": profA}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestDirProfilesErrors(t *testing.T) {
	root := t.TempDir()

	if _, err := (Dir{Root: root}).Profiles("missing"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got: %v", err)
	}
	if _, err := (Dir{Root: root}).Profiles("../x"); err == nil {
		t.Errorf("Expected error for batch outside root")
	}

	empty := filepath.Join(root, "empty")
	os.Mkdir(empty, 0755)
	if _, err := (Dir{Root: root}).Profiles("empty"); !errors.Is(err, ErrNoSamples) {
		t.Errorf("Expected ErrNoSamples, got: %v", err)
	}

	dup := filepath.Join(root, "dup")
	os.Mkdir(dup, 0755)
	writeFile(t, filepath.Join(dup, "A.txt"), "1,1\n")
	writeFile(t, filepath.Join(dup, "A.csv"), "1,1\n")
	if _, err := (Dir{Root: root}).Profiles("dup"); !errors.Is(err, ErrDuplicateSample) {
		t.Errorf("Expected ErrDuplicateSample, got: %v", err)
	}

	bad := filepath.Join(root, "bad")
	os.Mkdir(bad, 0755)
	writeFile(t, filepath.Join(bad, "A.txt"), "2,1\n1,1\n")
	if _, err := (Dir{Root: root}).Profiles("bad"); !errors.Is(err, ErrUnsorted) {
		t.Errorf("Expected ErrUnsorted, got: %v", err)
	}

	blank := filepath.Join(root, "blank")
	os.Mkdir(blank, 0755)
	writeFile(t, filepath.Join(blank, "A.txt"), "# nothing\n")
	if _, err := (Dir{Root: root}).Profiles("blank"); !errors.Is(err, fia.ErrEmptyProfile) {
		t.Errorf("Expected ErrEmptyProfile, got: %v", err)
	}
}

func TestSampleID(t *testing.T) {
	if id := SampleID("/data/EXP-1/S01.b.mzML"); id != "S01.b" {
		t.Errorf("SampleID: %q, should be S01.b", id)
	}
	if !Supported("x.MZML") || Supported("x.raw") {
		t.Errorf("Supported: unexpected result")
	}
}
