// Package profiles provides the raw profiles of the samples in a batch.
//
// A batch is a directory containing one file per sample. The sample ID is
// the file name without extension. Supported files are mzML (the first MS1
// spectrum is the profile) and text files with two numeric columns
// (m/z and intensity).
package profiles

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/524D/fiannotate/internal/fia"
	"github.com/524D/fiannotate/internal/mzml"
)

// Provider returns the profiles of all samples in a batch
type Provider interface {
	Profiles(batch string) (map[string]fia.Profile, error)
}

var (
	// ErrNoSamples means the batch contains no sample files
	ErrNoSamples = errors.New("profiles: no samples in batch")
	// ErrDuplicateSample means two files have the same sample ID
	ErrDuplicateSample = errors.New("profiles: duplicate sample")
	// ErrUnsorted means the m/z values of a profile are not ascending
	ErrUnsorted = errors.New("profiles: m/z values not sorted")
	// ErrMalformed means a profile contains a value that is not a number
	ErrMalformed = errors.New("profiles: malformed profile")
	// ErrUnknownFormat means the file extension is not supported
	ErrUnknownFormat = errors.New("profiles: unknown file format")
)

// Dir provides the profiles stored in a directory per batch
type Dir struct {
	Root string // directory that contains a sub directory for each batch
}

// Profiles reads all sample files in directory Root/batch
func (d Dir) Profiles(batch string) (map[string]fia.Profile, error) {
	if batch == "" || batch != filepath.Base(batch) {
		return nil, fmt.Errorf("invalid batch identifier %q", batch)
	}
	dir := filepath.Join(d.Root, batch)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]fia.Profile)
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		fn := filepath.Join(dir, e.Name())
		sample := SampleID(fn)
		if _, ok := profiles[sample]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSample, sample)
		}
		p, err := ReadFile(fn)
		if err != nil {
			return nil, err
		}
		profiles[sample] = p
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSamples, dir)
	}
	return profiles, nil
}

// SampleID returns the sample identifier for a file name
func SampleID(fn string) string {
	base := filepath.Base(fn)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Supported reports whether a file has an extension that can be read
func Supported(fn string) bool {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".mzml", ".txt", ".tsv", ".csv":
		return true
	}
	return false
}

// ReadFile reads a profile from an mzML or text file
func ReadFile(fn string) (fia.Profile, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p fia.Profile
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".mzml":
		p, err = ReadMzML(f)
	case ".txt", ".tsv", ".csv":
		p, err = ReadText(f)
	default:
		err = ErrUnknownFormat
	}
	if err == nil {
		err = Validate(p)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return p, nil
}

// ReadMzML reads the first MS1 spectrum of an mzML file as profile
func ReadMzML(r io.Reader) (fia.Profile, error) {
	mzML, err := mzml.Read(r)
	if err != nil {
		return nil, err
	}
	idx, err := mzML.FirstMS1()
	if err != nil {
		return nil, err
	}
	centroid, err := mzML.Centroid(idx)
	if err != nil {
		return nil, err
	}
	if centroid {
		id, _ := mzML.ScanID(idx)
		log.Printf("Warning: spectrum %s is centroided, peaks are detected as if it were a profile", id)
	}
	peaks, err := mzML.ReadScan(idx)
	if err != nil {
		return nil, err
	}
	p := make(fia.Profile, len(peaks))
	for i, peak := range peaks {
		p[i] = fia.Point{Mz: peak.Mz, Intens: peak.Intens}
	}
	return p, nil
}

// ReadText reads a profile from text with two columns: m/z and intensity.
// Columns are separated by comma, semicolon, tab or spaces. Empty lines and
// lines starting with '#' are skipped. The first other line is a header
// if neither of its first two fields is a number.
func ReadText(r io.Reader) (fia.Profile, error) {
	var p fia.Profile
	scanner := bufio.NewScanner(r)
	lineNum := 0
	first := true // only the first content line can be a header
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		header := first
		first = false
		parts := strings.FieldsFunc(line, func(c rune) bool {
			return c == ',' || c == ';' || c == '\t' || c == ' '
		})
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields (mz,intensity), got %d: %w",
				lineNum, len(parts), ErrMalformed)
		}
		mz, err1 := strconv.ParseFloat(parts[0], 64)
		intens, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			if header && err1 != nil && err2 != nil {
				continue
			}
			return nil, fmt.Errorf("line %d: invalid value: %w", lineNum, ErrMalformed)
		}
		p = append(p, fia.Point{Mz: mz, Intens: intens})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that a profile is usable: it must contain at least one
// point, all values must be finite and m/z values must be ascending
func Validate(p fia.Profile) error {
	if len(p) == 0 {
		return fia.ErrEmptyProfile
	}
	for i, pt := range p {
		if !finite(pt.Mz) || !finite(pt.Intens) {
			return fmt.Errorf("point %d: %w", i, ErrMalformed)
		}
		if i > 0 && pt.Mz < p[i-1].Mz {
			return fmt.Errorf("point %d: %w", i, ErrUnsorted)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
