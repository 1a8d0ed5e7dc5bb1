// Package fia annotates flow injection analysis (FIA) mass spectrometry
// profiles with the compounds of a reference mass table.
//
// The annotation is done in three stages:
//   - peaks (local maxima) are extracted from the profile of each sample
//   - each reference compound is matched to the closest peak of each sample
//   - a compound x sample intensity matrix is built, using the raw profile
//     at the median matched mass for samples where the compound was not found
package fia

import (
	"errors"
	"fmt"
	"sort"
)

// Point contains a single m/z, intensity pair of a profile
type Point struct {
	Mz     float64
	Intens float64
}

// Profile is the raw (not peak picked) spectrum of a sample,
// sorted by m/z
type Profile []Point

// Peak is a local maximum in a profile
type Peak struct {
	Index  int // Index of the peak in the profile
	Mz     float64
	Intens float64
}

// Compound is a reference compound with its uncharged mass.
// Fields holds the descriptive columns of the reference table,
// they are passed on unmodified to the result.
type Compound struct {
	ID     string
	Row    int // Row in the reference table
	Mass   float64
	Fields []string
}

// Params contains the parameters of the annotation
type Params struct {
	MinPeak float64 // minimum intensity of a peak
	MaxDiff float64 // max mass difference for matching a compound to a peak
	Offset  float64 // ionization mass offset, added to the peak m/z
}

// Stage identifies a step of the annotation, used to report progress
type Stage int

const (
	StagePeaks Stage = iota
	StageMatch
	StageReconcile
)

func (s Stage) String() string {
	switch s {
	case StagePeaks:
		return "Centroids identification"
	case StageMatch:
		return "Metabolites identification"
	case StageReconcile:
		return "Creating final matrix"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// ProgressFunc is called when a stage starts (done == 0) and after
// each sample that was processed by that stage
type ProgressFunc func(stage Stage, done, total int)

var (
	// ErrNoSamples means that there is nothing to annotate
	ErrNoSamples = errors.New("fia: no samples")
	// ErrEmptyProfile means a sample has a profile without any points
	ErrEmptyProfile = errors.New("fia: empty profile")
)

// SampleIDs returns the sample identifiers of profiles in ascending order
func SampleIDs(profiles map[string]Profile) []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Annotate runs all annotation stages on a set of sample profiles.
// Compounds must already be restricted to the candidates (mass range) that
// should be considered. progress may be nil.
func Annotate(profiles map[string]Profile, compounds []Compound,
	par Params, progress ProgressFunc) (Result, error) {
	if progress == nil {
		progress = func(Stage, int, int) {}
	}
	if len(profiles) == 0 {
		return Result{}, ErrNoSamples
	}
	samples := SampleIDs(profiles)
	n := len(samples)
	ordered := make([]Profile, n)
	for i, s := range samples {
		if len(profiles[s]) == 0 {
			return Result{}, fmt.Errorf("sample %s: %w", s, ErrEmptyProfile)
		}
		ordered[i] = profiles[s]
	}

	progress(StagePeaks, 0, n)
	peaks := make([][]Peak, n)
	for i, p := range ordered {
		peaks[i] = ExtractPeaks(p, par.MinPeak)
		progress(StagePeaks, i+1, n)
	}

	progress(StageMatch, 0, n)
	perSample := make([][]Match, n)
	for i := range peaks {
		perSample[i] = MatchSample(peaks[i], compounds, par)
		progress(StageMatch, i+1, n)
	}
	m := Retain(compounds, perSample)

	return Reconcile(samples, ordered, peaks, m, func(done int) {
		progress(StageReconcile, done, n)
	})
}
