package fia

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// Three samples, with profiles on a 0.5 Da grid. Compound "x" (mass 101)
// is found in A and B, "y" (mass 102.5) in all samples and "z" nowhere.
func testProfiles() map[string]Profile {
	return map[string]Profile{
		"B": {{99, 1}, {99.5, 3}, {100, 9000}, {100.5, 2}, {101, 1}, {101.5, 700}, {102, 1}},
		"A": {{99, 1}, {99.5, 2}, {100, 8000}, {100.5, 1}, {101, 2}, {101.5, 600}, {102, 1}},
		"C": {{99, 5}, {99.5, 4}, {100, 30}, {100.5, 3}, {101, 4}, {101.5, 6000}, {102, 2}},
	}
}

func testCompounds() []Compound {
	return []Compound{
		{ID: "x", Row: 1, Mass: 101},
		{ID: "z", Row: 2, Mass: 120},
		{ID: "y", Row: 3, Mass: 102.5},
	}
}

var testParams = Params{MinPeak: 500, MaxDiff: 0.125, Offset: 1}

func TestAnnotate(t *testing.T) {
	var calls []Stage
	r, err := Annotate(testProfiles(), testCompounds(), testParams,
		func(s Stage, done, total int) {
			if total != 3 {
				t.Errorf("Expected total 3, got: %d", total)
			}
			if done == 0 {
				calls = append(calls, s)
			}
		})
	if err != nil {
		t.Fatalf("Annotate: error return %v", err)
	}
	if diff := cmp.Diff([]Stage{StagePeaks, StageMatch, StageReconcile}, calls); diff != "" {
		t.Errorf("stages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, r.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	var ids []string
	for _, c := range r.Compounds {
		ids = append(ids, c.ID)
	}
	// z has no match in any sample and is dropped
	if diff := cmp.Diff([]string{"x", "y"}, ids); diff != "" {
		t.Errorf("compounds mismatch (-want +got):\n%s", diff)
	}

	// x: peaks at 100 in A and B (100 + 1 == 101). In C the peak at 100
	// is below MinPeak, so the fallback uses the raw profile at the
	// median m/z (100), which is 30.
	// y: peak at 101.5 in all samples.
	wantIntens := [][]float64{
		{8000, 9000, 30},
		{600, 700, 6000},
	}
	wantMatched := [][]bool{
		{true, true, false},
		{true, true, true},
	}
	if diff := cmp.Diff(wantIntens, r.Intens); diff != "" {
		t.Errorf("intensity mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantMatched, r.Matched); diff != "" {
		t.Errorf("matched mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{100, 101.5}, r.Medians); diff != "" {
		t.Errorf("medians mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileFallbackNotAPeak(t *testing.T) {
	profiles := []Profile{
		{{10, 1}, {11, 50}, {12, 1}},
		{{10, 4}, {10.75, 5}, {11.5, 6}, {12, 7}},
	}
	peaks := [][]Peak{ExtractPeaks(profiles[0], 0), ExtractPeaks(profiles[1], 0)}
	m := Retain([]Compound{{ID: "c", Mass: 11}},
		[][]Match{MatchSample(peaks[0], []Compound{{Mass: 11}}, Params{MaxDiff: 0.01}),
			MatchSample(peaks[1], []Compound{{Mass: 11}}, Params{MaxDiff: 0.01})})

	r, err := Reconcile([]string{"s1", "s2"}, profiles, peaks, m, nil)
	if err != nil {
		t.Fatalf("Reconcile: error return %v", err)
	}
	// Sample s2 has no peaks at all; 10.75 is closest to the median 11
	if r.Intens[0][1] != 5 {
		t.Errorf("Expected fallback intensity 5, got: %f", r.Intens[0][1])
	}
	if r.Matched[0][1] {
		t.Errorf("Expected fallback value not to be marked as matched")
	}
}

func TestFallbackCompleteness(t *testing.T) {
	r, err := Annotate(testProfiles(), testCompounds(), testParams, nil)
	if err != nil {
		t.Fatalf("Annotate: error return %v", err)
	}
	for j := range r.Compounds {
		if len(r.Intens[j]) != len(r.Samples) {
			t.Fatalf("compound %d: %d values for %d samples", j, len(r.Intens[j]), len(r.Samples))
		}
	}
}

func TestAnnotateErrors(t *testing.T) {
	_, err := Annotate(nil, testCompounds(), testParams, nil)
	if !errors.Is(err, ErrNoSamples) {
		t.Errorf("Expected ErrNoSamples, got: %v", err)
	}

	profiles := testProfiles()
	profiles["D"] = Profile{}
	_, err = Annotate(profiles, testCompounds(), testParams, nil)
	if !errors.Is(err, ErrEmptyProfile) {
		t.Errorf("Expected ErrEmptyProfile, got: %v", err)
	}
}

func TestAnnotateNoCandidates(t *testing.T) {
	r, err := Annotate(testProfiles(), nil, testParams, nil)
	if err != nil {
		t.Fatalf("Annotate: error return %v", err)
	}
	if len(r.Compounds) != 0 || len(r.Samples) != 3 {
		t.Errorf("Expected empty matrix for 3 samples, got: %+v", r)
	}
}
