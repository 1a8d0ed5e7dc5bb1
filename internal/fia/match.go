package fia

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Match is the peak that was associated with a compound in one sample.
// If OK is false, no peak was close enough and the other fields
// are meaningless.
type Match struct {
	OK   bool
	Peak int     // Index into the peak list of the sample
	Mz   float64 // m/z of the matched peak
}

// Matrix contains the matches of the compounds that were found in
// at least one sample
type Matrix struct {
	Compounds []Compound
	Matches   [][]Match // Matches[compound][sample]
	Medians   []float64 // median matched m/z per compound
	Hits      []int     // number of samples with a match per compound
}

// MatchSample associates each compound with the peak of a sample that is
// closest to the compound mass, after adding the ionization offset to the
// peak m/z. A peak is only accepted if the mass difference is at most
// par.MaxDiff. When several peaks are equally close, the one with the
// lowest index wins.
func MatchSample(peaks []Peak, compounds []Compound, par Params) []Match {
	matches := make([]Match, len(compounds))
	if len(peaks) == 0 {
		return matches
	}
	shifted := make([]float64, len(peaks))
	for i, p := range peaks {
		shifted[i] = p.Mz + par.Offset
	}
	diffs := make([]float64, len(peaks))
	for j, c := range compounds {
		for i, m := range shifted {
			diffs[i] = math.Abs(m - c.Mass)
		}
		k := floats.MinIdx(diffs)
		if diffs[k] <= par.MaxDiff {
			matches[j] = Match{OK: true, Peak: k, Mz: peaks[k].Mz}
		}
	}
	return matches
}

// Retain keeps the compounds that have a match in at least one sample
// and computes their median matched m/z. perSample holds the result of
// MatchSample for each sample, for the same list of compounds.
func Retain(compounds []Compound, perSample [][]Match) Matrix {
	var m Matrix
	mzs := make([]float64, 0, len(perSample))
	for j, c := range compounds {
		row := make([]Match, len(perSample))
		mzs = mzs[:0]
		for i, sm := range perSample {
			row[i] = sm[j]
			if sm[j].OK {
				mzs = append(mzs, sm[j].Mz)
			}
		}
		if len(mzs) == 0 {
			continue
		}
		m.Compounds = append(m.Compounds, c)
		m.Matches = append(m.Matches, row)
		m.Medians = append(m.Medians, median(mzs))
		m.Hits = append(m.Hits, len(mzs))
	}
	return m
}

// median returns the median of x, the mean of the two middle
// values if len(x) is even. x is not modified.
func median(x []float64) float64 {
	s := make([]float64, len(x))
	copy(s, x)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
