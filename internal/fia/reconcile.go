package fia

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Result is the final compound x sample intensity matrix
type Result struct {
	Samples   []string   // sample identifiers, ascending
	Compounds []Compound // compounds found in at least one sample
	Medians   []float64  // median matched m/z per compound
	Hits      []int      // number of samples in which the compound was matched
	Intens    [][]float64
	Matched   [][]bool // false if Intens was taken from the raw profile
}

// Reconcile fills the intensity of each compound in each sample.
// If the compound was matched to a peak in the sample, the intensity
// of that peak is used. Otherwise the intensity of the profile point
// closest to the median matched m/z of the compound is used, even if
// that point is not a peak.
// done, if not nil, is called after each sample.
func Reconcile(samples []string, profiles []Profile, peaks [][]Peak,
	m Matrix, done func(int)) (Result, error) {
	if done == nil {
		done = func(int) {}
	}
	r := Result{
		Samples:   samples,
		Compounds: m.Compounds,
		Medians:   m.Medians,
		Hits:      m.Hits,
		Intens:    make([][]float64, len(m.Compounds)),
		Matched:   make([][]bool, len(m.Compounds)),
	}
	for j := range m.Compounds {
		r.Intens[j] = make([]float64, len(samples))
		r.Matched[j] = make([]bool, len(samples))
	}

	done(0)
	diffs := []float64{}
	for i, s := range samples {
		if len(profiles[i]) == 0 {
			return Result{}, fmt.Errorf("sample %s: %w", s, ErrEmptyProfile)
		}
		for j := range m.Compounds {
			match := m.Matches[j][i]
			if match.OK {
				r.Intens[j][i] = peaks[i][match.Peak].Intens
				r.Matched[j][i] = true
				continue
			}
			r.Intens[j][i] = nearestIntens(profiles[i], m.Medians[j], &diffs)
		}
		done(i + 1)
	}
	return r, nil
}

// nearestIntens returns the intensity of the point in p with the m/z
// closest to mz. diffs is scratch space that is reused between calls.
func nearestIntens(p Profile, mz float64, diffs *[]float64) float64 {
	if cap(*diffs) < len(p) {
		*diffs = make([]float64, len(p))
	}
	d := (*diffs)[:len(p)]
	for k, pt := range p {
		d[k] = math.Abs(mz - pt.Mz)
	}
	return p[floats.MinIdx(d)].Intens
}
