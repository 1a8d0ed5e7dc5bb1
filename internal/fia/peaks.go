package fia

// FindPeaks returns the indices of the local maxima in a. A local maximum
// is larger than its two neighbors, the endpoints are never a maximum.
// If a peak is flat, only the point with the lowest index is returned.
//
// For a strict maximum this is the point where the sign of the first
// difference changes from +1 to -1. Zero differences following an ascent
// keep the start of the plateau as candidate until the signal either
// descends (a peak) or ascends again (a shoulder, not a peak).
func FindPeaks(a []float64) []int {
	var idx []int
	top := -1 // start of the plateau after the last ascent
	for i := 1; i < len(a); i++ {
		d := a[i] - a[i-1]
		switch {
		case d > 0:
			top = i
		case d < 0:
			if top >= 0 {
				idx = append(idx, top)
			}
			top = -1
		}
	}
	return idx
}

// ExtractPeaks returns the local maxima of a profile with an intensity
// of at least minIntens
func ExtractPeaks(p Profile, minIntens float64) []Peak {
	intens := make([]float64, len(p))
	for i, pt := range p {
		intens[i] = pt.Intens
	}
	idx := FindPeaks(intens)
	peaks := make([]Peak, 0, len(idx))
	for _, i := range idx {
		if p[i].Intens >= minIntens {
			peaks = append(peaks, Peak{Index: i, Mz: p[i].Mz, Intens: p[i].Intens})
		}
	}
	return peaks
}
