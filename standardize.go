package plinkbed

import (
	"math"
)

// Standardize writes the genotypes of the samples selected by mask into dst
// (reusing its capacity) as a zero-centred, unit-scaled vector with missing
// calls imputed. len(geno) must be at least len(mask); extra entries, such
// as the padding from DecodeGenotypes, are ignored.
//
// The centring mean is sum/selected, where missing calls count toward the
// denominator but add nothing to the sum. The standard deviation uses only
// non-missing calls around that mean, with an n-1 denominator. Missing calls
// become mean/sd. Existing fitted models assume these exact values.
//
// A variant with fewer than two non-missing calls, or with no spread, is
// reported as ErrData instead of producing NaN or Inf.
func Standardize(dst []float64, geno []Genotype, mask Mask) ([]float64, error) {
	if len(geno) < len(mask) {
		return dst, dataErrorf("have %d genotypes for %d samples", len(geno), len(mask))
	}

	dst = dst[:0]
	var (
		nGood int
		sum   float64
	)
	for i, selected := range mask {
		if !selected {
			continue
		}
		v, ok := geno[i].Dosage()
		if ok {
			nGood++
			sum += v
		}
		dst = append(dst, v)
	}

	nSelected := len(dst)
	if nSelected == 0 {
		return dst, dataErrorf("degenerate variant: no samples selected")
	}
	if nGood <= 1 {
		return dst, dataErrorf("degenerate variant: %d of %d selected samples are non-missing", nGood, nSelected)
	}

	mean := sum / float64(nSelected)

	// Walk the selection again to know which entries were missing, since a
	// missing call and a homozygous major call both hold 0 in dst.
	var sum2 float64
	k := 0
	for i, selected := range mask {
		if !selected {
			continue
		}
		if geno[i] != Missing {
			d := dst[k] - mean
			sum2 += d * d
		}
		k++
	}

	sd := math.Sqrt(sum2 / float64(nGood-1))
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return dst, dataErrorf("degenerate variant: standard deviation is %v over %d non-missing samples", sd, nGood)
	}

	if nGood == nSelected {
		for k := range dst {
			dst[k] = (dst[k] - mean) / sd
		}
		return dst, nil
	}

	meanSD := mean / sd
	k = 0
	for i, selected := range mask {
		if !selected {
			continue
		}
		if geno[i] == Missing {
			dst[k] = meanSD
		} else {
			dst[k] = (dst[k] - mean) / sd
		}
		k++
	}

	return dst, nil
}
