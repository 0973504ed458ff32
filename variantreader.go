package plinkbed

import (
	"gonum.org/v1/gonum/mat"
)

// VariantReader walks the variants of a BED file in order, decoding each
// into one reused buffer.
type VariantReader struct {
	VariantsSeen int
	b            *BED
	err          error

	// Cached values
	buffer []Genotype
}

func (b *BED) NewVariantReader() *VariantReader {
	return &VariantReader{b: b}
}

func (vr *VariantReader) Error() error {
	return vr.err
}

// Read returns the genotypes of the next variant, trimmed to NSamples, or
// nil once every variant has been read or an error occurred. The slice is
// overwritten by the next call.
func (vr *VariantReader) Read() []Genotype {
	if vr.err != nil || vr.VariantsSeen >= vr.b.NVariants {
		return nil
	}

	vr.buffer, vr.err = vr.b.Genotypes(vr.buffer, vr.VariantsSeen)
	if vr.err != nil {
		return nil
	}

	vr.VariantsSeen++
	return vr.buffer[:vr.b.NSamples]
}

// ReadDense loads the whole BED file into an NSamples x NVariants matrix,
// replacing missing calls with the mean of the non-missing calls of that
// variant. Values are dosages, not standardized. This holds the full matrix
// in memory; use Data for on-demand access to large files.
func ReadDense(b *BED) (*mat.Dense, error) {
	if b.NVariants == 0 {
		return nil, dataErrorf("%s has no variants", b.FilePath)
	}

	X := mat.NewDense(b.NSamples, b.NVariants, nil)
	col := make([]float64, b.NSamples)

	vr := b.NewVariantReader()
	for geno := vr.Read(); geno != nil; geno = vr.Read() {
		j := vr.VariantsSeen - 1

		var sum float64
		nGood := 0
		for i, g := range geno {
			v, ok := g.Dosage()
			col[i] = v
			if ok {
				sum += v
				nGood++
			}
		}
		if nGood == 0 {
			return nil, dataErrorf("variant %d of %s has no non-missing calls", j, b.FilePath)
		}

		avg := sum / float64(nGood)
		for i, g := range geno {
			if g == Missing {
				col[i] = avg
			}
		}
		X.SetCol(j, col)
	}
	if err := vr.Error(); err != nil {
		return nil, err
	}

	return X, nil
}
