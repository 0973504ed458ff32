package plinkbed

// Genotype is one decoded 2-bit PLINK genotype call. Missingness is its own
// value rather than a reserved dosage, so use Dosage to get a number.
type Genotype uint8

const (
	HomozygousMajor Genotype = iota // 0 copies of the minor allele
	Heterozygous                    // 1 copy
	HomozygousMinor                 // 2 copies
	Missing
)

// PackDensity is the number of samples packed into one BED byte.
const PackDensity = 4

// Dosage returns the minor allele dosage and true, or 0 and false if the
// call is missing.
func (g Genotype) Dosage() (float64, bool) {
	switch g {
	case HomozygousMajor:
		return 0, true
	case Heterozygous:
		return 1, true
	case HomozygousMinor:
		return 2, true
	}
	return 0, false
}

func (g Genotype) String() string {
	switch g {
	case HomozygousMajor:
		return "0"
	case Heterozygous:
		return "1"
	case HomozygousMinor:
		return "2"
	case Missing:
		return "NA"
	default:
		return "Illegal genotype"
	}
}

/*
 * PLINK writes 00 for homozygous A1, 10 for heterozygous, 11 for homozygous
 * A2 and 01 for missing, with the first sample in the two lowest bits. A1 is
 * usually the minor allele, so counting zero bits gives the minor allele
 * dosage that plink --recodeA reports:
 *
 *   00 => 2, 10 => 1, 11 => 0, 01 => missing
 */
func decodeTwoBits(bits byte) Genotype {
	if bits == 1 {
		return Missing
	}
	var dosage Genotype
	if bits&1 == 0 {
		dosage++
	}
	if bits>>1 == 0 {
		dosage++
	}
	return dosage
}

// encodeTwoBits is the inverse of decodeTwoBits.
func encodeTwoBits(g Genotype) byte {
	switch g {
	case HomozygousMinor:
		return 0
	case Heterozygous:
		return 2
	case HomozygousMajor:
		return 3
	}
	return 1
}

var decodeTable [256][PackDensity]Genotype

func init() {
	for b := 0; b < 256; b++ {
		for k := 0; k < PackDensity; k++ {
			decodeTable[b][k] = decodeTwoBits(byte(b>>(2*k)) & 3)
		}
	}
}

// DecodeGenotypes unpacks every byte of packed into 4 genotypes and appends
// them to dst[:0], so the result always has 4*len(packed) entries. When the
// sample count is not a multiple of 4 the trailing entries are padding and
// should be ignored. Pass the previous result back in as dst to avoid
// allocating.
func DecodeGenotypes(dst []Genotype, packed []byte) []Genotype {
	dst = dst[:0]
	for _, b := range packed {
		dst = append(dst, decodeTable[b][:]...)
	}
	return dst
}

// EncodeGenotypes packs genotypes 4 per byte, appending ceil(len(geno)/4)
// bytes to dst[:0]. Unused high bits of the last byte are left zero.
func EncodeGenotypes(dst []byte, geno []Genotype) []byte {
	dst = dst[:0]
	for i := 0; i < len(geno); i += PackDensity {
		var b byte
		for k := 0; k < PackDensity && i+k < len(geno); k++ {
			b |= encodeTwoBits(geno[i+k]) << (2 * k)
		}
		dst = append(dst, b)
	}
	return dst
}
