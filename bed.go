package plinkbed

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// MagicNumber holds the two bytes that open every PLINK BED file.
const MagicNumber = "\x6c\x1b"

const (
	offsetMagicNumber = 0
	offsetMode        = 2

	// HeaderLength is the number of bytes before the first variant.
	HeaderLength = 3
)

// BED file modes. Only variant-major files can be read.
const (
	ModeSampleMajor  byte = 0
	ModeVariantMajor byte = 1
)

// BED is a read-only memory-mapped view of a variant-major PLINK BED file.
// Variants are read on demand; nothing is copied into process memory until
// a caller copies it.
type BED struct {
	FilePath        string
	NSamples        int
	BytesPerVariant int // ceil(NSamples / 4)
	NVariants       int
	FileSize        int64

	data   []byte
	unmap  func() error
	closed bool
}

// OpenBED maps the BED file at path. nSamples must come from a phenotype or
// FAM file that has already been read, because the file itself does not
// record it.
//
// The variant count is (size - 3) / BytesPerVariant with truncation, so a
// trailing partial variant is silently ignored.
func OpenBED(path string, nSamples int) (*BED, error) {
	if nSamples <= 0 {
		return nil, configErrorf("sample count is %d; read a FAM/phenotype file before opening %s", nSamples, path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, ioError(err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, ioError(err)
	}

	b := &BED{
		FilePath:        path,
		NSamples:        nSamples,
		BytesPerVariant: (nSamples + PackDensity - 1) / PackDensity,
		FileSize:        info.Size(),
	}

	if b.FileSize < HeaderLength {
		return nil, dataErrorf("%s is %d bytes, too short for the %d byte BED header", path, b.FileSize, HeaderLength)
	}

	b.data, b.unmap, err = mapFile(file, b.FileSize)
	if err != nil {
		return nil, ioError(err)
	}

	if err := populateBEDHeader(b); err != nil {
		b.Close()
		return nil, err
	}

	b.NVariants = int((b.FileSize - HeaderLength) / int64(b.BytesPerVariant))

	logger.Printf(">>> Detected BED file: %s with %d bytes, %d samples, %d SNPs.\n",
		path, b.FileSize-HeaderLength, b.NSamples, b.NVariants)

	return b, nil
}

func populateBEDHeader(b *BED) error {
	magic := b.data[offsetMagicNumber : offsetMagicNumber+len(MagicNumber)]
	if string(magic) != MagicNumber {
		return dataErrorf("The BED header at offset %d is expected to be the magic number %v, but instead resolved to %v", offsetMagicNumber, []byte(MagicNumber), magic)
	}

	if mode := b.data[offsetMode]; mode != ModeVariantMajor {
		return dataErrorf("BED mode byte is %d; only variant-major (mode %d) files are supported", mode, ModeVariantMajor)
	}

	return nil
}

// VariantSlice returns the packed bytes of variant i. The slice aliases the
// mapped file: do not modify it, and do not keep it after Close.
func (b *BED) VariantSlice(i int) ([]byte, error) {
	if b.closed {
		return nil, ioError(fmt.Errorf("%s is closed", b.FilePath))
	}
	if i < 0 || i >= b.NVariants {
		return nil, rangeErrorf("variant %d requested but %s has %d variants", i, b.FilePath, b.NVariants)
	}

	start := HeaderLength + i*b.BytesPerVariant
	end := start + b.BytesPerVariant
	return b.data[start:end:end], nil
}

// Genotypes decodes variant i into dst, reusing its capacity. Only the first
// NSamples entries of the result are meaningful.
func (b *BED) Genotypes(dst []Genotype, i int) ([]Genotype, error) {
	packed, err := b.VariantSlice(i)
	if err != nil {
		return dst, err
	}
	return DecodeGenotypes(dst, packed), nil
}

// Close releases the mapping. It is safe to call more than once.
func (b *BED) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.data = nil
	if b.unmap == nil {
		return nil
	}
	if err := b.unmap(); err != nil {
		return ioError(err)
	}
	return nil
}

// WriteBED writes a variant-major BED file holding variants, each of which
// must have nSamples genotypes.
func WriteBED(w io.Writer, nSamples int, variants [][]Genotype) error {
	if nSamples <= 0 {
		return configErrorf("cannot write a BED file for %d samples", nSamples)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(MagicNumber)
	bw.WriteByte(ModeVariantMajor)

	var packed []byte
	for i, geno := range variants {
		if len(geno) != nSamples {
			return configErrorf("variant %d has %d genotypes; expected %d", i, len(geno), nSamples)
		}
		packed = EncodeGenotypes(packed, geno)
		bw.Write(packed)
	}

	if err := bw.Flush(); err != nil {
		return ioError(err)
	}
	return nil
}
