package plinkbed

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/carbocation/genomisc"
)

// Variant is one row of a PLINK BIM file. Index is its position in the BED
// file, so its feature coordinate is Index+1.
type Variant struct {
	Index int
	genomisc.BIMRow
}

// ReadBIM reads every variant of a BIM file in file order. Chromosomes are
// normalized with NormalizeChromosome.
func ReadBIM(ctx context.Context, path string) ([]Variant, error) {
	r, err := openText(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var variants []Variant
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		cols := strings.Fields(scanner.Text())
		if len(cols) == 0 {
			continue
		}
		if len(cols) != 6 {
			return nil, dataErrorf("%s line %d has %d columns; BIM files have 6", path, line, len(cols))
		}

		pos, err := strconv.ParseUint(cols[genomisc.Coordinate], 10, 32)
		if err != nil {
			return nil, dataErrorf("%s line %d: %q is not a base-pair coordinate", path, line, cols[genomisc.Coordinate])
		}

		variants = append(variants, Variant{
			Index: len(variants),
			BIMRow: genomisc.BIMRow{
				Chromosome: NormalizeChromosome(cols[genomisc.Chromosome]),
				Coordinate: uint32(pos),
				VariantID:  cols[genomisc.VariantID],
				Allele1:    cols[genomisc.Allele1],
				Allele2:    cols[genomisc.Allele2],
			},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError(err)
	}

	return variants, nil
}
