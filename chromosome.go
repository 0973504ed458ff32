package plinkbed

import (
	"strconv"
	"strings"
)

// Chromosome translates a PLINK numeric chromosome code to its name.
// Autosomes keep their number; 23-26 are the sex, pseudo-autosomal and
// mitochondrial codes.
func Chromosome(chr uint16) string {
	switch {
	case chr >= 1 && chr <= 22:
		return strconv.Itoa(int(chr))
	case chr == 23:
		return "X"
	case chr == 24:
		return "Y"
	case chr == 25:
		return "XY"
	case chr == 26:
		return "MT"
	}
	return "NA"
}

// NormalizeChromosome accepts "chr7", "07", "7", "23" or "X" and returns the
// name Chromosome would give, so BIM files from different tools index the
// same way.
func NormalizeChromosome(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "chr"), "Chr")
	if code, err := strconv.ParseUint(s, 10, 16); err == nil {
		return Chromosome(uint16(code))
	}
	switch u := strings.ToUpper(s); u {
	case "X", "Y", "XY", "MT":
		return u
	case "M":
		return "MT"
	}
	return s
}
