package plinkbed

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// PLINKPhenoMissing is PLINK's missing phenotype value. It is rejected rather
// than imputed.
const PLINKPhenoMissing = -9

// PhenoKind says how phenotype values are coded.
type PhenoKind int

const (
	// PhenoContinuous values are used as is.
	PhenoContinuous PhenoKind = iota

	// PhenoBinary12 values are PLINK case/control codes, 1 for control and 2
	// for case, recoded to -1 and +1.
	PhenoBinary12
)

func (k PhenoKind) String() string {
	switch k {
	case PhenoContinuous:
		return "continuous"
	case PhenoBinary12:
		return "binary12"
	default:
		return "Illegal selection"
	}
}

// ParsePhenoKind accepts the names printed by PhenoKind.String.
func ParsePhenoKind(s string) (PhenoKind, error) {
	switch strings.ToLower(s) {
	case "", "continuous":
		return PhenoContinuous, nil
	case "binary12", "binary":
		return PhenoBinary12, nil
	}
	return PhenoContinuous, configErrorf("unknown phenotype kind %q", s)
}

// Sample identifies one row of a phenotype, FAM or covariate file.
type Sample struct {
	FamilyID string
	SampleID string
}

// Table is a numeric whitespace-delimited file: one row per sample, with
// the identifier columns split off.
type Table struct {
	Path    string
	Samples []Sample
	Values  *mat.Dense
}

// NSamples is the number of rows.
func (t *Table) NSamples() int {
	return len(t.Samples)
}

// NColumns is the number of numeric columns.
func (t *Table) NColumns() int {
	if t.Values == nil {
		return 0
	}
	_, c := t.Values.Dims()
	return c
}

// ReadPhenotypes reads a PLINK phenotype file ("FID IID pheno1 pheno2 ...").
// firstCol is the one-based column of the first value: 3 for a phenotype
// file, 6 for a FAM file ignoring sex, 5 for a FAM file including it.
//
// The row count is the sample count of the study, so this has to run before
// OpenBED.
func ReadPhenotypes(ctx context.Context, path string, firstCol int, kind PhenoKind) (*Table, error) {
	t, err := readTable(ctx, path, firstCol)
	if err != nil {
		return nil, err
	}

	logger.Printf(">>> Detected pheno file %s, %d samples, %d columns (ex. FAM+INDIV IDs)\n", path, t.NSamples(), t.NColumns())

	if kind == PhenoBinary12 {
		var cases, controls int
		r, c := t.Values.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				v := t.Values.At(i, j)
				switch v {
				case 1:
					controls++
				case 2:
					cases++
				default:
					return nil, dataErrorf("%s row %d column %d: %v is not a PLINK case/control code", path, i+1, j+firstCol, v)
				}
				t.Values.Set(i, j, v*2-3)
			}
		}
		logger.Printf(">>> %d cases and %d controls\n", cases, controls)
	}

	return t, nil
}

// readTable parses every non-blank line of path. All rows must have the same
// number of tokens as the first one.
func readTable(ctx context.Context, path string, firstCol int) (*Table, error) {
	if firstCol < 1 {
		return nil, configErrorf("first column must be at least 1 (one-based), got %d", firstCol)
	}

	r, err := openText(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	t := &Table{Path: path}
	var (
		data      []float64
		numTokens int
		numFields int
		line      int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line++
		tokens := strings.Fields(scanner.Text())
		if len(tokens) == 0 {
			continue
		}

		if numTokens == 0 {
			numTokens = len(tokens)
			numFields = numTokens - firstCol + 1
			if numFields < 1 {
				return nil, dataErrorf("%s line %d has %d columns; expected values to start at column %d", path, line, numTokens, firstCol)
			}
		} else if len(tokens) != numTokens {
			return nil, dataErrorf("%s line %d has %d columns; expected %d", path, line, len(tokens), numTokens)
		}

		var s Sample
		switch {
		case firstCol >= 3:
			s = Sample{FamilyID: tokens[0], SampleID: tokens[1]}
		case firstCol == 2:
			s = Sample{SampleID: tokens[0]}
		}
		t.Samples = append(t.Samples, s)

		for _, tok := range tokens[firstCol-1:] {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, dataErrorf("%s line %d: %q is not a number", path, line, tok)
			}
			if v == PLINKPhenoMissing {
				return nil, dataErrorf("%s line %d: missing values (%d) are not supported", path, line, PLINKPhenoMissing)
			}
			data = append(data, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError(err)
	}

	if len(t.Samples) == 0 {
		return nil, dataErrorf("%s has no rows", path)
	}

	t.Values = mat.NewDense(len(t.Samples), numFields, data)
	return t, nil
}

// SubsetRows copies the rows of m selected by mask, in order. It returns nil
// when no row is selected, since gonum matrices cannot be empty.
func SubsetRows(m *mat.Dense, mask Mask) *mat.Dense {
	n := mask.Count()
	if n == 0 {
		return nil
	}
	_, c := m.Dims()
	out := mat.NewDense(n, c, nil)
	k := 0
	for i, selected := range mask {
		if selected {
			out.SetRow(k, m.RawRowView(i))
			k++
		}
	}
	return out
}
