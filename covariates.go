package plinkbed

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// CovarAction says whether a covariate may be used when predicting.
type CovarAction int

const (
	// CovarTrainTest covariates are used for both fitting and prediction.
	CovarTrainTest CovarAction = iota

	// CovarTrainOnly covariates are used for fitting only; in test mode their
	// coordinate is all zeros.
	CovarTrainOnly
)

const (
	covarActionTrainOnlyStr = "train-only"
	covarActionTrainTestStr = "train-test"
)

func (a CovarAction) String() string {
	switch a {
	case CovarTrainTest:
		return covarActionTrainTestStr
	case CovarTrainOnly:
		return covarActionTrainOnlyStr
	default:
		return "Illegal selection"
	}
}

// ReadCovariates reads a covariate file with the same layout as a phenotype
// file and standardizes each column to mean 0 and standard deviation 1 over
// all samples. A constant column has no standard deviation and is rejected.
func ReadCovariates(ctx context.Context, path string, firstCol int) (*Table, error) {
	t, err := readTable(ctx, path, firstCol)
	if err != nil {
		return nil, err
	}

	if err := standardizeColumns(t.Values); err != nil {
		return nil, dataErrorf("%s: %w", path, err)
	}

	logger.Printf(">>> Detected covariate file %s, %d samples, %d covariates\n", path, t.NSamples(), t.NColumns())
	return t, nil
}

func standardizeColumns(m *mat.Dense) error {
	r, c := m.Dims()
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, m)
		mean, sd := stat.MeanStdDev(col, nil)
		if sd == 0 || math.IsNaN(sd) {
			return fmt.Errorf("column %d has no variance", j+1)
		}
		for i := range col {
			col[i] = (col[i] - mean) / sd
		}
		m.SetCol(j, col)
	}
	return nil
}

// ReadCovarActions reads one action token per covariate, case-insensitively.
// Unknown tokens are logged and treated as train-test. The number of tokens
// must equal nCovariates.
func ReadCovarActions(ctx context.Context, path string, nCovariates int) ([]CovarAction, error) {
	r, err := openText(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var tokens []string
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)
	for scanner.Scan() {
		tokens = append(tokens, strings.ToLower(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError(err)
	}

	if len(tokens) != nCovariates {
		return nil, configErrorf("wrong number of rows in covariable action file %s: got %d but expected %d", path, len(tokens), nCovariates)
	}

	actions := make([]CovarAction, len(tokens))
	numIgnore := 0
	for i, tok := range tokens {
		switch tok {
		case covarActionTrainOnlyStr:
			actions[i] = CovarTrainOnly
			numIgnore++
		case covarActionTrainTestStr:
			actions[i] = CovarTrainTest
		default:
			logger.Printf("Warning: unknown covariate action on line %d: %s\n", i+1, tok)
			actions[i] = CovarTrainTest
		}
	}

	logger.Printf(">>> Will ignore %d variables in test time\n", numIgnore)
	return actions, nil
}
