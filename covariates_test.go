package plinkbed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestReadCovariatesStandardizes(t *testing.T) {
	path := writeFile(t, "test.covar", "F1 I1 1 10\nF2 I2 2 30\nF3 I3 6 20\nF4 I4 3 40\n")

	tab, err := ReadCovariates(context.Background(), path, 3)
	require.NoError(t, err)
	require.Equal(t, 2, tab.NColumns())

	col := make([]float64, 4)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, tab.Values)
		mean, sd := stat.MeanStdDev(col, nil)
		assert.InDelta(t, 0, mean, 1e-12)
		assert.InDelta(t, 1, sd, 1e-12)
	}
}

func TestReadCovariatesConstant(t *testing.T) {
	path := writeFile(t, "test.covar", "F1 I1 1 5\nF2 I2 2 5\n")

	_, err := ReadCovariates(context.Background(), path, 3)
	assert.ErrorIs(t, err, ErrData)
}

func TestReadCovarActions(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "test.actions", "TRAIN-ONLY\ntrain-test\nsometimes\n")

	actions, err := ReadCovarActions(ctx, path, 3)
	require.NoError(t, err)
	assert.Equal(t, []CovarAction{CovarTrainOnly, CovarTrainTest, CovarTrainTest}, actions)

	_, err = ReadCovarActions(ctx, path, 2)
	assert.ErrorIs(t, err, ErrConfig)

	assert.Equal(t, "train-only", CovarTrainOnly.String())
}
