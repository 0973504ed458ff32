package plinkbed

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var testVariants = [][]Genotype{
	{HomozygousMajor, Heterozygous, HomozygousMinor, Heterozygous, HomozygousMajor},
	{HomozygousMinor, Missing, HomozygousMajor, Heterozygous, HomozygousMinor},
	{HomozygousMajor, HomozygousMinor, Heterozygous, HomozygousMajor, HomozygousMinor},
}

func testTable(path string, n, cols int, values []float64) *Table {
	return &Table{
		Path:    path,
		Samples: make([]Sample, n),
		Values:  mat.NewDense(n, cols, values),
	}
}

func newTestData(t *testing.T, variants [][]Genotype, covar *Table, actions []CovarAction) *Data {
	t.Helper()

	n := len(variants[0])
	bed, err := OpenBED(writeBEDFile(t, n, variants), n)
	require.NoError(t, err)

	y := make([]float64, n)
	for i := range y {
		y[i] = float64(i)
	}

	d, err := NewData(bed, testTable("pheno", n, 1, y), covar, actions, 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// expected standardizes variant i of variants directly.
func expected(t *testing.T, variants [][]Genotype, i int, mask Mask) []float64 {
	t.Helper()

	v, err := Standardize(nil, variants[i], mask)
	require.NoError(t, err)
	return v
}

func TestDataSelectAllRoundTrip(t *testing.T) {
	d := newTestData(t, testVariants, nil, nil)
	assert.Equal(t, 4, d.FeatureCount())

	split := d.SelectAll()
	assert.Equal(t, -1, split.Fold)
	assert.Equal(t, 5, split.NTrain)
	assert.Zero(t, split.NTest)
	assert.Nil(t, split.YTest)

	s, err := d.Session(ModeTrain)
	require.NoError(t, err)
	assert.Equal(t, 5, s.N)

	x, err := d.Coordinate(s, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, x)

	for i := range testVariants {
		x, err := d.Coordinate(s, d.VariantCoordinate(i))
		require.NoError(t, err)
		assert.InDeltaSlice(t, expected(t, testVariants, i, AllSamples(5)), x, 1e-12, "variant %d", i)
	}

	_, err = d.Coordinate(s, d.FeatureCount())
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = d.Coordinate(s, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDataFoldChangeRebuildsCache(t *testing.T) {
	d := newTestData(t, testVariants, nil, nil)
	require.NoError(t, d.SetAssignment(Assignment{0, 0, 1, 1, 1}, 2))

	split, err := d.SelectFold(0)
	require.NoError(t, err)
	assert.Equal(t, 3, split.NTrain)
	assert.Equal(t, 2, split.NTest)

	s, err := d.Session(ModeTrain)
	require.NoError(t, err)

	first, err := d.Coordinate(s, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	again, err := d.Coordinate(s, 3)
	require.NoError(t, err)
	assert.Equal(t, first, again)

	stats := d.CacheStats()
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Entries)

	_, err = d.SelectFold(1)
	require.NoError(t, err)

	// The old session belongs to fold 0.
	_, err = d.Coordinate(s, 3)
	assert.ErrorIs(t, err, ErrConfig)

	s, err = d.Session(ModeTrain)
	require.NoError(t, err)
	x, err := d.Coordinate(s, 3)
	require.NoError(t, err)
	assert.Len(t, x, 2)
	assert.InDeltaSlice(t, expected(t, testVariants, 2, Mask{true, true, false, false, false}), x, 1e-12)

	stats = d.CacheStats()
	assert.Zero(t, stats.Hits)
	assert.EqualValues(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Entries)
}

func TestDataDegenerateVariant(t *testing.T) {
	d := newTestData(t, testVariants, nil, nil)
	require.NoError(t, d.SetAssignment(Assignment{0, 0, 1, 1, 1}, 2))

	// Variant 1 has a single called genotype among samples 0 and 1.
	_, err := d.SelectFold(1)
	require.NoError(t, err)
	s, err := d.Session(ModeTrain)
	require.NoError(t, err)

	_, err = d.Coordinate(s, 2)
	assert.ErrorIs(t, err, ErrData)
}

func TestDataSelectFoldErrors(t *testing.T) {
	d := newTestData(t, testVariants, nil, nil)

	_, err := d.SelectFold(0)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = d.Session(ModeTrain)
	assert.ErrorIs(t, err, ErrConfig)

	require.NoError(t, d.SetAssignment(Assignment{0, 1, 0, 1, 0}, 2))
	for _, fold := range []int{-1, 2} {
		_, err = d.SelectFold(fold)
		assert.ErrorIs(t, err, ErrConfig, "fold %d", fold)
	}

	assert.ErrorIs(t, d.SetAssignment(Assignment{0, 1}, 2), ErrConfig)
	assert.ErrorIs(t, d.SetAssignment(Assignment{0, 1, 2, 0, 0}, 2), ErrConfig)
}

func TestDataTestModeBypassesCache(t *testing.T) {
	d := newTestData(t, testVariants, nil, nil)
	require.NoError(t, d.SetAssignment(Assignment{0, 0, 1, 1, 1}, 2))
	_, err := d.SelectFold(0)
	require.NoError(t, err)

	s, err := d.Session(ModeTest)
	require.NoError(t, err)
	require.Equal(t, 2, s.N)

	x, err := d.Coordinate(s, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, expected(t, testVariants, 0, Mask{true, true, false, false, false}), x, 1e-12)

	_, err = d.Coordinate(s, 1)
	require.NoError(t, err)

	stats := d.CacheStats()
	assert.Zero(t, stats.Hits)
	assert.Zero(t, stats.Misses)
	assert.Zero(t, stats.Entries)
}

func TestDataCovariates(t *testing.T) {
	variants := [][]Genotype{
		{HomozygousMajor, Heterozygous, HomozygousMinor, Heterozygous, HomozygousMajor, HomozygousMinor, Heterozygous, HomozygousMajor},
		{Heterozygous, HomozygousMajor, HomozygousMinor, Missing, HomozygousMinor, HomozygousMajor, HomozygousMajor, Heterozygous},
	}
	covar := testTable("covar", 8, 2, []float64{
		0.1, 10,
		0.2, 20,
		0.3, 30,
		0.4, 40,
		0.5, 50,
		0.6, 60,
		0.7, 70,
		0.8, 80,
	})
	d := newTestData(t, variants, covar, []CovarAction{CovarTrainTest, CovarTrainOnly})
	assert.Equal(t, 1+2+2, d.FeatureCount())
	assert.Equal(t, 3, d.CovariateCoordinate(0))

	require.NoError(t, d.SetAssignment(Assignment{0, 1, 0, 1, 0, 1, 0, 1}, 2))
	split, err := d.SelectFold(1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 4, 6}, split.YTrain.RawMatrix().Data)
	assert.Equal(t, []float64{1, 3, 5, 7}, split.YTest.RawMatrix().Data)

	train, err := d.Session(ModeTrain)
	require.NoError(t, err)
	test, err := d.Session(ModeTest)
	require.NoError(t, err)

	last := d.FeatureCount() - 1
	x, err := d.Coordinate(train, last)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 30, 50, 70}, x)

	// Train-only covariates are blanked for prediction.
	x, err = d.Coordinate(test, last)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, x)

	x, err = d.Coordinate(test, d.CovariateCoordinate(0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.2, 0.4, 0.6, 0.8}, x)

	for i := range variants {
		x, err := d.Coordinate(train, d.VariantCoordinate(i))
		require.NoError(t, err)
		assert.InDeltaSlice(t, expected(t, variants, i, split.Train), x, 1e-12)

		x, err = d.Coordinate(test, d.VariantCoordinate(i))
		require.NoError(t, err)
		assert.InDeltaSlice(t, expected(t, variants, i, split.Test), x, 1e-12)
	}
}

func TestNewDataChecksSamples(t *testing.T) {
	bed, err := OpenBED(writeBEDFile(t, 5, testVariants), 5)
	require.NoError(t, err)
	defer bed.Close()

	_, err = NewData(bed, testTable("pheno", 4, 1, nil), nil, nil, 0)
	assert.ErrorIs(t, err, ErrConfig)

	pheno := testTable("pheno", 5, 1, nil)
	_, err = NewData(bed, pheno, testTable("covar", 3, 1, nil), nil, 0)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = NewData(bed, pheno, testTable("covar", 5, 2, nil), []CovarAction{CovarTrainOnly}, 0)
	assert.ErrorIs(t, err, ErrConfig)

	covar := testTable("covar", 5, 1, nil)
	pheno.Samples[2] = Sample{FamilyID: "F", SampleID: "A"}
	covar.Samples[2] = Sample{FamilyID: "F", SampleID: "B"}
	_, err = NewData(bed, pheno, covar, nil, 0)
	assert.ErrorIs(t, err, ErrData)

	d, err := NewData(bed, testTable("pheno", 5, 1, nil), nil, nil, 0)
	require.NoError(t, err)
	assert.EqualValues(t, DefaultCacheBytes, d.CacheBytes)
}

func TestDataCoordinateIsCallerOwned(t *testing.T) {
	covar := testTable("covar", 5, 1, []float64{1, 2, 3, 4, 5})
	d := newTestData(t, testVariants, covar, []CovarAction{CovarTrainOnly})
	require.NoError(t, d.SetAssignment(Assignment{0, 0, 1, 1, 1}, 2))
	_, err := d.SelectFold(0)
	require.NoError(t, err)

	train, err := d.Session(ModeTrain)
	require.NoError(t, err)
	test, err := d.Session(ModeTest)
	require.NoError(t, err)

	for _, s := range []*Session{train, test} {
		for _, j := range []int{0, 1, d.FeatureCount() - 1} {
			first, err := d.Coordinate(s, j)
			require.NoError(t, err)
			want := append([]float64(nil), first...)

			for i := range first {
				first[i] = 999
			}

			again, err := d.Coordinate(s, j)
			require.NoError(t, err)
			assert.Equal(t, want, again, "%s coordinate %d", s.Mode, j)
		}
	}

	// The cached training vector is still intact.
	assert.EqualValues(t, 1, d.CacheStats().Hits)
}

func TestDataEndToEnd(t *testing.T) {
	ctx := context.Background()
	const n = 8

	variants := [][]Genotype{
		{HomozygousMajor, Heterozygous, HomozygousMinor, Heterozygous, HomozygousMajor, HomozygousMinor, Heterozygous, HomozygousMajor},
	}

	var pheno, covar string
	for i := 0; i < n; i++ {
		pheno += fmt.Sprintf("F%d I%d %d\n", i, i, i)
		covar += fmt.Sprintf("F%d I%d %d %d\n", i, i, i%3, i*i)
	}
	phenoTab, err := ReadPhenotypes(ctx, writeFile(t, "study.pheno", pheno), 3, PhenoContinuous)
	require.NoError(t, err)
	covarTab, err := ReadCovariates(ctx, writeFile(t, "study.covar", covar), 3)
	require.NoError(t, err)

	bed, err := OpenBED(writeBEDFile(t, n, variants), n)
	require.NoError(t, err)
	d, err := NewData(bed, phenoTab, covarTab, nil, 1<<20)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.MakeFolds(rand.New(rand.NewSource(3)), 2)
	require.NoError(t, err)
	split, err := d.SelectFold(0)
	require.NoError(t, err)
	assert.Equal(t, n, split.NTrain+split.NTest)

	s, err := d.Session(ModeTrain)
	require.NoError(t, err)

	ones, err := d.Coordinate(s, 0)
	require.NoError(t, err)
	require.Len(t, ones, split.NTrain)
	for _, v := range ones {
		assert.Equal(t, 1.0, v)
	}

	last := d.FeatureCount() - 1
	got, err := d.Coordinate(s, last)
	require.NoError(t, err)

	var want []float64
	for i, selected := range split.Train {
		if selected {
			want = append(want, covarTab.Values.At(i, covarTab.NColumns()-1))
		}
	}
	assert.Equal(t, want, got)
}

func TestNewDataMatchesSampleIDsOnly(t *testing.T) {
	ctx := context.Background()
	bed, err := OpenBED(writeBEDFile(t, 5, testVariants), 5)
	require.NoError(t, err)
	defer bed.Close()

	pheno, err := ReadPhenotypes(ctx, writeFile(t, "study.pheno", "F0 I0 1\nF1 I1 2\nF2 I2 3\nF3 I3 4\nF4 I4 5\n"), 3, PhenoContinuous)
	require.NoError(t, err)

	// Read from column 2, so there are no family IDs to compare.
	covar, err := ReadCovariates(ctx, writeFile(t, "study.covar", "I0 1\nI1 3\nI2 2\nI3 5\nI4 4\n"), 2)
	require.NoError(t, err)
	_, err = NewData(bed, pheno, covar, nil, 0)
	require.NoError(t, err)

	covar, err = ReadCovariates(ctx, writeFile(t, "study.covar", "I0 1\nI1 3\nI9 2\nI3 5\nI4 4\n"), 2)
	require.NoError(t, err)
	_, err = NewData(bed, pheno, covar, nil, 0)
	assert.ErrorIs(t, err, ErrData)
}
