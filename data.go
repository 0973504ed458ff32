package plinkbed

import (
	"fmt"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"
)

// DefaultCacheBytes is the variant cache budget used when none is given.
const DefaultCacheBytes = 1 << 30

// Data serves feature coordinates to a model: coordinate 0 is the
// intercept, 1..NVariants are the standardized variants of the BED file and
// the rest are covariates.
//
// Which samples a coordinate covers is decided by a Split (from SelectFold
// or SelectAll) and a Session on one side of it. Selecting a new split
// discards the variant cache and invalidates every earlier Session.
//
// A Data is not safe for concurrent use. Separate Data values over the same
// BED file are independent.
type Data struct {
	BED          *BED
	Pheno        *Table
	Covariates   *Table
	CovarActions []CovarAction
	CacheBytes   int64

	assignment Assignment
	nFolds     int

	split      *Split
	generation uint64
	cache      *VariantCache
	scratch    []Genotype
}

// Split is one train/test partition of the samples.
type Split struct {
	Fold          int // -1 for SelectAll
	Train, Test   Mask
	NTrain, NTest int

	// Phenotype rows restricted to each side; nil when a side is empty.
	YTrain, YTest *mat.Dense
}

// Session is a read view of one side of a Split. It stays valid until the
// next SelectFold or SelectAll on the Data that created it.
type Session struct {
	Mode  Mode
	Mask  Mask
	N     int
	Split *Split

	ones, zeros []float64
	generation  uint64
}

// NewData checks that the inputs describe the same samples. covariates and
// actions may be nil; missing actions default to CovarTrainTest. A
// cacheBytes of 0 selects DefaultCacheBytes and a negative value disables
// caching.
func NewData(bed *BED, pheno *Table, covariates *Table, actions []CovarAction, cacheBytes int64) (*Data, error) {
	if bed == nil || pheno == nil {
		return nil, configErrorf("a BED file and a phenotype table are required")
	}
	n := pheno.NSamples()
	if bed.NSamples != n {
		return nil, configErrorf("%s was opened for %d samples but %s has %d", bed.FilePath, bed.NSamples, pheno.Path, n)
	}

	if covariates != nil {
		if covariates.NSamples() != n {
			return nil, configErrorf("%s has %d samples but %s has %d", covariates.Path, covariates.NSamples(), pheno.Path, n)
		}
		for i, s := range covariates.Samples {
			p := pheno.Samples[i]
			if !sameSample(s, p) {
				return nil, dataErrorf("row %d is sample %s/%s in %s but %s/%s in %s", i+1, s.FamilyID, s.SampleID, covariates.Path, p.FamilyID, p.SampleID, pheno.Path)
			}
		}
		if actions == nil {
			actions = make([]CovarAction, covariates.NColumns())
		}
	}
	if len(actions) != nCols(covariates) {
		return nil, configErrorf("have %d covariate actions for %d covariates", len(actions), nCols(covariates))
	}

	if cacheBytes == 0 {
		cacheBytes = DefaultCacheBytes
	}

	return &Data{
		BED:          bed,
		Pheno:        pheno,
		Covariates:   covariates,
		CovarActions: actions,
		CacheBytes:   cacheBytes,
	}, nil
}

// sameSample compares the identifiers both files have. A file read from
// column 2 has no family IDs and one read from column 1 has no IDs at all.
func sameSample(a, b Sample) bool {
	if a.SampleID != "" && b.SampleID != "" && a.SampleID != b.SampleID {
		return false
	}
	if a.FamilyID != "" && b.FamilyID != "" && a.FamilyID != b.FamilyID {
		return false
	}
	return true
}

func nCols(t *Table) int {
	if t == nil {
		return 0
	}
	return t.NColumns()
}

// NSamples is the number of samples in the study.
func (d *Data) NSamples() int {
	return d.BED.NSamples
}

// NCovariates is the number of covariate columns.
func (d *Data) NCovariates() int {
	return nCols(d.Covariates)
}

// FeatureCount is 1 (intercept) + NVariants + NCovariates.
func (d *Data) FeatureCount() int {
	return 1 + d.BED.NVariants + d.NCovariates()
}

// VariantCoordinate is the coordinate of BED variant index i.
func (d *Data) VariantCoordinate(i int) int {
	return i + 1
}

// CovariateCoordinate is the coordinate of covariate column c.
func (d *Data) CovariateCoordinate(c int) int {
	return 1 + d.BED.NVariants + c
}

// MakeFolds draws a new fold assignment with AssignFolds and keeps it for
// SelectFold.
func (d *Data) MakeFolds(rng *rand.Rand, nFolds int) (Assignment, error) {
	a, err := AssignFolds(rng, d.NSamples(), nFolds)
	if err != nil {
		return nil, err
	}
	d.assignment, d.nFolds = a, nFolds
	return a, nil
}

// SetAssignment installs an existing assignment, e.g. one read back with
// ReadAssignment.
func (d *Data) SetAssignment(a Assignment, nFolds int) error {
	if len(a) != d.NSamples() {
		return configErrorf("fold assignment has %d samples; data has %d", len(a), d.NSamples())
	}
	if nFolds < 1 {
		return configErrorf("number of folds must be at least 1, got %d", nFolds)
	}
	for i, f := range a {
		if f < 0 || f >= nFolds {
			return configErrorf("sample %d is in fold %d, outside [0, %d)", i, f, nFolds)
		}
	}
	d.assignment, d.nFolds = a, nFolds
	return nil
}

// Assignment is the current fold assignment, or nil.
func (d *Data) Assignment() Assignment {
	return d.assignment
}

// SelectFold makes fold the test set and every other sample the training
// set. The phenotypes are resliced and the variant cache is rebuilt for the
// new training size.
func (d *Data) SelectFold(fold int) (*Split, error) {
	if d.assignment == nil {
		return nil, configErrorf("no fold assignment; call MakeFolds or SetAssignment first")
	}
	if fold < 0 || fold >= d.nFolds {
		return nil, configErrorf("fold %d requested but there are %d folds", fold, d.nFolds)
	}

	train, test, err := SelectFold(d.assignment, fold)
	if err != nil {
		return nil, err
	}

	return d.install(fold, train, test), nil
}

// SelectAll trains on every sample and leaves the test set empty.
func (d *Data) SelectAll() *Split {
	train := AllSamples(d.NSamples())
	return d.install(-1, train, train.Not())
}

func (d *Data) install(fold int, train, test Mask) *Split {
	d.generation++

	s := &Split{
		Fold:  fold,
		Train: train,
		Test:  test,
		NTest: test.Count(),
	}
	s.NTrain = d.NSamples() - s.NTest
	s.YTrain = SubsetRows(d.Pheno.Values, train)
	s.YTest = SubsetRows(d.Pheno.Values, test)

	// Every cached vector depends on the training mask, so none survive.
	if d.cache != nil {
		d.cache.Clear()
	}
	d.cache = NewVariantCache(s.NTrain, d.CacheBytes)
	cacheRebuilds.Inc()

	d.split = s
	logger.Printf(">>> Data.SelectFold(): fold: %d Ntrain: %d Ntest: %d cache capacity: %d variants\n", fold, s.NTrain, s.NTest, d.cache.Capacity())
	return s
}

// Split is the current split, or nil before the first SelectFold or
// SelectAll.
func (d *Data) Split() *Split {
	return d.split
}

// Session opens a view of one side of the current split.
func (d *Data) Session(mode Mode) (*Session, error) {
	if d.split == nil {
		return nil, configErrorf("no split selected; call SelectFold or SelectAll first")
	}

	s := &Session{
		Mode:       mode,
		Split:      d.split,
		generation: d.generation,
	}
	switch mode {
	case ModeTrain:
		s.Mask, s.N = d.split.Train, d.split.NTrain
	case ModeTest:
		s.Mask, s.N = d.split.Test, d.split.NTest
	default:
		return nil, configErrorf("unknown mode %d", mode)
	}

	s.ones = make([]float64, s.N)
	for i := range s.ones {
		s.ones[i] = 1
	}
	s.zeros = make([]float64, s.N)

	return s, nil
}

// Coordinate returns feature j over the samples of s. The result is a fresh
// copy owned by the caller.
func (d *Data) Coordinate(s *Session, j int) ([]float64, error) {
	if s == nil || s.generation != d.generation {
		return nil, configErrorf("session is stale: a new split was selected after it was opened")
	}
	if j < 0 || j >= d.FeatureCount() {
		return nil, rangeErrorf("coordinate %d requested but there are %d features", j, d.FeatureCount())
	}

	// intercept
	if j == 0 {
		return append([]float64(nil), s.ones...), nil
	}

	// variants
	if j <= d.BED.NVariants {
		v, err := d.variant(s, j-1)
		if err != nil {
			return nil, err
		}
		return append([]float64(nil), v...), nil
	}

	// covariates
	c := j - d.BED.NVariants - 1
	if s.Mode == ModeTest && d.CovarActions[c] == CovarTrainOnly {
		logger.Printf(">>> Ignoring covariable %d (variable %d) in prediction\n", c, j)
		return append([]float64(nil), s.zeros...), nil
	}

	x := make([]float64, 0, s.N)
	for i, selected := range s.Mask {
		if selected {
			x = append(x, d.Covariates.Values.At(i, c))
		}
	}
	return x, nil
}

// variant serves training requests through the cache and returns the
// cached vector itself. Test requests always read the file so that
// prediction never evicts training entries.
func (d *Data) variant(s *Session, i int) ([]float64, error) {
	if s.Mode == ModeTrain {
		if v, ok := d.cache.Get(i); ok {
			return v, nil
		}
	}

	v, err := d.loadVariant(s.Mask, s.N, i)
	if err != nil {
		return nil, err
	}

	if s.Mode == ModeTrain {
		if err := d.cache.Put(i, v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (d *Data) loadVariant(mask Mask, n, i int) ([]float64, error) {
	start := time.Now()

	var err error
	d.scratch, err = d.BED.Genotypes(d.scratch, i)
	if err != nil {
		return nil, err
	}

	v, err := Standardize(make([]float64, 0, n), d.scratch, mask)
	if err != nil {
		return nil, fmt.Errorf("variant %d: %w", i, err)
	}

	variantLoads.Inc()
	variantLoadTime.UpdateDuration(start)
	return v, nil
}

// CacheStats reports on the cache of the current split.
func (d *Data) CacheStats() CacheStats {
	if d.cache == nil {
		return CacheStats{}
	}
	return d.cache.Stats()
}

// Close releases the BED mapping.
func (d *Data) Close() error {
	return d.BED.Close()
}
