package plinkbed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, "run.toml", `
bed = "study.bed"
pheno = "study.pheno"
folds = 5
cache_mb = 64
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "study.bed", cfg.BED)
	assert.Equal(t, 5, cfg.Folds)
	assert.EqualValues(t, 64, cfg.CacheMB)

	// Defaults survive for keys the file leaves out.
	assert.Equal(t, 3, cfg.PhenoFirstCol)
	assert.EqualValues(t, 1, cfg.Seed)
	assert.Equal(t, "study.bim", cfg.BIMPath())
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigRejects(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "run.toml", "bed = \"a.bed\"\nfoldz = 3\n"))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = LoadConfig(writeFile(t, "run.toml", "bed = \n"))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.BED, valid.Pheno = "a.bed", "a.pheno"
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Config){
		"no bed":        func(c *Config) { c.BED = "" },
		"no pheno":      func(c *Config) { c.Pheno = "" },
		"first col":     func(c *Config) { c.PhenoFirstCol = 0 },
		"actions alone": func(c *Config) { c.CovarActions = "a.actions" },
		"folds":         func(c *Config) { c.Folds = 0 },
		"reps":          func(c *Config) { c.Reps = 0 },
		"kind":          func(c *Config) { c.PhenoKind = "ordinal" },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.ErrorIs(t, c.Validate(), ErrConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	n := len(testVariants[0])

	var pheno, covar string
	for i := 0; i < n; i++ {
		pheno += fmt.Sprintf("F%d I%d %d\n", i, i, i%2+1)
		covar += fmt.Sprintf("F%d I%d %d %d\n", i, i, i, i*i)
	}

	cfg := DefaultConfig()
	cfg.BED = writeBEDFile(t, n, testVariants)
	cfg.Pheno = filepath.Join(dir, "study.pheno")
	cfg.PhenoKind = "binary12"
	cfg.Covar = filepath.Join(dir, "study.covar")
	cfg.CovarActions = filepath.Join(dir, "study.actions")
	cfg.FoldFile = filepath.Join(dir, "folds_0.txt")
	cfg.Folds = 2

	require.NoError(t, os.WriteFile(cfg.Pheno, []byte(pheno), 0o644))
	require.NoError(t, os.WriteFile(cfg.Covar, []byte(covar), 0o644))
	require.NoError(t, os.WriteFile(cfg.CovarActions, []byte("train-test\ntrain-only\n"), 0o644))
	require.NoError(t, os.WriteFile(cfg.FoldFile, []byte("0\n0\n1\n1\n1\n"), 0o644))

	d, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	defer d.Close()

	assert.Equal(t, n, d.NSamples())
	assert.Equal(t, 2, d.NCovariates())
	assert.Equal(t, []CovarAction{CovarTrainTest, CovarTrainOnly}, d.CovarActions)
	assert.Equal(t, Assignment{0, 0, 1, 1, 1}, d.Assignment())
	assert.Equal(t, -1.0, d.Pheno.Values.At(0, 0))

	split, err := d.SelectFold(1)
	require.NoError(t, err)
	assert.Equal(t, 2, split.NTrain)

	// Without a fold file the assignment is drawn from the seed.
	cfg.FoldFile = ""
	d2, err := Load(context.Background(), cfg)
	require.NoError(t, err)
	defer d2.Close()
	assert.Len(t, d2.Assignment(), n)
}
