package plinkbed

import (
	"context"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config names the inputs of one cross-validation run. It can be decoded
// from TOML:
//
//	bed = "study.bed"
//	pheno = "study.pheno"
//	pheno_first_col = 3
//	covar = "study.covar.gz"
//	covar_actions = "study.actions"
//	folds = 10
//	seed = 1
//	cache_mb = 2048
type Config struct {
	BED           string `toml:"bed"`
	BIM           string `toml:"bim"`
	Pheno         string `toml:"pheno"`
	PhenoFirstCol int    `toml:"pheno_first_col"`
	PhenoKind     string `toml:"pheno_kind"`
	Covar         string `toml:"covar"`
	CovarFirstCol int    `toml:"covar_first_col"`
	CovarActions  string `toml:"covar_actions"`

	// FoldFile reuses a saved assignment instead of drawing Folds.
	FoldFile string `toml:"fold_file"`
	Folds    int    `toml:"folds"`
	Reps     int    `toml:"reps"`
	Seed     int64  `toml:"seed"`

	CacheMB int64  `toml:"cache_mb"`
	OutDir  string `toml:"out_dir"`
}

// DefaultConfig holds the defaults applied to fields left empty.
func DefaultConfig() Config {
	return Config{
		PhenoFirstCol: 3,
		PhenoKind:     PhenoContinuous.String(),
		CovarFirstCol: 3,
		Folds:         10,
		Reps:          1,
		Seed:          1,
		CacheMB:       DefaultCacheBytes >> 20,
		OutDir:        ".",
	}
}

// LoadConfig decodes a TOML file on top of DefaultConfig. It does not
// validate, so that flags can still fill in missing fields; Load does.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, configErrorf("%s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, configErrorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch {
	case c.BED == "":
		return configErrorf("bed is required")
	case c.Pheno == "":
		return configErrorf("pheno is required; it sets the sample count of the BED file")
	case c.PhenoFirstCol < 1:
		return configErrorf("pheno_first_col must be at least 1, got %d", c.PhenoFirstCol)
	case c.Covar != "" && c.CovarFirstCol < 1:
		return configErrorf("covar_first_col must be at least 1, got %d", c.CovarFirstCol)
	case c.CovarActions != "" && c.Covar == "":
		return configErrorf("covar_actions given without covar")
	case c.Folds < 1:
		return configErrorf("folds must be at least 1, got %d", c.Folds)
	case c.Reps < 1:
		return configErrorf("reps must be at least 1, got %d", c.Reps)
	}
	if _, err := ParsePhenoKind(c.PhenoKind); err != nil {
		return err
	}
	return nil
}

// BIMPath is the BIM file next to the BED file unless one was named.
func (c Config) BIMPath() string {
	if c.BIM != "" {
		return c.BIM
	}
	return strings.TrimSuffix(c.BED, filepath.Ext(c.BED)) + ".bim"
}

// Load reads the inputs in the order their dependencies require: the
// phenotypes fix the sample count, which is needed to map the BED file.
// Covariates and their actions are optional. The result has a fold
// assignment (read from FoldFile or drawn with Seed) but no split yet.
func Load(ctx context.Context, cfg Config) (*Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kind, _ := ParsePhenoKind(cfg.PhenoKind)
	pheno, err := ReadPhenotypes(ctx, cfg.Pheno, cfg.PhenoFirstCol, kind)
	if err != nil {
		return nil, err
	}

	bed, err := OpenBED(cfg.BED, pheno.NSamples())
	if err != nil {
		return nil, err
	}

	var (
		covar   *Table
		actions []CovarAction
	)
	if cfg.Covar != "" {
		if covar, err = ReadCovariates(ctx, cfg.Covar, cfg.CovarFirstCol); err != nil {
			bed.Close()
			return nil, err
		}
		if cfg.CovarActions != "" {
			if actions, err = ReadCovarActions(ctx, cfg.CovarActions, covar.NColumns()); err != nil {
				bed.Close()
				return nil, err
			}
		}
	}

	d, err := NewData(bed, pheno, covar, actions, cfg.CacheMB<<20)
	if err != nil {
		bed.Close()
		return nil, err
	}

	if cfg.FoldFile != "" {
		a, err := ReadAssignment(ctx, cfg.FoldFile)
		if err == nil {
			err = d.SetAssignment(a, cfg.Folds)
		}
		if err != nil {
			bed.Close()
			return nil, err
		}
	} else if _, err := d.MakeFolds(rand.New(rand.NewSource(cfg.Seed)), cfg.Folds); err != nil {
		bed.Close()
		return nil, err
	}

	return d, nil
}

func (c Config) String() string {
	var sb strings.Builder
	addField := func(name string, value interface{}) {
		sb.WriteString(fmt.Sprintf("  %-16s: %v\n", name, value))
	}
	addField("BED", c.BED)
	addField("Phenotypes", fmt.Sprintf("%s (from column %d, %s)", c.Pheno, c.PhenoFirstCol, c.PhenoKind))
	if c.Covar != "" {
		addField("Covariates", fmt.Sprintf("%s (from column %d)", c.Covar, c.CovarFirstCol))
		addField("Covar actions", c.CovarActions)
	}
	addField("Folds", c.Folds)
	addField("Repetitions", c.Reps)
	addField("Seed", c.Seed)
	addField("Cache", fmt.Sprintf("%d MB", c.CacheMB))
	return sb.String()
}
