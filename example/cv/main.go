package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/plinkbed"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cv",
	Short: "Cross-validation folds and feature access over PLINK BED files",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return viper.BindPFlags(cmd.Flags())
	},
}

var foldsCmd = &cobra.Command{
	Use:   "folds",
	Short: "Draw fold assignments and save one folds_<rep>.txt per repetition",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		d, err := plinkbed.Load(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		rng := rand.New(rand.NewSource(cfg.Seed))
		for rep := 0; rep < cfg.Reps; rep++ {
			a, err := d.MakeFolds(rng, cfg.Folds)
			if err != nil {
				return err
			}
			path, err := plinkbed.SaveAssignment(cfg.OutDir, rep, a)
			if err != nil {
				return err
			}
			log.Println("Saved fold assignment for repetition", rep, "to", path)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Walk every fold, touching every feature in train and test mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log.Printf("Configuration:\n%s", cfg)

		d, err := plinkbed.Load(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer d.Close()

		passes := viper.GetInt("passes")
		for fold := 0; fold < cfg.Folds; fold++ {
			split, err := d.SelectFold(fold)
			if err != nil {
				return err
			}

			train, err := d.Session(plinkbed.ModeTrain)
			if err != nil {
				return err
			}
			// Repeated passes mimic an optimizer revisiting every coordinate.
			for pass := 0; pass < passes; pass++ {
				for j := 0; j < d.FeatureCount(); j++ {
					if _, err := d.Coordinate(train, j); err != nil {
						return err
					}
				}
			}

			if split.NTest > 0 {
				test, err := d.Session(plinkbed.ModeTest)
				if err != nil {
					return err
				}
				for j := 0; j < d.FeatureCount(); j++ {
					if _, err := d.Coordinate(test, j); err != nil {
						return err
					}
				}
			}

			log.Printf("Fold %d: %+v\n", fold, d.CacheStats())
		}

		plinkbed.WriteMetrics(os.Stdout)
		return nil
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build a SQLite index of the BIM file next to the BED file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		bim := cfg.BIMPath()
		variants, err := plinkbed.ReadBIM(cmd.Context(), bim)
		if err != nil {
			return err
		}

		idx, err := plinkbed.CreateBIMIndex(bim+".db", bim, variants)
		if err != nil {
			return err
		}
		defer idx.Close()

		log.Printf("Indexed %d variants from %s using the %s driver\n", len(variants), bim, plinkbed.WhichSQLiteDriver())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML file with the run configuration")
	rootCmd.PersistentFlags().String("bed", "", "PLINK BED file")
	rootCmd.PersistentFlags().String("bim", "", "PLINK BIM file (default: next to the BED file)")
	rootCmd.PersistentFlags().String("pheno", "", "Phenotype or FAM file; sets the sample count")
	rootCmd.PersistentFlags().Int("pheno-first-col", 3, "One-based column of the first phenotype")
	rootCmd.PersistentFlags().String("pheno-kind", "continuous", "continuous or binary12")
	rootCmd.PersistentFlags().String("covar", "", "Covariate file")
	rootCmd.PersistentFlags().Int("covar-first-col", 3, "One-based column of the first covariate")
	rootCmd.PersistentFlags().String("covar-actions", "", "One train-only/train-test token per covariate")
	rootCmd.PersistentFlags().String("fold-file", "", "Reuse a saved fold assignment")
	rootCmd.PersistentFlags().Int("folds", 10, "Number of folds")
	rootCmd.PersistentFlags().Int("reps", 1, "Number of fold assignments to draw")
	rootCmd.PersistentFlags().Int64("seed", 1, "Random seed for fold assignment")
	rootCmd.PersistentFlags().Int64("cache-mb", plinkbed.DefaultCacheBytes>>20, "Variant cache budget in MB")
	rootCmd.PersistentFlags().String("out-dir", ".", "Directory for fold files")

	inspectCmd.Flags().Int("passes", 3, "Training passes over every feature per fold")

	rootCmd.AddCommand(foldsCmd, inspectCmd, indexCmd)
}

// loadConfig starts from the TOML file, if any, and lets flags and
// PLINKBED_* environment variables override it.
func loadConfig() (plinkbed.Config, error) {
	cfg := plinkbed.DefaultConfig()
	if path := viper.GetString("config"); path != "" {
		var err error
		if cfg, err = plinkbed.LoadConfig(expandHome(path)); err != nil {
			return cfg, err
		}
	}

	for key, dst := range map[string]*string{
		"bed":           &cfg.BED,
		"bim":           &cfg.BIM,
		"pheno":         &cfg.Pheno,
		"pheno-kind":    &cfg.PhenoKind,
		"covar":         &cfg.Covar,
		"covar-actions": &cfg.CovarActions,
		"fold-file":     &cfg.FoldFile,
		"out-dir":       &cfg.OutDir,
	} {
		if viper.IsSet(key) {
			*dst = viper.GetString(key)
		}
		if key != "pheno-kind" {
			*dst = expandHome(*dst)
		}
	}
	for key, dst := range map[string]*int{
		"pheno-first-col": &cfg.PhenoFirstCol,
		"covar-first-col": &cfg.CovarFirstCol,
		"folds":           &cfg.Folds,
		"reps":            &cfg.Reps,
	} {
		if viper.IsSet(key) {
			*dst = viper.GetInt(key)
		}
	}
	if viper.IsSet("seed") {
		cfg.Seed = viper.GetInt64("seed")
	}
	if viper.IsSet("cache-mb") {
		cfg.CacheMB = viper.GetInt64("cache-mb")
	}

	return cfg, cfg.Validate()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		log.Fatalln(pfx.Err(err))
	}
	return filepath.Join(usr.HomeDir, path[2:])
}

func main() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("plinkbed")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
