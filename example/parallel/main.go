package main

import (
	"context"
	"flag"
	"log"
	"sync"

	"github.com/carbocation/plinkbed"
)

func main() {
	configPath := flag.String("config", "", "TOML file with the run configuration")
	flag.Parse()

	if *configPath == "" {
		flag.PrintDefaults()
		log.Fatalln("No config file given")
	}

	cfg, err := plinkbed.LoadConfig(*configPath)
	if err != nil {
		log.Fatalln(err)
	}

	// Draw the folds once so that every worker agrees on them.
	d, err := plinkbed.Load(context.Background(), cfg)
	if err != nil {
		log.Fatalln(err)
	}
	assignment := d.Assignment()
	d.Close()

	folds := make(chan int, cfg.Folds)
	output := make(chan FoldSummary)

	var wg sync.WaitGroup
	workers := cfg.Folds
	log.Println("Launching", workers, "workers")
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			Worker(workerID, cfg, assignment, folds, output)
		}(i)
	}

	go func() {
		for fold := 0; fold < cfg.Folds; fold++ {
			folds <- fold
		}
		close(folds)
	}()

	go func() {
		wg.Wait()
		close(output)
	}()

	for summary := range output {
		log.Printf("%+v\n", summary)
	}
}

type FoldSummary struct {
	Fold          int
	NTrain, NTest int
	Degenerate    int
	Cache         plinkbed.CacheStats
}

// Each worker has to maintain its own Data since it is not safe for
// concurrent use. The BED mapping is read-only, so the workers can share the
// underlying file.
func Worker(workerID int, cfg plinkbed.Config, assignment plinkbed.Assignment, folds <-chan int, output chan<- FoldSummary) {
	d, err := plinkbed.Load(context.Background(), cfg)
	if err != nil {
		log.Printf("Worker %d exited: %v\n", workerID, err)
		return
	}
	defer d.Close()

	if err := d.SetAssignment(assignment, cfg.Folds); err != nil {
		log.Printf("Worker %d exited: %v\n", workerID, err)
		return
	}

	for fold := range folds {
		split, err := d.SelectFold(fold)
		if err != nil {
			log.Printf("Worker %d skipped fold %d: %v\n", workerID, fold, err)
			continue
		}
		train, err := d.Session(plinkbed.ModeTrain)
		if err != nil {
			log.Printf("Worker %d skipped fold %d: %v\n", workerID, fold, err)
			continue
		}

		summary := FoldSummary{Fold: fold, NTrain: split.NTrain, NTest: split.NTest}
		for pass := 0; pass < 2; pass++ {
			for j := 0; j < d.FeatureCount(); j++ {
				if _, err := d.Coordinate(train, j); err != nil {
					if pass == 0 {
						summary.Degenerate++
					}
				}
			}
		}
		summary.Cache = d.CacheStats()
		output <- summary
	}
}
