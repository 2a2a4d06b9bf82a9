package main

import (
	"flag"
	"log"
	"time"

	"github.com/teatak/smt/phrasetable"
	"github.com/teatak/smt/util"
)

func main() {
	inputPath := flag.String("input", "data/input.txt", "Sentences the filtered table must cover")
	tablePath := flag.String("table", "data/phrase-table.gz", "Phrase table to filter")
	outputPath := flag.String("output", "data/phrase-table.filtered.gz", "Filtered phrase table path")
	maxLen := flag.Int("max-len", 7, "Longest source phrase to keep")
	flag.Parse()

	if _, err := util.SetupLogging(""); err != nil {
		log.Fatal(err)
	}
	if !util.FileExists(*tablePath) {
		log.Fatalf("Phrase table not found: %s", *tablePath)
	}

	// 1. Filter
	start := time.Now()
	util.Infof("Filtering %s for %s (phrases up to %d words)...", *tablePath, *inputPath, *maxLen)
	kept, seen, err := phrasetable.Filter(*inputPath, *tablePath, *outputPath, *maxLen)
	if err != nil {
		log.Fatalf("Filter failed: %v", err)
	}

	// 2. Report
	removed := seen - kept
	util.Infof("Filtering done. %d -> %d entries. (Removed %d) in %v", seen, kept, removed, time.Since(start).Round(time.Millisecond))
	log.Printf("Saved to %s", *outputPath)
}
