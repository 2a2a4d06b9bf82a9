package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/teatak/smt/config"
	"github.com/teatak/smt/translator"
	"github.com/teatak/smt/util"
)

const chunkSize = 1000

func main() {
	configPath := flag.String("config", "data/smt.yaml", "Path to config file")
	inputPath := flag.String("input", "data/input.txt", "Input file path, one tokenized sentence per line")
	outputPath := flag.String("output", "data/output.txt", "1-best output path (.gz and .zst are compressed)")
	nbestPath := flag.String("nbest-file", "", "N-best output path (overrides config)")
	nbest := flag.Int("nbest", -1, "N-best list size (overrides config)")
	workers := flag.Int("workers", 0, "Decoding goroutines (overrides config)")
	flag.Parse()

	// 1. Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *nbestPath != "" {
		cfg.NBest.File = *nbestPath
	}
	if *nbest >= 0 {
		cfg.NBest.Size = *nbest
	}
	if cfg.NBest.File != "" && cfg.NBest.Size == 0 {
		cfg.NBest.Size = 100
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}
	util.SetVerbose(cfg.Logging.Verbose)
	closer, err := util.SetupLogging(cfg.Logging.LogFile)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer util.CloseWithErr(closer, "log file")
	if dump, err := cfg.Dump(); err == nil {
		util.Highlightf("config:\n%s", dump)
	}

	// 2. Models
	tr, err := translator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to load models: %v", err)
	}

	// 3. Open Files
	in, err := util.OpenReader(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer util.CloseWithErr(in, "input")

	out, err := util.CreateWriter(*outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	writer := bufio.NewWriter(out)

	var nbestOut *bufio.Writer
	if cfg.NBest.File != "" {
		f, err := util.CreateWriter(cfg.NBest.File)
		if err != nil {
			log.Fatalf("Failed to create n-best file: %v", err)
		}
		defer util.CloseWithErr(f, "n-best file")
		nbestOut = bufio.NewWriter(f)
		defer nbestOut.Flush()
	}

	// 4. Process in chunks; output order follows input order
	batch := tr.NewBatch(cfg.Workers)
	util.Infof("run %s: decoding %s with %d worker(s)", batch.ID, *inputPath, batch.Workers)
	start := time.Now()
	count := 0
	flush := func(lines []string) {
		for _, res := range batch.Run(context.Background(), lines, count) {
			fmt.Fprintln(writer, tr.OutputLine(res))
			if nbestOut != nil {
				for _, line := range tr.NBestLines(res) {
					fmt.Fprintln(nbestOut, line)
				}
			}
		}
		count += len(lines)
		log.Printf("Processed %d lines...", count)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	chunk := make([]string, 0, chunkSize)
	for scanner.Scan() {
		chunk = append(chunk, scanner.Text())
		if len(chunk) == chunkSize {
			flush(chunk)
			chunk = chunk[:0]
		}
	}
	if len(chunk) > 0 {
		flush(chunk)
	}
	if err := scanner.Err(); err != nil {
		util.Errorf("Error scanning file: %v", err)
	}

	if err := writer.Flush(); err != nil {
		util.Errorf("flush output: %v", err)
	}
	if err := out.Close(); err != nil {
		util.Errorf("close output: %v", err)
	}
	util.Infof("%s", batch.Summary(time.Since(start)))
	log.Printf("Done. Processed %d lines. Saved to %s", count, *outputPath)
}
