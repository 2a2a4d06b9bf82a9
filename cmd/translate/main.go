package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/teatak/smt/config"
	"github.com/teatak/smt/translator"
	"github.com/teatak/smt/util"
)

func main() {
	configPath := flag.String("config", "data/smt.yaml", "Path to config file")
	nbest := flag.Int("nbest", -1, "N-best list size (overrides config)")
	distinct := flag.Bool("distinct", false, "Only print distinct n-best surface strings")
	trace := flag.Bool("t", false, "Print the phrase segmentation of the 1-best output")
	distortion := flag.Int("dl", -2, "Distortion limit, -1 for unlimited (overrides config)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// 1. Configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *nbest >= 0 {
		cfg.NBest.Size = *nbest
	}
	if *distinct {
		cfg.NBest.Distinct = true
	}
	if *trace {
		cfg.Search.ReportSegmentation = true
	}
	if *distortion >= -1 {
		cfg.Search.DistortionLimit = *distortion
	}
	util.SetVerbose(*verbose || cfg.Logging.Verbose)
	closer, err := util.SetupLogging(cfg.Logging.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer util.CloseWithErr(closer, "log file")

	// 2. Models
	tr, err := translator.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading models: %v\n", err)
		os.Exit(1)
	}

	id := 0
	process := func(text string) {
		res := tr.Translate(context.Background(), text)
		res.ID = id
		id++
		fmt.Println(tr.OutputLine(res))
		for _, line := range tr.NBestLines(res) {
			fmt.Println(line)
		}
		if res.Degraded {
			util.Warnf("sentence %d: partial translation", res.ID)
		}
	}

	// If args provided (non-flag args), translate them
	args := flag.Args()
	if len(args) > 0 {
		process(strings.Join(args, " "))
		return
	}

	// Otherwise interactive mode
	fmt.Fprintln(os.Stderr, "Enter text to translate (Ctrl+D to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		process(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		util.Errorf("read stdin: %v", err)
	}
}
