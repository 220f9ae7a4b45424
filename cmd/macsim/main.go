// Package main provides the entry point for MACSim.
// MACSim is a verification harness for the TinyQV INT16 MAC peripheral,
// driving a simulated device over its bit-serial register link.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/sarchlab/macsim/harness"
)

var (
	configPath = flag.String("config", "", "Path to harness configuration JSON file")
	scenarios  = flag.String("scenario", "", "Comma-separated scenario names (default: all)")
	seed       = flag.Int64("seed", 0, "Override the stress scenario RNG seed")
	list       = flag.Bool("list", false, "List scenarios and exit")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	rig := harness.NewRig(cfg)
	suite := harness.NewSuite(rig, cfg, harness.WithVerbose(*verbose))

	if *list {
		for _, name := range suite.ScenarioNames() {
			fmt.Println(name)
		}
		return
	}

	var names []string
	if *scenarios != "" {
		names = strings.Split(*scenarios, ",")
	}

	results, err := suite.Run(names...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	os.Exit(report(rig, results))
}

// loadConfig loads the configuration file, or defaults when none is
// given.
func loadConfig() (*harness.Config, error) {
	if *configPath == "" {
		return harness.DefaultConfig(), nil
	}
	return harness.LoadConfig(*configPath)
}

// report prints the scenario outcomes and returns the process exit
// code.
func report(rig *harness.Rig, results []harness.Result) int {
	failed := 0
	for _, r := range results {
		status := "PASS"
		if !r.Passed() {
			status = "FAIL"
			failed++
		}
		fmt.Printf("%-4s %-24s %8.2f us\n",
			status, r.Name, float64(r.End-r.Start)*1e6)
		if r.Err != nil {
			fmt.Printf("     %v\n", r.Err)
		}
	}

	stats := rig.Engine.Stats()
	fmt.Printf("\n")
	fmt.Printf("Scenarios: %d run, %d failed\n", len(results), failed)
	fmt.Printf("Transactions: %d writes, %d reads, %d bits on the wire\n",
		stats.Writes, stats.Reads, stats.BitsSent)
	fmt.Printf("Virtual time: %.2f us\n", float64(rig.Clock.Now())*1e6)

	if failed > 0 {
		return 1
	}
	return 0
}
