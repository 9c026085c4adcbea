package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tokenscout/tokenscout/internal/app"
	"github.com/tokenscout/tokenscout/internal/config"
	"github.com/tokenscout/tokenscout/internal/discovery"
	"github.com/tokenscout/tokenscout/internal/pipeline"
)

var flagInput string

// scanCmd runs a single scan cycle over discovery records supplied as JSON.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one scan cycle over discovery input",
	Long: `Run a single pipeline cycle. Discovery records are read as a JSON array
from --input (or stdin when omitted), and the ranked candidates plus the
cost report are printed in the selected format.

Example usage:
  tokenscout scan --input discovered.json
  cat discovered.json | tokenscout scan --format=json`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagInput, "input", "", "JSON file of discovery records (stdin when empty)")
}

func loadConfig() (config.Config, error) {
	if flagConfig == "" {
		return config.Default(), nil
	}
	return config.Load(flagConfig)
}

func readDiscovery() ([]discovery.Record, error) {
	var reader io.Reader = os.Stdin
	if flagInput != "" {
		f, err := os.Open(flagInput)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}
	var records []discovery.Record
	if err := json.NewDecoder(reader).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode discovery records: %w", err)
	}
	return records, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	records, err := readDiscovery()
	if err != nil {
		return err
	}

	engine := app.New(cfg, nil)
	candidates, dropped := discovery.Normalize(records, time.Now().UTC())
	if dropped > 0 {
		engine.Controller.Cost().AddPrefilterDrops(dropped)
	}

	result, err := engine.Controller.RunCycle(context.Background(), candidates)
	if err != nil {
		return err
	}
	engine.MarkAlerted(context.Background(), result)

	return printResult(result)
}

func printResult(result *pipeline.CycleResult) error {
	if flagFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tSYMBOL\tSOURCE\tSCORE\tCONFIDENCE\tQUALITY\tTOKEN")
	for i, c := range result.Ranked {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\t%s\t%s\n",
			i+1, c.Symbol, c.Source, c.FinalScore, c.Confidence, c.DataQuality, c.TokenKey)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\ncycle %s: %d emitted, savings %.0f%%, wall clock %s\n",
		result.Cost.CycleID, len(result.Ranked),
		result.Cost.SavingsPct*100, result.Cost.WallClock.Round(time.Millisecond))
	return nil
}
