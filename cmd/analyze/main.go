// Command analyze runs the full inference pipeline over a captured event
// CSV and prints the topology analysis summary.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"meshscope/internal/codec"
	"meshscope/internal/engine"
	"meshscope/internal/report"
	"meshscope/internal/repository/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		modelOut = flag.String("o", "", "write the render model as JSON to this path")
		dbPath   = flag.String("db", "", "archive the run in this SQLite database")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <events.csv>\n\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	csvPath := flag.Arg(0)

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", csvPath, err)
	}
	records, failed, err := codec.ReadCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("Failed to read %s: %v", csvPath, err)
	}
	if failed > 0 {
		log.Printf("Skipped %d malformed rows in %s", failed, csvPath)
	}

	res := engine.Run(records)

	report.Summary(os.Stdout, res)
	report.Receipts(os.Stdout, res.Receipts, res.Graph.GatewayID)
	report.Links(os.Stdout, res.Graph)
	if res.InferredEdges > 0 {
		fmt.Printf("\nInferred %d routing edges from neighbor observations\n", res.InferredEdges)
	}

	if *modelOut != "" {
		if err := writeModel(*modelOut, res); err != nil {
			log.Fatalf("Failed to export model: %v", err)
		}
		fmt.Printf("\nModel written to %s\n", *modelOut)
	}

	if *dbPath != "" {
		repo, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer repo.Close()
		runID, err := repo.SaveRun(context.Background(), csvPath, res.Model)
		if err != nil {
			log.Fatalf("Failed to archive run: %v", err)
		}
		fmt.Printf("Run archived as %s\n", runID)
	}
}

func writeModel(path string, res *engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return codec.NewJSONExporter().Export(res.Model, f)
}
