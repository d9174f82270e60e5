// Command graph renders a captured event CSV as a node, link and route
// report plus an ASCII routing diagram, and optionally exports the render
// model for external visualizers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"meshscope/internal/codec"
	"meshscope/internal/engine"
	"meshscope/internal/report"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	modelOut := flag.String("o", "", "write the render model as JSON to this path")
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

	fmt.Printf("Topology: %s, Gateway: Node %d, Nodes: %d\n",
		res.Class, res.Graph.GatewayID, len(res.Graph.NodeIDs()))

	fmt.Println("\nNodes:")
	for _, n := range res.Graph.Nodes() {
		hop := "?"
		if n.HopKnown() {
			hop = fmt.Sprintf("%d", n.Hop)
			if n.HopEstimated {
				hop += " (est)"
			}
		}
		pos := res.Positions[n.ID]
		fmt.Printf("  Node %d: role=%s hop=%s pos=(%.1f, %.1f)\n",
			n.ID, n.Role(), hop, pos.X, pos.Y)
	}

	report.Links(os.Stdout, res.Graph)
	fmt.Println()
	fmt.Print(report.RoutingDiagram(res.Graph))

	if *modelOut != "" {
		out, err := os.Create(*modelOut)
		if err != nil {
			log.Fatalf("Failed to create %s: %v", *modelOut, err)
		}
		defer out.Close()
		if err := codec.NewJSONExporter().Export(res.Model, out); err != nil {
			log.Fatalf("Failed to export model: %v", err)
		}
		fmt.Printf("\nModel written to %s\n", *modelOut)
	}
}
