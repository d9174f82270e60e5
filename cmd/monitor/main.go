// Command monitor listens for live mesh events over UDP, prints a
// colorized event feed, and accepts interactive commands for querying
// statistics and controlling nodes.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"meshscope/internal/config"
	"meshscope/internal/monitor"
)

const helpText = `Commands:
  STOP [node]      pause TDMA transmission (all nodes if omitted)
  START [node]     resume TDMA transmission
  STATUS [node]    request a status report
  REBOOT <node>    reboot one node
  PING [node]      request an echo
  CYCLE [node]     request a cycle status report
  PDR [node]       request a PDR report from the node
  BROADCAST <cmd>  send a raw command to every node
  STATS            print live latency statistics
  PDR_STATS        print live PDR statistics
  ANALYZE          run topology analysis over the archive
  SAVE [path]      write the archive to CSV
  EXPORT <path>    write the render model as JSON
  HELP             show this help
  QUIT             save and exit`

// Console verbs that translate to node commands.
var nodeCommands = map[string]string{
	"STOP":   "TDMA_STOP",
	"START":  "TDMA_START",
	"STATUS": "STATUS",
	"REBOOT": "REBOOT",
	"PING":   "PING",
	"CYCLE":  "CYCLE_STATUS",
	"PDR":    "PDR_STATS",
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		output      = flag.String("o", "", "CSV output path (overrides config)")
		configPath  = flag.String("config", "", "config file path")
		metricsAddr = flag.String("metrics", "", "Prometheus listen address (overrides config)")
	)
	flag.Parse()

	var cfg *config.Config
	var src string
	var err error
	if *configPath != "" {
		cfg, src, err = config.LoadFromPath(*configPath)
	} else {
		cfg, src, err = config.Load()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if src != "" {
		log.Printf("Loaded config from %s", src)
	}
	if *output != "" {
		cfg.Monitor.Output = *output
	}
	if *metricsAddr != "" {
		cfg.Monitor.MetricsAddr = *metricsAddr
	}

	mon := monitor.New(cfg, os.Stdout)
	if err := mon.Start(); err != nil {
		log.Fatalf("Failed to start monitor: %v", err)
	}
	fmt.Printf("Listening for events on %s (commands to port %d)\n",
		cfg.Monitor.ListenAddr, cfg.Monitor.CommandPort)

	if cfg.Monitor.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", mon.Metrics().Handler())
		go func() {
			if err := http.ListenAndServe(cfg.Monitor.MetricsAddr, mux); err != nil {
				log.Printf("metrics server: %v", err)
			}
		}()
		fmt.Printf("Metrics on http://%s/metrics\n", cfg.Monitor.MetricsAddr)
	}

	fmt.Println("Type HELP for commands.")
	repl(mon, cfg)

	fmt.Println("Shutting down...")
	mon.Stop()
	if err := mon.Save(cfg.Monitor.Output); err != nil {
		log.Printf("Failed to save archive: %v", err)
	} else {
		fmt.Printf("Archive saved to %s\n", cfg.Monitor.Output)
	}
}

func repl(mon *monitor.Monitor, cfg *config.Config) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		verb := strings.ToUpper(parts[0])
		args := parts[1:]

		switch verb {
		case "QUIT", "EXIT":
			return
		case "HELP":
			fmt.Println(helpText)
		case "STATS":
			mon.Stats(os.Stdout)
		case "PDR_STATS":
			mon.PDRStats(os.Stdout)
		case "ANALYZE":
			mon.Analyze(os.Stdout)
		case "SAVE":
			path := cfg.Monitor.Output
			if len(args) > 0 {
				path = args[0]
			}
			if err := mon.Save(path); err != nil {
				fmt.Printf("Save failed: %v\n", err)
			} else {
				fmt.Printf("Archive saved to %s\n", path)
			}
		case "EXPORT":
			if len(args) == 0 {
				fmt.Println("Usage: EXPORT <path>")
				continue
			}
			if err := mon.Export(args[0]); err != nil {
				fmt.Printf("Export failed: %v\n", err)
			} else {
				fmt.Printf("Model written to %s\n", args[0])
			}
		case "BROADCAST":
			if len(args) == 0 {
				fmt.Println("Usage: BROADCAST <command>")
				continue
			}
			mon.QueueCommand(0, strings.Join(args, " "))
		default:
			cmd, ok := nodeCommands[verb]
			if !ok {
				fmt.Printf("Unknown command %q. Type HELP.\n", verb)
				continue
			}
			if len(args) == 0 {
				if verb == "REBOOT" {
					fmt.Println("Usage: REBOOT <node>")
					continue
				}
				mon.QueueCommand(0, cmd)
				continue
			}
			nodeID, err := strconv.Atoi(args[0])
			if err != nil || nodeID < 0 {
				fmt.Printf("Bad node id %q\n", args[0])
				continue
			}
			mon.QueueCommand(nodeID, cmd)
		}
	}
}
