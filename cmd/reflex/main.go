package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7421"
	pidFile    = "reflexd.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "config":
		err = cmdConfig()
	case "submit":
		err = cmdSubmit(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "settings":
		err = cmdSettings(os.Args[2:])
	case "data":
		err = cmdData(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("reflex %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Reflex - Reaction Time Performance Analytics

Usage:
  reflex <command> [arguments]

Daemon Commands:
  start           Start the Reflex daemon
  stop            Stop the Reflex daemon
  status          Show daemon status
  logs            View daemon logs
  config          Show current configuration

Game Commands:
  submit          Submit a game's round times (ms)
  stats           Show performance statistics
  stats analysis  Show the latest full analysis

Settings Commands:
  settings show     Show current settings
  settings set      Apply a JSON settings patch
  settings preset   Apply a settings preset
  settings reset    Restore default settings
  settings export   Export settings to stdout
  settings import   Import settings from a file

Data Commands:
  data export     Export the full analytics document
  data import     Import a previously exported document
  data reset      Delete all recorded games

Other:
  help            Show this help message
  version         Show version information

Examples:
  reflex start                          # Start daemon
  reflex submit --mode ranked 320 410   # Record a ranked game
  reflex stats                          # Show statistics
  reflex settings preset minimal        # Quiet the messaging`)
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
