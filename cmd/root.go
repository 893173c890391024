package cmd

import (
	"fmt"
	"os"
)

// knownSubcommands is the set of CLI subcommands that bypass the TUI.
var knownSubcommands = map[string]bool{
	"serve":   true,
	"status":  true,
	"predict": true,
	"journal": true,
	"config":  true,
	"themes":  true,
	"version": true,
	"help":    true,
}

// IsSubcommand returns true if the argument is a known CLI subcommand.
func IsSubcommand(arg string) bool {
	return knownSubcommands[arg]
}

// Execute dispatches to the appropriate CLI subcommand handler.
func Execute(args []string) {
	if len(args) == 0 {
		return
	}

	switch args[0] {
	case "serve":
		serveCmd(args[1:])
	case "status":
		statusCmd(args[1:])
	case "predict":
		predictCmd(args[1:])
	case "journal":
		journalCmd(args[1:])
	case "config":
		configCmd(args[1:])
	case "themes":
		themesCmd()
	case "version":
		fmt.Printf("sol v%s\n", Version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sol - solar plant telemetry dashboard

Usage:
  sol                       Launch TUI dashboard
  sol --dashboard NAME      Launch with specific dashboard
  sol --theme NAME          Launch with theme override
  sol --base-url URL        Launch against another backend
  sol --no-journal          Do not record readings
  sol serve                 Run the headless HTTP/WebSocket server
  sol status                Query every backend endpoint once
  sol predict               Request a single power prediction
  sol journal               Show recorded readings
  sol config <cmd>          Manage configuration
  sol themes                List available themes
  sol version               Show version
  sol help                  Show this help

Serve:
  sol serve --addr :8080 [--retain 720h] [--no-journal]

Predict:
  sol predict --ambient 25 --module 38 --irradiation 0.8 [--at 2024-06-03T14:00:00Z]

Journal:
  sol journal [--limit 20] [--csv]

Config Commands:
  sol config path                  Show config file path
  sol config show                  Print the effective config
  sol config theme NAME            Set default theme
  sol config base-url URL          Set the backend base URL
  sol config dashboards            List dashboard files
  sol config init-dashboard [NAME] Write the default dashboard to a file`)
}
