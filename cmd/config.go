package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/tonhe/sol/internal/config"
	"github.com/tonhe/sol/internal/dashboard"
	"github.com/tonhe/sol/tui/styles"
)

const configUsage = "Usage: sol config <path|show|theme|base-url|dashboards|init-dashboard>"

func configCmd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, configUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "path":
		configPath()
	case "show":
		configShow()
	case "theme":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: sol config theme NAME")
			os.Exit(1)
		}
		configSetTheme(args[1])
	case "base-url":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: sol config base-url URL")
			os.Exit(1)
		}
		configSetBaseURL(args[1])
	case "dashboards":
		configListDashboards()
	case "init-dashboard":
		name := "default"
		if len(args) > 1 {
			name = args[1]
		}
		configInitDashboard(name)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		fmt.Fprintln(os.Stderr, configUsage)
		os.Exit(1)
	}
}

func configPath() {
	path, err := config.GetConfigPath()
	if err != nil {
		fatal("%v", err)
	}
	fmt.Println(path)
}

// configShow prints the effective config, environment overrides included.
func configShow() {
	cfg, path, err := LoadConfig(Overrides{})
	if err != nil {
		fatal("%v", err)
	}
	cfg.RequestTimeoutStr = cfg.RequestTimeout.String()
	fmt.Printf("# %s\n", path)
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		fatal("%v", err)
	}
}

func configSetTheme(name string) {
	if styles.GetThemeByName(name) == nil {
		fmt.Fprintf(os.Stderr, "Error: unknown theme %q\n", name)
		fmt.Fprintln(os.Stderr, "Run 'sol themes' to see available themes.")
		os.Exit(1)
	}

	cfg := loadOrDefaultConfig()
	cfg.Theme = name
	saveConfig(cfg)

	fmt.Printf("Default theme set to %q.\n", name)
}

func configSetBaseURL(raw string) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		fatal("base URL %q must be absolute, e.g. http://host:5000", raw)
	}

	cfg := loadOrDefaultConfig()
	cfg.BaseURL = raw
	saveConfig(cfg)

	fmt.Printf("Backend set to %q.\n", raw)
}

func configListDashboards() {
	dir, err := config.GetDashboardsDir()
	if err != nil {
		fatal("%v", err)
	}
	names, err := dashboard.ListDashboards(dir)
	if err != nil {
		fatal("%v", err)
	}
	if len(names) == 0 {
		fmt.Printf("No dashboard files in %s; the built-in default is used.\n", dir)
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}

func configInitDashboard(name string) {
	if err := config.EnsureDirs(); err != nil {
		fatal("creating config directories: %v", err)
	}
	dir, err := config.GetDashboardsDir()
	if err != nil {
		fatal("%v", err)
	}
	path := filepath.Join(dir, name+".toml")
	if _, err := os.Stat(path); err == nil {
		fatal("%s already exists", path)
	}

	dash := dashboard.DefaultDashboard()
	dash.Name = name
	if err := dashboard.SaveDashboard(dash, path); err != nil {
		fatal("saving dashboard: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

func themesCmd() {
	for _, name := range styles.ListThemes() {
		fmt.Println(name)
	}
}

// loadOrDefaultConfig loads the config from disk, falling back to defaults.
func loadOrDefaultConfig() *config.Config {
	path, err := config.GetConfigPath()
	if err != nil {
		return config.DefaultConfig()
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// saveConfig writes the config to disk, creating directories as needed.
func saveConfig(cfg *config.Config) {
	if err := config.EnsureDirs(); err != nil {
		fatal("creating config directories: %v", err)
	}
	path, err := config.GetConfigPath()
	if err != nil {
		fatal("%v", err)
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		fatal("saving config: %v", err)
	}
}
