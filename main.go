package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tonhe/sol/cmd"
	"github.com/tonhe/sol/internal/config"
	"github.com/tonhe/sol/internal/logging"
	"github.com/tonhe/sol/tui"
	"github.com/tonhe/sol/tui/styles"
)

func main() {
	if len(os.Args) > 1 && cmd.IsSubcommand(os.Args[1]) {
		cmd.Execute(os.Args[1:])
		return
	}

	theme := flag.String("theme", "", "Theme override")
	baseURL := flag.String("base-url", "", "Backend base URL")
	dash := flag.String("dashboard", "", "Dashboard name")
	noJournal := flag.Bool("no-journal", false, "Do not record readings")
	flag.Parse()

	if err := run(cmd.Overrides{Theme: *theme, BaseURL: *baseURL, Dashboard: *dash}, *noJournal); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run owns every deferred cleanup so main exits only after they ran.
func run(o cmd.Overrides, noJournal bool) error {
	cfg, cfgPath, err := cmd.LoadConfig(o)
	if err != nil {
		return err
	}

	// The TUI owns the terminal, so logs go to a file.
	log := logging.Discard()
	if err := config.EnsureDirs(); err == nil {
		if path, err := config.GetLogPath(); err == nil {
			if f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
				defer f.Close()
				log = cmd.NewLogger(cfg, f)
			}
		}
	}

	c, err := cmd.NewClient(cfg)
	if err != nil {
		return err
	}
	d, err := cmd.LoadDashboard(cfg)
	if err != nil {
		return err
	}
	board, err := cmd.NewBoard(cfg, d, c, log, nil)
	if err != nil {
		return err
	}

	if !noJournal {
		j, err := cmd.OpenJournal(cfg, log)
		if err != nil {
			log.Warn("journal disabled", logging.Err(err))
		} else {
			defer j.Close()
			cmd.AttachJournal(board, j, log, nil)
		}
	}

	if err := board.Start(); err != nil {
		board.Stop()
		return err
	}
	defer board.Stop()

	t := styles.DefaultTheme
	if named := styles.GetThemeByName(cfg.Theme); named != nil {
		t = *named
	}

	model := tui.NewAppModel(board, tui.Options{
		Config:     cfg,
		ConfigPath: cfgPath,
		Theme:      t,
		Logger:     log,
		Version:    cmd.Version,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Error("tui exited", logging.Err(err))
		return err
	}
	log.Info("exiting", slog.String("dashboard", board.Name()))
	return nil
}
