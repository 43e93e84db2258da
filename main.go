package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"jobtrack/internal/cli"
	"jobtrack/internal/config"
	"jobtrack/internal/logs"
	"jobtrack/internal/session"
	"jobtrack/internal/store/service"
	"jobtrack/internal/tui"
)

func main() {
	dataDirFlag := flag.StringP("data-dir", "d", "", "Directory holding records, settings and uploads")
	viewFlag := flag.String("view", "", "Initial view: table, board")
	flag.SetInterspersed(false)
	flag.Parse()

	cfg, err := config.Load(config.CLIFlags{
		DataDir: *dataDirFlag,
		View:    *viewFlag,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := config.EnsureConfigFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create config file: %v\n", err)
	}

	if err := cfg.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create data directory: %v\n", err)
		os.Exit(1)
	}

	if err := logs.Initialize(cfg.DataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not initialize logger: %v\n", err)
	}
	defer logs.Close()

	store, err := service.New(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open data directory: %v\n", err)
		os.Exit(1)
	}

	var bridge tui.Bridge
	sess := session.New(store, session.Options{
		Debounce:      cfg.Debounce(),
		UploadTimeout: cfg.UploadTimeout(),
		OnSettings:    bridge.Publish,
	})
	if err := sess.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load data: %v\n", err)
		os.Exit(1)
	}

	if args := flag.Args(); len(args) > 0 {
		os.Exit(cli.Run(args, sess, cfg.DataDir))
	}

	logs.Logger.Println("Starting app in TUI mode")
	p := tea.NewProgram(tui.NewAppModel(sess, tui.ParseView(cfg.DefaultView)), tea.WithAltScreen())
	bridge.Attach(p)
	_, runErr := p.Run()
	bridge.Attach(nil)

	// Pending debounced configuration edits are written before exit
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sess.Flush(ctx); err != nil {
		logs.Logger.Printf("flush on exit: %v", err)
	}

	if runErr != nil {
		fmt.Println("Error running program:", runErr)
		os.Exit(1)
	}
}
