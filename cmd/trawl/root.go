package main

import (
	"context"
	"fmt"
	"net/url"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"trawl/internal/actions"
	"trawl/internal/config"
	"trawl/internal/log"
	"trawl/internal/rpc"
	"trawl/internal/tui"
)

var (
	cfgFile string
	cfg     *config.Config

	flagURL      string
	flagUsername string
	flagPassword string
	flagDebug    bool
)

// NewRootCmd creates the root command. Running it with no subcommand
// starts the interactive TUI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "trawl",
		Short:   "A terminal client for the Transmission daemon",
		Long:    `Trawl connects to a running Transmission daemon and lets you browse torrents, pick which files to download, set priorities and rename paths, all from the terminal.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfgFile != "" {
				cfg, err = config.LoadConfigFile(cfgFile)
			} else {
				cfg, err = config.LoadConfig()
			}
			if err != nil {
				return err
			}

			// Flags beat the config file.
			if flagURL != "" {
				cfg.Daemon.URL = flagURL
			}
			if flagUsername != "" {
				cfg.Daemon.Username = flagUsername
			}
			if flagPassword != "" {
				cfg.Daemon.Password = flagPassword
			}
			log.SetDebug(flagDebug)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/trawl/config.yaml)")
	pf.StringVar(&flagURL, "url", "", "daemon RPC URL (overrides config)")
	pf.StringVar(&flagUsername, "username", "", "daemon RPC username")
	pf.StringVar(&flagPassword, "password", "", "daemon RPC password")
	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(NewAddCmd())
	rootCmd.AddCommand(NewListCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewSetupCmd())

	return rootCmd
}

func newClient() *rpc.Client {
	var opts []rpc.Option
	if cfg.Daemon.Username != "" {
		opts = append(opts, rpc.WithAuth(cfg.Daemon.Username, cfg.Daemon.Password))
	}
	return rpc.New(cfg.Daemon.URL, opts...)
}

// eventsURL resolves the websocket endpoint: explicit configuration
// wins, otherwise it is derived from the daemon URL by swapping the
// scheme and pointing at /events.
func eventsURL(cfg *config.Config) string {
	if cfg.Refresh.EventsURL != "" {
		return cfg.Refresh.EventsURL
	}
	u, err := url.Parse(cfg.Daemon.URL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/events"
	return u.String()
}

func runTUI() error {
	// The TUI owns the terminal, so logs go to a file or nowhere.
	if cfg.LogFile != "" {
		closeLog, err := log.ToFile(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("cannot open log file: %w", err)
		}
		defer closeLog()
	} else {
		log.SetOutput(os.Stderr)
	}

	client := newClient()
	dispatch := actions.New(client, cfg.RequestTimeout())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var feed *rpc.Feed
	if cfg.Refresh.WebSocket {
		feed = rpc.NewFeed(client, eventsURL(cfg), cfg.PollInterval())
		go feed.Run(ctx)
	}

	m := tui.New(cfg, dispatch, feed)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
