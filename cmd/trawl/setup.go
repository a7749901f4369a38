package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trawl/internal/config"
)

// NewSetupCmd creates the setup command: an interactive walkthrough that
// writes the config file.
func NewSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactively configure the daemon connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			fmt.Println("Let's set up your connection to the Transmission daemon.")
			fmt.Println()

			cfg.Daemon.URL = prompt(reader, "Daemon RPC URL", cfg.Daemon.URL)
			cfg.Daemon.Username = prompt(reader, "Username (empty for no auth)", cfg.Daemon.Username)
			if cfg.Daemon.Username != "" {
				cfg.Daemon.Password = prompt(reader, "Password", cfg.Daemon.Password)
			}
			cfg.Refresh.WebSocket = promptYesNo(reader, "Use a websocket event feed if the daemon offers one?", cfg.Refresh.WebSocket)

			if promptYesNo(reader, "Watch a directory for .torrent files?", cfg.Watch.Enabled) {
				cfg.Watch.Enabled = true
				dir := prompt(reader, "Directory to watch", "")
				if dir != "" {
					cfg.Watch.Directories = append(cfg.Watch.Directories, dir)
				}
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			// Try the connection so a typo surfaces now, not at first use.
			fmt.Println()
			fmt.Println("Checking the connection...")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
			defer cancel()
			if session, err := newClient().SessionGet(ctx); err != nil {
				fmt.Printf("Warning: could not reach the daemon: %v\n", err)
				fmt.Println("Saving the configuration anyway.")
			} else {
				fmt.Printf("Connected to Transmission %s.\n", session.Version)
			}

			path := cfgFile
			if path == "" {
				var err error
				path, err = config.DefaultPath()
				if err != nil {
					return err
				}
			}
			if err := config.SaveConfig(cfg, path); err != nil {
				return err
			}
			fmt.Printf("Configuration written to %s\n", path)
			return nil
		},
	}
}

func prompt(reader *bufio.Reader, question, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", question, defaultValue)
	} else {
		fmt.Printf("%s: ", question)
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		return defaultValue
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func promptYesNo(reader *bufio.Reader, question string, defaultValue bool) bool {
	hint := "y/N"
	if defaultValue {
		hint = "Y/n"
	}
	answer := strings.ToLower(prompt(reader, fmt.Sprintf("%s (%s)", question, hint), ""))
	if answer == "" {
		return defaultValue
	}
	return answer == "y" || answer == "yes"
}
