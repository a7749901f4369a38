package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"trawl/internal/actions"
)

// NewAddCmd creates the add command.
func NewAddCmd() *cobra.Command {
	var (
		paused      bool
		downloadDir string
	)

	cmd := &cobra.Command{
		Use:   "add <torrent-file-or-magnet> [...]",
		Short: "Add torrents to the daemon",
		Long:  `Add one or more torrents to the daemon. Each argument is either a path to a .torrent file or a magnet link.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
			defer cancel()

			for _, source := range args {
				result, err := actions.AddSource(ctx, client, source, downloadDir, paused)
				if err != nil {
					return fmt.Errorf("adding %s: %w", source, err)
				}
				if result.Duplicate {
					fmt.Printf("already present: %s (id %d)\n", result.Name, result.ID)
					continue
				}
				fmt.Printf("added: %s (id %d)\n", result.Name, result.ID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&paused, "paused", "p", false, "Add in the stopped state")
	cmd.Flags().StringVarP(&downloadDir, "download-dir", "d", "", "Download directory (daemon default when empty)")

	return cmd
}
