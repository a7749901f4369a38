package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trawl/internal/watch"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var (
		dirs   []string
		paused bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch directories for .torrent files and add them to the daemon",
		Long:  `Watch directories for new .torrent files. Each file that appears is validated and handed to the daemon, then renamed, deleted or kept according to the post_add setting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(dirs) > 0 {
				cfg.Watch.Directories = dirs
			}
			if cmd.Flags().Changed("paused") {
				cfg.Watch.StartPaused = paused
			}
			if len(cfg.Watch.Directories) == 0 {
				fmt.Println("No watch directories configured.")
				fmt.Println("Add directories under 'watch:' in your config or pass --dir.")
				return nil
			}

			daemon, err := watch.NewDaemon(cfg, newClient())
			if err != nil {
				return err
			}
			daemon.SetCallback(func(path, name string, err error) {
				if err != nil {
					fmt.Printf("failed to add %s: %v\n", path, err)
					return
				}
				fmt.Printf("added %s\n", name)
			})

			fmt.Println("Watching for .torrent files:")
			for _, dir := range cfg.Watch.Directories {
				fmt.Printf("  - %s\n", dir)
			}

			if err := daemon.Start(); err != nil {
				return err
			}

			fmt.Println("Press Ctrl+C to stop.")
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			<-sigChan

			fmt.Println("\nStopping...")
			daemon.Stop()
			status := daemon.Status()
			fmt.Printf("Added %d torrents this session.\n", status.TorrentsAdded)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&dirs, "dir", "d", nil, "Directory to watch (repeatable, overrides config)")
	cmd.Flags().BoolVarP(&paused, "paused", "p", false, "Add discovered torrents in the stopped state")

	return cmd
}
