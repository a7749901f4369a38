package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List torrents on the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
			defer cancel()

			torrents, err := client.TorrentGet(ctx, nil)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDONE\tSTATUS\tDOWN\tUP\tNAME")
			for _, t := range torrents {
				if !all && t.Done() {
					continue
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.PercentDone, t.Status, t.RateDownload, t.RateUpload, t.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed torrents")

	return cmd
}
