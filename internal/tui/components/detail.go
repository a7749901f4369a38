package components

import (
	"fmt"
	"strings"
	"time"

	"trawl/internal/tui/styles"
	"trawl/pkg/types"
)

// Detail is the info pane for the focused torrent.
type Detail struct {
	Width int
}

// NewDetail creates the detail pane.
func NewDetail() *Detail {
	return &Detail{Width: 60}
}

func formatETA(eta int64) string {
	if eta < 0 {
		return "—"
	}
	d := time.Duration(eta) * time.Second
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd %dh", int(d.Hours())/24, int(d.Hours())%24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

// View renders the torrent's summary lines.
func (d *Detail) View(t types.Torrent) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render(t.Name) + "\n")
	b.WriteString(fmt.Sprintf("%s  %s of %s (%s)  ↓%s ↑%s\n",
		t.Status, t.HaveValid, t.TotalSize, t.PercentDone, t.RateDownload, t.RateUpload))
	b.WriteString(fmt.Sprintf("eta %s  peers %d  uploaded %s\n",
		formatETA(t.ETA), t.PeersConnected, t.UploadedEver))
	b.WriteString(styles.Muted.Render(t.DownloadDir) + "\n")
	if t.ErrorString != "" {
		b.WriteString(styles.Error.Render(t.ErrorString) + "\n")
	}
	return b.String()
}
