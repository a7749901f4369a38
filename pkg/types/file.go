package types

// FileRecord is one entry of the flat per-torrent file snapshot the daemon
// reports: the merged view of the `files` and `fileStats` arrays. The
// file-selection tree is built from and refreshed with these.
type FileRecord struct {
	Path           string   `json:"name"`
	Size           int64    `json:"length"`
	BytesCompleted int64    `json:"bytesCompleted"`
	Wanted         bool     `json:"wanted"`
	Priority       Priority `json:"priority"`
}

// Percent returns the completion ratio of this file.
func (f FileRecord) Percent() Percent {
	return Ratio(f.BytesCompleted, f.Size)
}
