package types

// Torrent is the subset of per-torrent state the client displays and acts
// on. Field tags follow the daemon's RPC names.
type Torrent struct {
	ID             int64     `json:"id"`
	HashString     string    `json:"hashString"`
	Name           string    `json:"name"`
	Status         Status    `json:"status"`
	ErrorString    string    `json:"errorString"`
	DownloadDir    string    `json:"downloadDir"`
	TotalSize      ByteCount `json:"totalSize"`
	HaveValid      ByteCount `json:"haveValid"`
	RateDownload   Rate      `json:"rateDownload"`
	RateUpload     Rate      `json:"rateUpload"`
	ETA            int64     `json:"eta"`
	PercentDone    Percent   `json:"percentDone"`
	PeersConnected int64     `json:"peersConnected"`
	UploadedEver   ByteCount `json:"uploadedEver"`

	// Raw file arrays; use Files() for the merged records.
	FileEntries []FileEntry `json:"files"`
	FileStats   []FileStat  `json:"fileStats"`
}

// FileEntry is one element of the daemon's static "files" array.
type FileEntry struct {
	Name           string `json:"name"`
	Length         int64  `json:"length"`
	BytesCompleted int64  `json:"bytesCompleted"`
}

// FileStat is one element of the mutable "fileStats" array, parallel to
// FileEntries by index.
type FileStat struct {
	BytesCompleted int64    `json:"bytesCompleted"`
	Wanted         bool     `json:"wanted"`
	Priority       Priority `json:"priority"`
}

// Files merges the parallel files/fileStats arrays into flat records.
// A missing or short fileStats array leaves wanted=true, priority=normal,
// which is what the daemon defaults to for fresh torrents.
func (t *Torrent) Files() []FileRecord {
	records := make([]FileRecord, 0, len(t.FileEntries))
	for i, fe := range t.FileEntries {
		rec := FileRecord{
			Path:           fe.Name,
			Size:           fe.Length,
			BytesCompleted: fe.BytesCompleted,
			Wanted:         true,
			Priority:       PriorityNormal,
		}
		if i < len(t.FileStats) {
			rec.Wanted = t.FileStats[i].Wanted
			rec.Priority = t.FileStats[i].Priority
			if t.FileStats[i].BytesCompleted > rec.BytesCompleted {
				rec.BytesCompleted = t.FileStats[i].BytesCompleted
			}
		}
		records = append(records, rec)
	}
	return records
}

// Done reports whether the torrent has all wanted data.
func (t *Torrent) Done() bool {
	return t.PercentDone >= 1
}
