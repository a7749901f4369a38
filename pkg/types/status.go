package types

import (
	"fmt"
	"strconv"
)

// Status is a torrent transfer status as reported by the daemon (tr_stat).
type Status int64

// Torrent statuses.
const (
	StatusStopped Status = iota
	StatusCheckWait
	StatusChecking
	StatusDownloadWait
	StatusDownloading
	StatusSeedWait
	StatusSeeding
)

// UnmarshalJSON rejects statuses the daemon doesn't define.
func (s *Status) UnmarshalJSON(buf []byte) error {
	i, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid status %q", string(buf))
	}
	x := Status(i)
	if x < StatusStopped || x > StatusSeeding {
		return fmt.Errorf("invalid status value %d", i)
	}
	*s = x
	return nil
}

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusCheckWait:
		return "check pending"
	case StatusChecking:
		return "checking"
	case StatusDownloadWait:
		return "download pending"
	case StatusDownloading:
		return "downloading"
	case StatusSeedWait:
		return "seed pending"
	case StatusSeeding:
		return "seeding"
	}
	return fmt.Sprintf("status(%d)", int64(s))
}
