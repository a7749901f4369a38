package types

import (
	"fmt"
	"strconv"
)

// formatBytes renders i as an IEC size (1 B, 2 KiB, 4 MiB, ...)
// with the given precision.
func formatBytes(i int64, precision int) string {
	const c = int64(1024)
	if i < c {
		return fmt.Sprintf("%d B", i)
	}
	sizes := "KMGTPE"
	exp, div := 0, c
	for n := i / c; n >= c; n /= c {
		div *= c
		exp++
	}
	return fmt.Sprintf("%."+strconv.Itoa(precision)+"f %ciB", float64(i)/float64(div), sizes[exp])
}

// ByteCount wraps a byte count as int64.
type ByteCount int64

// Int64 returns the byte count as an int64.
func (bc ByteCount) Int64() int64 { return int64(bc) }

// String satisfies the fmt.Stringer interface.
func (bc ByteCount) String() string { return formatBytes(int64(bc), 1) }

// Rate is a bytes-per-second transfer rate.
type Rate int64

// Int64 returns the rate as an int64.
func (r Rate) Int64() int64 { return int64(r) }

// String satisfies the fmt.Stringer interface.
func (r Rate) String() string { return formatBytes(int64(r), 1) + "/s" }

// Percent is a completion ratio in [0, 1].
type Percent float64

// String renders the ratio as a percentage with one decimal.
func (p Percent) String() string {
	return fmt.Sprintf("%.1f%%", float64(p)*100)
}

// Ratio returns completed/total as a Percent, 0 when total is 0.
func Ratio(completed, total int64) Percent {
	if total <= 0 {
		return 0
	}
	return Percent(float64(completed) / float64(total))
}
