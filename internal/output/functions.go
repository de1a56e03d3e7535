package output

import (
	"fmt"
	"time"
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatRate formats the throughput of n bytes over elapsed, as in
// "1.50 MB/s". Elapsed is floored at one millisecond.
func FormatRate(n uint64, elapsed time.Duration) string {
	ms := uint64(elapsed.Milliseconds())
	if ms == 0 {
		ms = 1
	}
	return FormatBytes(n*1000/ms) + "/s"
}
