// Package format renders byte counts and MIME types for display.
package format

import (
	"fmt"
	"math"
	"strconv"
)

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FileSize renders a byte count in base-1024 units with at most two decimals and
// trailing zeros dropped: 0 -> "0 Bytes", 1536 -> "1.5 KB", 1048576 -> "1 MB".
// Counts beyond the TB range stay in TB.
func FileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	const k = 1024
	i := 0
	for n := bytes; n >= k && i < len(sizeUnits)-1; n /= k {
		i++
	}
	value := float64(bytes) / math.Pow(k, float64(i))
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizeUnits[i]
}

// Speed returns a human-readable transfer rate.
func Speed(bytesPerSec float64) string {
	if bytesPerSec < 1024 {
		return fmt.Sprintf("%.1f B/s", bytesPerSec)
	}
	if bytesPerSec < 1024*1024 {
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1024)
	}
	return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1024*1024))
}

// Percent renders a 0..100 progress value with at most two decimals.
func Percent(p float64) string {
	return strconv.FormatFloat(math.Round(p*100)/100, 'f', -1, 64) + "%"
}
