package message

import "fmt"

// FormatDuration renders a millisecond span as a compact two-unit string:
// "XdYYh", "XhYYm", "XmYYs" or "Xs". Lower units are truncated, never
// rounded. Negative input is a caller error and clamps to "0s" so a
// malformed record cannot break a delivery.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}

	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd%02dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh%02dm", hours, minutes%60)
	case minutes > 0:
		return fmt.Sprintf("%dm%02ds", minutes, seconds%60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
