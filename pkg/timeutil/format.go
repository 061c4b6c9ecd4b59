package timeutil

import "time"

// FormatTime renders a message or last-seen timestamp for list display:
// a clock time under 24 hours, "Yesterday" between 24 and 48 hours, a short
// month/day date beyond that, and "" for the zero time.
func FormatTime(t time.Time) string {
	return formatAt(t, time.Now())
}

func formatAt(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	switch d := now.Sub(t); {
	case d < 24*time.Hour:
		return t.Format("3:04 PM")
	case d < 48*time.Hour:
		return "Yesterday"
	default:
		return t.Format("Jan 2")
	}
}
