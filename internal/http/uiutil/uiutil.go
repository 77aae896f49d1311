// Package uiutil holds small formatting helpers shared by the HTML
// templates: relative times, truncation, and money rendering.
package uiutil

import (
	"strconv"
	"strings"
	"time"
)

const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// FriendlyRelativeTime returns a human-friendly description of how long ago t
// occurred, falling back to an absolute timestamp past one week. Times in the
// future read as "just now".
func FriendlyRelativeTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return pluralAgo(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return pluralAgo(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return pluralAgo(int(diff.Hours()/24), "day")
	default:
		return FormatFriendlyDateTime(t)
	}
}

func pluralAgo(n int, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return strconv.Itoa(n) + " " + unit + "s ago"
}

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// TruncateWithEllipsis shortens text to the provided rune limit and appends an ellipsis when truncated.
func TruncateWithEllipsis(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 1 {
		return "…"
	}
	return strings.TrimSpace(string(runes[:limit-1])) + "…"
}

// FormatMoney renders a minor-unit amount (e.g. cents) as "12.34 USD".
// Currency codes are assumed to use two decimal places; unknown or empty
// codes still render the amount so totals never disappear from the UI.
func FormatMoney(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupThousands(strconv.FormatInt(amount/100, 10)))
	b.WriteByte('.')
	minor := amount % 100
	if minor < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(minor, 10))

	if code := strings.ToUpper(strings.TrimSpace(currency)); code != "" {
		b.WriteByte(' ')
		b.WriteString(code)
	}
	return b.String()
}

// groupThousands inserts comma separators into a non-negative numeric string.
func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + (len(s)-1)/3)

	prefix := len(s) % 3
	if prefix == 0 {
		prefix = 3
	}

	b.WriteString(s[:prefix])
	for i := prefix; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
