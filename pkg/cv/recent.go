package cv

import "time"

// RecentWindow is how long a CV counts as recently changed.
const RecentWindow = 24 * time.Hour

// IsRecent reports whether a CV last changed at lastChanged should still be
// treated as fresh. Unknown and future timestamps count as recent.
func IsRecent(lastChanged *Time) bool {
	return isRecentAt(lastChanged, time.Now())
}

// IsRecent reports whether c changed within the last day.
func (c CV) IsRecent() bool {
	return IsRecent(c.LastChanged)
}

func isRecentAt(lastChanged *Time, now time.Time) bool {
	if lastChanged == nil || lastChanged.IsZero() {
		return true
	}
	age := now.Sub(lastChanged.Time)
	if age < 0 {
		return true
	}
	return age < RecentWindow
}
