package utils

// DefaultReportThreshold is the report count above which content drops out of feeds.
const DefaultReportThreshold = 10

// IsVisible reports whether a post or comment may be shown to end users.
// A hidden parent does not affect its children.
func IsVisible(hidden bool, reportCount, threshold int) bool {
	return !hidden && reportCount <= threshold
}
