package templates

import (
	"fmt"
	"net/url"
	"time"
)

func fileURL(item HistoryItem) string {
	return fmt.Sprintf("/history/%s/file", url.PathEscape(item.Name))
}

func loadURL(item HistoryItem) string {
	return fmt.Sprintf("/history/%s/load", url.PathEscape(item.Name))
}

func deleteURL(item HistoryItem) string {
	return fmt.Sprintf("/history/%s", url.PathEscape(item.Name))
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown date"
	}
	return t.Local().Format("Jan 2, 2006 15:04")
}
