package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

var useColor = os.Getenv("NO_COLOR") == "" &&
	(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))

func colorize(code, s string) string {
	if !useColor {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func green(s string) string  { return colorize("32", s) }
func yellow(s string) string { return colorize("33", s) }

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func truncateHash(hash string) string {
	// sha256:abc123... -> sha256:abc123...
	if len(hash) > 20 {
		return hash[:20] + "..."
	}
	return hash
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	if days > 365 {
		years := days / 365
		return fmt.Sprintf("%d year%s", years, plural(years))
	}
	if days > 30 {
		months := days / 30
		return fmt.Sprintf("%d month%s", months, plural(months))
	}
	if days > 0 {
		return fmt.Sprintf("%d day%s", days, plural(days))
	}
	hours := int(d.Hours())
	if hours > 0 {
		return fmt.Sprintf("%d hour%s", hours, plural(hours))
	}
	return "just now"
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
