package common

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWidth is the console separator width used by the CLI tools.
const DefaultWidth = 80

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// ShortHash abbreviates a transaction hash for console output.
func ShortHash(hash string) string {
	if hash == "" {
		return "none"
	}
	if len(hash) > 16 {
		return hash[:16] + "..."
	}
	return hash
}

// FormatDeadline renders an expiry both absolutely and as time remaining.
func FormatDeadline(expiresAt time.Time) string {
	remaining := time.Until(expiresAt).Round(time.Second)
	if remaining <= 0 {
		return fmt.Sprintf("%s (expired)", expiresAt.Format("2006-01-02 15:04:05 MST"))
	}
	return fmt.Sprintf("%s (in %s)", expiresAt.Format("2006-01-02 15:04:05 MST"), remaining)
}
