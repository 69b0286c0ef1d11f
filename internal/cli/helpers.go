package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/daemon"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

// ─── Styles ─────────────────────────────────────────────────────────────────

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B35"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00B894"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
)

const barWidth = 20 // Characters for progress bars

// openDaemon loads config and opens local storage. Callers must Close it.
func openDaemon() (*daemon.Daemon, string, error) {
	d, err := daemon.New()
	if err != nil {
		return nil, "", err
	}
	userID := userFlag
	if userID == "" {
		userID, err = d.DefaultUser()
		if err != nil {
			d.Close()
			return nil, "", err
		}
	}
	return d, userID, nil
}

// gradeBadge renders a letter grade in its display color.
func gradeBadge(g domain.Grade) string {
	return lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.Color(grading.Color(g))).
		Render(string(g))
}

// starString renders n of 3 stars.
func starString(n int) string {
	if n < 0 {
		n = 0
	}
	if n > 3 {
		n = 3
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 3-n)
}

// bar renders a fixed-width bar for pct in [0,100]: [=======>............]
func bar(pct float64) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(barWidth))
	empty := barWidth - filled

	switch {
	case filled == barWidth:
		return "[" + strings.Repeat("=", filled) + "]"
	case filled > 0:
		return "[" + strings.Repeat("=", filled-1) + ">" + strings.Repeat(".", empty) + "]"
	default:
		return "[" + strings.Repeat(".", barWidth) + "]"
	}
}

// formatDuration renders practice seconds as "1h 05m", "12m" or "40s".
func formatDuration(seconds int64) string {
	switch {
	case seconds >= 3600:
		return fmt.Sprintf("%dh %02dm", seconds/3600, (seconds%3600)/60)
	case seconds >= 60:
		return fmt.Sprintf("%dm", seconds/60)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// row renders one "label  value" line.
func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-14s", label)) + valueStyle.Render(value)
}
