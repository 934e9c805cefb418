package util

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatTime renders a duration in milliseconds as "1h 5m", "2m 3s" or "45s".
func FormatTime(milliseconds int64) string {
	seconds := milliseconds / 1000
	minutes := seconds / 60
	hours := minutes / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}

// FormatScore adds thousands separators.
func FormatScore(score int) string {
	return humanize.Comma(int64(score))
}

// AchievementBadge maps completion ratio to a badge label.
func AchievementBadge(completed, total int) string {
	if total <= 0 {
		return "🔰 Security Trainee"
	}
	percentage := float64(completed) / float64(total) * 100

	switch {
	case percentage >= 100:
		return "🏆 Master Hacker"
	case percentage >= 80:
		return "🥇 Elite Hacker"
	case percentage >= 60:
		return "🥈 Advanced Hacker"
	case percentage >= 40:
		return "🥉 Intermediate Hacker"
	case percentage >= 20:
		return "🎯 Novice Hacker"
	default:
		return "🔰 Security Trainee"
	}
}
