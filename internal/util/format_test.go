package util

import "testing"

func TestFormatTime(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{45_000, "45s"},
		{123_000, "2m 3s"},
		{3_900_000, "1h 5m"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.ms); got != tc.want {
			t.Errorf("FormatTime(%d): want %q, got %q", tc.ms, tc.want, got)
		}
	}
}

func TestFormatScore(t *testing.T) {
	if got := FormatScore(1234567); got != "1,234,567" {
		t.Errorf("want 1,234,567, got %s", got)
	}
	if got := FormatScore(950); got != "950" {
		t.Errorf("want 950, got %s", got)
	}
}

func TestAchievementBadge(t *testing.T) {
	cases := []struct {
		completed, total int
		want             string
	}{
		{5, 5, "🏆 Master Hacker"},
		{4, 5, "🥇 Elite Hacker"},
		{3, 5, "🥈 Advanced Hacker"},
		{2, 5, "🥉 Intermediate Hacker"},
		{1, 5, "🎯 Novice Hacker"},
		{0, 5, "🔰 Security Trainee"},
		{0, 0, "🔰 Security Trainee"},
	}
	for _, tc := range cases {
		if got := AchievementBadge(tc.completed, tc.total); got != tc.want {
			t.Errorf("AchievementBadge(%d, %d): want %q, got %q", tc.completed, tc.total, tc.want, got)
		}
	}
}
