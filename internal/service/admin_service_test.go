package service

import (
	"ctf_game_backend/internal/repository"
	"testing"
	"time"
)

func TestBuildSummary(t *testing.T) {
	s := BuildSummary(repository.UserCounts{Total: 3, Paid: 1, NewSince: 2}, 9.99)

	if s.FreeUsers != 2 || s.NewUsersLast30Days != 2 {
		t.Errorf("unexpected counts %+v", s)
	}
	if s.ConversionRate != 33.33 {
		t.Errorf("want 33.33, got %v", s.ConversionRate)
	}
	if s.TotalRevenue != "9.99" || s.MRRRevenue != "9.99" {
		t.Errorf("want revenue 9.99, got %s/%s", s.TotalRevenue, s.MRRRevenue)
	}
}

func TestBuildSummary_NoUsers(t *testing.T) {
	s := BuildSummary(repository.UserCounts{}, 9.99)
	if s.ConversionRate != 0 || s.TotalRevenue != "0.00" {
		t.Errorf("unexpected empty summary %+v", s)
	}
}

func TestWeekWindows(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	windows := WeekWindows(now, 8)

	if len(windows) != 8 {
		t.Fatalf("want 8 windows, got %d", len(windows))
	}
	if windows[0].Label != "Week 1" || windows[7].Label != "Week 8" {
		t.Errorf("unexpected labels %s..%s", windows[0].Label, windows[7].Label)
	}
	if !windows[7].To.Equal(now) {
		t.Errorf("last window should end now, got %s", windows[7].To)
	}
	if !windows[0].From.Equal(now.Add(-8 * 7 * 24 * time.Hour)) {
		t.Errorf("first window should start eight weeks back, got %s", windows[0].From)
	}
	for i := 1; i < len(windows); i++ {
		if !windows[i].From.Equal(windows[i-1].To) {
			t.Errorf("window %d does not follow window %d", i, i-1)
		}
	}
}

func TestSanitizeCell(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"alice":         "alice",
		"=HYPERLINK(1)": "'=HYPERLINK(1)",
		"+1":            "'+1",
		"-2":            "'-2",
		"@sum":          "'@sum",
		"a=b":           "a=b",
	}
	for in, want := range cases {
		if got := SanitizeCell(in); got != want {
			t.Errorf("SanitizeCell(%q): want %q, got %q", in, want, got)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename(time.Date(2024, 3, 9, 15, 4, 5, 0, time.UTC))
	if got != "ctf_users_20240309.xlsx" {
		t.Errorf("unexpected filename %s", got)
	}
}
