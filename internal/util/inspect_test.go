package util

import "testing"

func TestContainsXSS(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"<script>alert(1)</script>", true},
		{"<SCRIPT>\nalert(1)\n</SCRIPT>", true},
		{`<img src=x onerror=alert(1)>`, true},
		{`<a href="javascript:alert(1)">x</a>`, true},
		{"<iframe src=//evil>", true},
		{"steal document.cookie", true},
		{"read localStorage please", true},
		{"great product, thanks!", false},
		{"<b>bold</b>", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ContainsXSS(tc.input); got != tc.want {
			t.Errorf("ContainsXSS(%q): want %v, got %v", tc.input, tc.want, got)
		}
	}
}

func TestContainsSQLInjection(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"' OR 1=1 --", true},
		{"admin'--", true},
		{"1; DROP TABLE users", true},
		{"x UNION SELECT password FROM users", true},
		{"alice", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ContainsSQLInjection(tc.input); got != tc.want {
			t.Errorf("ContainsSQLInjection(%q): want %v, got %v", tc.input, tc.want, got)
		}
	}
}

func TestIsValidRedirectURL(t *testing.T) {
	allowed := []string{"localhost", "example.com"}
	cases := []struct {
		raw  string
		want bool
	}{
		{"/dashboard", true},
		{"http://localhost:3000/home", true},
		{"https://example.com/a", true},
		{"https://app.example.com/a", true},
		{"https://evilexample.com", false},
		{"https://evil.com", false},
		{"//evil.com/path", false},
		{"javascript:alert(1)", false},
		{"", false},
		{"http://[::1", false},
	}
	for _, tc := range cases {
		if got := IsValidRedirectURL(tc.raw, allowed); got != tc.want {
			t.Errorf("IsValidRedirectURL(%q): want %v, got %v", tc.raw, tc.want, got)
		}
	}
}

func TestIsValidRedirectURL_EmptyAllowList(t *testing.T) {
	if !IsValidRedirectURL("https://anywhere.test", nil) {
		t.Error("empty allow-list should accept any parseable URL")
	}
	if IsValidRedirectURL("   ", nil) {
		t.Error("blank target is never valid")
	}
}

func TestRedirectHost(t *testing.T) {
	if host, ok := RedirectHost("/dashboard"); !ok || host != "localhost" {
		t.Errorf("relative target: want localhost, got %q (ok=%v)", host, ok)
	}
	if host, ok := RedirectHost("https://evil.com:8443/x"); !ok || host != "evil.com" {
		t.Errorf("absolute target: want evil.com, got %q (ok=%v)", host, ok)
	}
	if _, ok := RedirectHost(""); ok {
		t.Error("empty target should not parse")
	}
}
