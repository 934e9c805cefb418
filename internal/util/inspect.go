package util

import (
	"net/url"
	"regexp"
	"strings"
)

// Both pattern lists are shallow on purpose: obfuscated payloads slip through
// and the challenge flows expect exactly that.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<script\b.*?</script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)on\w+\s*=`),
	regexp.MustCompile(`(?i)<iframe`),
	regexp.MustCompile(`(?i)<object`),
	regexp.MustCompile(`(?i)<embed`),
	regexp.MustCompile(`(?i)<form`),
	regexp.MustCompile(`(?i)document\.cookie`),
	regexp.MustCompile(`(?i)localStorage`),
	regexp.MustCompile(`(?i)sessionStorage`),
}

var sqlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)('|(\\')|(;)|(\\;)|(\\x27)|(\\x3D))`),
	regexp.MustCompile(`(?i)(\s*(union|select|insert|delete|update|drop|create|alter|exec|execute)\s+)`),
	regexp.MustCompile(`(?i)(or\s+1\s*=\s*1|and\s+1\s*=\s*1)`),
	regexp.MustCompile(`(?i)(\s*(or|and)\s+\w+\s*(=|like)\s*\w+)`),
}

// ContainsXSS reports whether input matches any known XSS pattern.
func ContainsXSS(input string) bool {
	return matchAny(xssPatterns, input)
}

// ContainsSQLInjection reports whether input looks like a SQL injection payload.
// No shipped challenge uses it yet.
func ContainsSQLInjection(input string) bool {
	return matchAny(sqlPatterns, input)
}

// IsValidRedirectURL checks a redirect target against an allow-list.
// An empty allow-list accepts every parseable URL.
func IsValidRedirectURL(raw string, allowedDomains []string) bool {
	parsed, ok := parseRedirect(raw)
	if !ok {
		return false
	}

	if len(allowedDomains) == 0 {
		return true
	}

	host := parsed.Hostname()
	for _, domain := range allowedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// RedirectHost returns the hostname a redirect target points at. Relative
// targets resolve against the placeholder base and report "localhost".
func RedirectHost(raw string) (string, bool) {
	parsed, ok := parseRedirect(raw)
	if !ok {
		return "", false
	}
	return parsed.Hostname(), true
}

// relative targets are resolved against a local base so "/dashboard" parses.
var redirectBase = &url.URL{Scheme: "http", Host: "localhost"}

func parseRedirect(raw string) (*url.URL, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if ref.IsAbs() && ref.Host == "" && ref.Opaque == "" {
		return nil, false
	}
	return redirectBase.ResolveReference(ref), true
}

func matchAny(patterns []*regexp.Regexp, input string) bool {
	if input == "" {
		return false
	}
	for _, p := range patterns {
		if p.MatchString(input) {
			return true
		}
	}
	return false
}
