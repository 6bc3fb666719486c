package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Host names store links must point at
const (
	PlayStoreDomain = "play.google.com"
	AppStoreDomain  = "itunes.apple.com"
)

var (
	// Letters, digits, underscore, hyphen, period, comma, apostrophe and space
	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_.,' -]+$`)

	// Same shape as android.util.Patterns.EMAIL_ADDRESS
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`)
)

// CharCount counts characters the way the length ceilings are defined
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// CheckIdentifier returns a descriptive error when id is not an acceptable
// pack identifier of at most maxLen characters.
func CheckIdentifier(id string, maxLen int) error {
	if id == "" {
		return fmt.Errorf("identifier is empty")
	}
	if n := CharCount(id); n > maxLen {
		return fmt.Errorf("identifier is %d characters, max %d", n, maxLen)
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("identifier must not contain \"..\"")
	}
	if !identifierPattern.MatchString(id) {
		return fmt.Errorf("identifier may only contain letters, digits, '_', '-', '.', ',', apostrophe and space")
	}
	return nil
}

// ParseWebURL parses s and requires an absolute http or https URL with a host.
// It returns ErrMalformedURL or ErrUnsupportedScheme on failure.
func ParseWebURL(s string) (*url.URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not scheme://host", ErrMalformedURL, s)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// IsValidURL reports whether s is a well-formed http or https URL
func IsValidURL(s string) bool {
	_, err := ParseWebURL(s)
	return err == nil
}

// CheckURLDomain parses s and compares its host with domain. Matching is
// exact and case-sensitive; subdomains do not match.
func CheckURLDomain(s string, domain string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrMalformedURL, s)
	}
	if u.Hostname() != domain {
		return fmt.Errorf("%w: host %s, want %s", ErrDomainMismatch, u.Hostname(), domain)
	}
	return nil
}

// IsURLInDomain reports whether s parses and its host equals domain
func IsURLInDomain(s string, domain string) bool {
	return CheckURLDomain(s, domain) == nil
}

// IsValidEmail reports whether s looks like an email address
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}
