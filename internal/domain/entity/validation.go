package entity

import (
	"fmt"
	"net/url"
	"regexp"
)

// maxURLLen bounds configured and discovered URLs.
const maxURLLen = 2048

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func urlError(msg string) error {
	return &ValidationError{Field: "url", Message: msg}
}

// ValidateURL checks that a URL is well-formed, uses http or https, and has
// a host. Loopback and private addresses pass; self-hosted sites often live
// on internal networks.
func ValidateURL(raw string) error {
	if raw == "" {
		return urlError("URL must not be empty")
	}
	if len(raw) > maxURLLen {
		return urlError(fmt.Sprintf("URL longer than %d characters", maxURLLen))
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return urlError("URL scheme must be http or https")
	}
	if parsed.Host == "" {
		return urlError("URL host must not be empty")
	}
	return nil
}

// ValidateSlug checks the CMS slug form: lowercase alphanumeric segments
// joined by single hyphens.
func ValidateSlug(slug string) error {
	if !slugPattern.MatchString(slug) {
		return &ValidationError{Field: "slug", Message: "slug must be lowercase alphanumeric with hyphens"}
	}
	return nil
}
