package respond

import "regexp"

// Secrets that can leak through wrapped errors: AI provider keys from the
// generators, JWTs from CMS auth, and credentials embedded in proxy or site
// URLs. The Anthropic rule must run before the OpenAI one because every
// sk-ant- key also matches the generic sk- prefix.
var redactions = []struct {
	pattern *regexp.Regexp
	mask    string
}{
	{regexp.MustCompile(`sk-ant-[a-zA-Z0-9-_]+`), "sk-ant-****"},
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`), "sk-****"},

	// JWTは3つのbase64urlセグメントで判別できる
	{regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`), "eyJ****"},

	// URL内の user:password@ はパスワードのみマスク
	{regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`), "://$1:****@"},
}

// Redact masks secrets in an error message before it is logged.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	out := err.Error()
	for _, rule := range redactions {
		out = rule.pattern.ReplaceAllString(out, rule.mask)
	}
	return out
}
