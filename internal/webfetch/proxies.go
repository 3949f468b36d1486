package webfetch

import "net/url"

// ProxyDescriptor is one alternate route in the fallback chain. BuildURL
// rewrites a target URL into the form the proxy expects; descriptors are
// tried strictly in list order and never raced.
type ProxyDescriptor struct {
	Name     string
	BuildURL func(target string) string
}

// DefaultProxies returns the public relay chain, ordered by observed
// reliability. Each relay embeds the target differently, so the URL is
// query-escaped where the relay requires it.
func DefaultProxies() []ProxyDescriptor {
	return []ProxyDescriptor{
		{
			Name: "allorigins",
			BuildURL: func(target string) string {
				return "https://api.allorigins.win/raw?url=" + url.QueryEscape(target)
			},
		},
		{
			Name: "corsproxy",
			BuildURL: func(target string) string {
				return "https://corsproxy.io/?url=" + url.QueryEscape(target)
			},
		},
		{
			Name: "codetabs",
			BuildURL: func(target string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(target)
			},
		},
	}
}
