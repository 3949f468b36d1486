package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SiteInfo describes a validated connection. User is the display name the
// credentials resolve to; empty for anonymous clients.
type SiteInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	User        string `json:"user,omitempty"`
}

type wireSite struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Namespaces  []string `json:"namespaces"`
}

type wireUser struct {
	Name string `json:"name"`
}

// ValidateConnection checks that the base URL is a reachable WordPress site
// exposing the wp/v2 REST namespace, and, when credentials are configured,
// that they resolve to a user. The returned SiteInfo is suitable for showing
// to the operator as-is.
func (c *Client) ValidateConnection(ctx context.Context) (*SiteInfo, error) {
	result, err := c.execute(ctx, "validate connection", func() (interface{}, error) {
		resp, err := c.doRequest(ctx, http.MethodGet, "/wp-json", nil, nil)
		if err != nil {
			return nil, err
		}

		var site wireSite
		if err := decode("validate connection", resp, &site); err != nil {
			return nil, err
		}

		if !containsNamespace(site.Namespaces, "wp/v2") {
			return nil, fmt.Errorf("site %s does not expose the wp/v2 REST namespace; enable the REST API or check for a security plugin blocking it", c.baseURL)
		}

		info := &SiteInfo{
			Name:        site.Name,
			Description: site.Description,
			URL:         site.URL,
		}

		if c.auth != nil {
			user, err := c.currentUser(ctx)
			if err != nil {
				return nil, fmt.Errorf("credential check: %w", err)
			}
			info.User = user
		}

		return info, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*SiteInfo), nil
}

func (c *Client) currentUser(ctx context.Context) (string, error) {
	query := url.Values{}
	query.Set("_fields", "name")

	resp, err := c.doRequest(ctx, http.MethodGet, "/wp-json/wp/v2/users/me", query, nil)
	if err != nil {
		return "", err
	}

	var user wireUser
	if err := decode("current user", resp, &user); err != nil {
		return "", err
	}
	return user.Name, nil
}

func containsNamespace(namespaces []string, want string) bool {
	for _, ns := range namespaces {
		if ns == want {
			return true
		}
	}
	return false
}
