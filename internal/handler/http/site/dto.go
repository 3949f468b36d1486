package site

import "contentforge/internal/infra/wordpress"

// ConnectionRequest carries the credentials the wizard collected. Only
// BaseURL is required; with no credentials the check runs anonymously.
type ConnectionRequest struct {
	BaseURL     string `json:"base_url"`
	Username    string `json:"username,omitempty"`
	AppPassword string `json:"app_password,omitempty"`
	JWTToken    string `json:"jwt_token,omitempty"`
}

// SiteDTO is the wire form of a validated site.
type SiteDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	User        string `json:"user,omitempty"`
}

// ConnectionResponse reports the outcome of the connection check. On
// failure, Error holds a message suitable for showing in the wizard.
type ConnectionResponse struct {
	Valid         bool     `json:"valid"`
	Authenticated bool     `json:"authenticated"`
	Site          *SiteDTO `json:"site,omitempty"`
	Error         string   `json:"error,omitempty"`
}

func siteDTO(info *wordpress.SiteInfo) *SiteDTO {
	if info == nil {
		return nil
	}
	return &SiteDTO{
		Name:        info.Name,
		Description: info.Description,
		URL:         info.URL,
		User:        info.User,
	}
}
