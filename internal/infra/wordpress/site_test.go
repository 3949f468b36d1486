package wordpress

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentforge/internal/webfetch"
)

const siteInfoBody = `{"name":"Example Blog","description":"Just another site","url":"https://example.com","namespaces":["oembed/1.0","wp/v2"]}`

func TestValidateConnection_Anonymous(t *testing.T) {
	fetcher := &stubFetcher{handler: func(target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
		require.True(t, strings.HasSuffix(target, "/wp-json"))
		return jsonResponse(http.StatusOK, siteInfoBody), nil
	}}
	client := newTestClient(t, fetcher, nil)

	info, err := client.ValidateConnection(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Example Blog", info.Name)
	assert.Equal(t, "https://example.com", info.URL)
	assert.Empty(t, info.User)
	// No credential check without credentials.
	assert.Len(t, fetcher.requests, 1)
}

func TestValidateConnection_ChecksCredentials(t *testing.T) {
	fetcher := &stubFetcher{handler: func(target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
		if strings.Contains(target, "/users/me") {
			return jsonResponse(http.StatusOK, `{"name":"Site Writer"}`), nil
		}
		return jsonResponse(http.StatusOK, siteInfoBody), nil
	}}
	client := newTestClient(t, fetcher, NewAppPasswordAuth("writer", "secret"))

	info, err := client.ValidateConnection(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Site Writer", info.User)
	assert.Len(t, fetcher.requests, 2)
}

func TestValidateConnection_MissingNamespace(t *testing.T) {
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return jsonResponse(http.StatusOK,
			`{"name":"Locked Down","namespaces":["oembed/1.0"]}`), nil
	}}
	client := newTestClient(t, fetcher, nil)

	_, err := client.ValidateConnection(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "wp/v2")
	assert.Contains(t, err.Error(), "security plugin")
}

func TestValidateConnection_BadCredentials(t *testing.T) {
	fetcher := &stubFetcher{handler: func(target string, _ webfetch.RequestOptions) (*webfetch.Response, error) {
		if strings.Contains(target, "/users/me") {
			return jsonResponse(http.StatusUnauthorized,
				`{"code":"rest_not_logged_in","message":"You are not currently logged in."}`), nil
		}
		return jsonResponse(http.StatusOK, siteInfoBody), nil
	}}
	client := newTestClient(t, fetcher, NewAppPasswordAuth("writer", "wrong"))

	_, err := client.ValidateConnection(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential check")

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
}

func TestValidateConnection_NotJSON(t *testing.T) {
	// A site without the REST API typically serves an HTML 404 page.
	fetcher := &stubFetcher{handler: func(string, webfetch.RequestOptions) (*webfetch.Response, error) {
		return &webfetch.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       []byte("<html>Not a REST response</html>"),
			Via:        "direct",
		}, nil
	}}
	client := newTestClient(t, fetcher, nil)

	_, err := client.ValidateConnection(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
