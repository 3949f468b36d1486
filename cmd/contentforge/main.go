// Package main provides the contentforge command line interface.
// Usage: contentforge <validate|topics|generate> [flags]
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"contentforge/internal/infra/wordpress"
	"contentforge/internal/observability/logging"
	"contentforge/internal/webfetch"
	pkgconfig "contentforge/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "contentforge",
	Short: "Generate and publish AI-drafted articles for a WordPress-compatible site",
	Long: `contentforge drives the article pipeline from the command line: check the
CMS connection, discover candidate topics, and run generation batches that
write Markdown review files before anything goes live.

Connection settings come from flags or from the same environment variables
the API server and worker read (CMS_BASE_URL, CMS_USERNAME, ...).`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// cliLogger builds the CLI logger. Logs go to stderr so command output on
// stdout stays pipeable.
func cliLogger() *slog.Logger {
	l := logging.NewStderrLogger()
	slog.SetDefault(l)
	return l
}

// newFetchClient builds the outbound fetch client from the same environment
// variables the services read.
func newFetchClient() (*webfetch.Client, error) {
	fetchConfig := webfetch.Defaults()
	fetchConfig.RequestTimeout = pkgconfig.EnvDuration("FETCH_TIMEOUT", 30*time.Second)
	if !pkgconfig.EnvBool("FETCH_PROXIES_ENABLED", true) {
		fetchConfig.Proxies = nil
	}
	return webfetch.NewClient(fetchConfig)
}

// cmsSettings holds resolved CMS connection settings.
type cmsSettings struct {
	BaseURL     string
	Username    string
	AppPassword string
	JWTToken    string
}

// resolveCMSSettings merges flag values with the environment; flags win.
func resolveCMSSettings(baseURL, username, appPassword, jwtToken string) cmsSettings {
	s := cmsSettings{
		BaseURL:     baseURL,
		Username:    username,
		AppPassword: appPassword,
		JWTToken:    jwtToken,
	}
	if s.BaseURL == "" {
		s.BaseURL = pkgconfig.EnvString("CMS_BASE_URL", "")
	}
	if s.Username == "" {
		s.Username = pkgconfig.EnvString("CMS_USERNAME", "")
	}
	if s.AppPassword == "" {
		s.AppPassword = pkgconfig.EnvString("CMS_APP_PASSWORD", "")
	}
	if s.JWTToken == "" {
		s.JWTToken = pkgconfig.EnvString("CMS_JWT_TOKEN", "")
	}
	return s
}

// newCMSClient builds a WordPress client from resolved settings.
func newCMSClient(fetcher wordpress.Fetcher, s cmsSettings) (*wordpress.Client, error) {
	return wordpress.NewClient(fetcher, wordpress.Config{
		BaseURL:           s.BaseURL,
		Auth:              wordpress.SelectAuth(s.Username, s.AppPassword, s.JWTToken),
		RequestsPerSecond: float64(pkgconfig.EnvInt("CMS_REQUESTS_PER_SECOND", 2)),
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot encode result as JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
