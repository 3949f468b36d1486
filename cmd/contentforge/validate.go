package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	validateURL         string
	validateUsername    string
	validateAppPassword string
	validateJWTToken    string
	validateOutput      string
)

// ValidateOutput represents the JSON output format for connection checks.
type ValidateOutput struct {
	Valid         bool   `json:"valid"`
	Authenticated bool   `json:"authenticated"`
	SiteName      string `json:"site_name,omitempty"`
	SiteURL       string `json:"site_url,omitempty"`
	Description   string `json:"description,omitempty"`
	User          string `json:"user,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the CMS is reachable and the credentials work",
	Long: `validate connects to the CMS, confirms the REST API is available, and
verifies the credentials by requesting the authenticated user. Without
credentials it still confirms the site is reachable.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := cliLogger()

		settings := resolveCMSSettings(validateURL, validateUsername, validateAppPassword, validateJWTToken)
		if settings.BaseURL == "" {
			fmt.Fprint(os.Stderr, `Error: CMS base URL is required

Usage: contentforge validate --url https://blog.example.com [--username U --app-password P]

The URL can also come from the CMS_BASE_URL environment variable.
`)
			os.Exit(1)
		}

		fetcher, err := newFetchClient()
		if err != nil {
			logger.Error("failed to create fetch client", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Failed to create fetch client: %v\n", err)
			os.Exit(1)
		}

		client, err := newCMSClient(fetcher, settings)
		if err != nil {
			logger.Error("failed to create cms client", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		const checkTimeout = 30 * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		logger.Info("checking connection",
			slog.String("base_url", settings.BaseURL),
			slog.Bool("authenticated", client.Authenticated()))

		info, err := client.ValidateConnection(ctx)
		if err != nil {
			logger.Error("connection check failed", slog.Any("error", err))
			fmt.Fprintf(os.Stderr, "Error: Connection check failed: %v\n", err)
			os.Exit(1)
		}

		if validateOutput == "json" {
			printJSON(ValidateOutput{
				Valid:         true,
				Authenticated: client.Authenticated(),
				SiteName:      info.Name,
				SiteURL:       info.URL,
				Description:   info.Description,
				User:          info.User,
			})
			return
		}

		fmt.Printf("Connection OK\n\n")
		fmt.Printf("Site: %s\n", info.Name)
		if info.Description != "" {
			fmt.Printf("Description: %s\n", info.Description)
		}
		fmt.Printf("URL: %s\n", info.URL)
		if client.Authenticated() {
			fmt.Printf("Authenticated as: %s\n", info.User)
		} else {
			fmt.Printf("Authenticated: no (read-only access)\n")
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&validateURL, "url", "", "CMS base URL (default: CMS_BASE_URL)")
	validateCmd.Flags().StringVar(&validateUsername, "username", "", "CMS username (default: CMS_USERNAME)")
	validateCmd.Flags().StringVar(&validateAppPassword, "app-password", "", "CMS application password (default: CMS_APP_PASSWORD)")
	validateCmd.Flags().StringVar(&validateJWTToken, "jwt-token", "", "CMS JWT token (default: CMS_JWT_TOKEN)")
	validateCmd.Flags().StringVar(&validateOutput, "output", "text", "Output format: text or json")
}
