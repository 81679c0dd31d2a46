// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/clientdocs/internal/graph"
	"github.com/pdiddy/clientdocs/pkg/types"
)

const defaultTokenFile = ".clientdocs-token.json"

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in to Microsoft Graph and cache an access token",
	Long: `Auth runs the authorization-code flow: it prints the Microsoft sign-in
URL, waits for the authorization code, exchanges it for an access token,
and caches the token locally for process runs.`,
	RunE: runAuth,
}

func init() {
	authCmd.Flags().String("token-file", defaultTokenFile, "where to cache the access token")
	authCmd.Flags().String("authority", "", "Microsoft identity authority (default: consumers)")
	authCmd.Flags().String("redirect-uri", "", "redirect URI registered for the app")

	rootCmd.AddCommand(authCmd)
}

func runAuth(cmd *cobra.Command, args []string) error {
	if err := loadedCreds.Validate(); err != nil {
		return err
	}

	authority, _ := cmd.Flags().GetString("authority")
	redirectURI, _ := cmd.Flags().GetString("redirect-uri")
	tokenFile, _ := cmd.Flags().GetString("token-file")

	auth, err := graph.NewAuthenticator(types.GraphConfig{
		ClientID:     loadedCreds.ApplicationID,
		ClientSecret: loadedCreds.ClientSecret,
		Authority:    authority,
		RedirectURI:  redirectURI,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	authURL, err := auth.AuthCodeURL(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in a browser and sign in:")
	fmt.Println()
	fmt.Println("  " + authURL)
	fmt.Println()
	fmt.Print("Enter the authorization code: ")

	reader := bufio.NewReader(os.Stdin)
	code, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("no authorization code entered")
	}

	token, err := auth.Redeem(ctx, code)
	if err != nil {
		return err
	}
	if err := graph.SaveToken(tokenFile, token); err != nil {
		return err
	}

	fmt.Printf("Authenticated. Token cached in %s (expires %s)\n",
		tokenFile, token.ExpiresOn.Local().Format(time.RFC1123))
	return nil
}
