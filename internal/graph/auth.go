// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph authenticates against the Microsoft identity platform and
// uploads files to OneDrive through the Microsoft Graph API.
//
// Authentication uses MSAL's confidential client with the authorization-code
// flow: the caller opens the authorization URL, signs in, and hands the
// returned code back. The resulting access token is cached in a local file
// so a single sign-in covers subsequent pipeline runs until expiry.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AzureAD/microsoft-authentication-library-for-go/apps/confidential"

	"github.com/pdiddy/clientdocs/pkg/types"
)

// DefaultAuthority is the Microsoft identity endpoint for personal accounts.
const DefaultAuthority = "https://login.microsoftonline.com/consumers/"

// DefaultRedirectURI is the out-of-band redirect used when none is configured.
const DefaultRedirectURI = "http://localhost"

// Scopes are the Graph permissions the pipeline needs: profile read and
// full file read/write.
var Scopes = []string{"User.Read", "Files.ReadWrite.All"}

// expirySkew is subtracted from the token lifetime so a token that is about
// to expire is not handed to a long upload.
const expirySkew = 2 * time.Minute

// Token is an access token with its expiry, as cached on disk between runs.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresOn   time.Time `json:"expires_on"`
}

// Valid reports whether the token is present and not within expirySkew of
// expiring.
func (t Token) Valid() bool {
	return t.AccessToken != "" && time.Now().Add(expirySkew).Before(t.ExpiresOn)
}

// SaveToken writes the token to path with owner-only permissions.
func SaveToken(path string, t Token) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// LoadToken reads a previously saved token from path.
func LoadToken(path string) (Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Token{}, fmt.Errorf("reading token file: %w", err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("parsing token file %s: %w", path, err)
	}
	return t, nil
}

// Authenticator drives the authorization-code flow for the configured
// confidential client application.
type Authenticator struct {
	app         confidential.Client
	clientID    string
	redirectURI string
}

// NewAuthenticator builds the MSAL confidential client from cfg. ClientID
// and ClientSecret are required; Authority and RedirectURI fall back to the
// package defaults.
func NewAuthenticator(cfg types.GraphConfig) (*Authenticator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("graph authentication requires APPLICATION_ID and CLIENT_SECRET")
	}
	authority := cfg.Authority
	if authority == "" {
		authority = DefaultAuthority
	}
	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}

	cred, err := confidential.NewCredFromSecret(cfg.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("building client credential: %w", err)
	}
	app, err := confidential.New(authority, cfg.ClientID, cred)
	if err != nil {
		return nil, fmt.Errorf("building confidential client: %w", err)
	}

	return &Authenticator{
		app:         app,
		clientID:    cfg.ClientID,
		redirectURI: redirectURI,
	}, nil
}

// AuthCodeURL returns the URL the user must visit to authorize the
// application.
func (a *Authenticator) AuthCodeURL(ctx context.Context) (string, error) {
	u, err := a.app.AuthCodeURL(ctx, a.clientID, a.redirectURI, Scopes)
	if err != nil {
		return "", fmt.Errorf("building authorization URL: %w", err)
	}
	return u, nil
}

// Redeem exchanges an authorization code for an access token.
func (a *Authenticator) Redeem(ctx context.Context, code string) (Token, error) {
	result, err := a.app.AcquireTokenByAuthCode(ctx, code, a.redirectURI, Scopes)
	if err != nil {
		return Token{}, fmt.Errorf("acquiring token: %w", err)
	}
	return Token{
		AccessToken: result.AccessToken,
		ExpiresOn:   result.ExpiresOn,
	}, nil
}
