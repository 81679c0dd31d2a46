// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads OAuth application credentials from the environment,
// optionally seeded from a .env file.
//
// Required keys: APPLICATION_ID (the Azure app client ID) and CLIENT_SECRET
// (the confidential client secret). Values already present in the process
// environment take precedence over the .env file.
package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for the Graph app credentials.
const (
	KeyApplicationID = "APPLICATION_ID"
	KeyClientSecret  = "CLIENT_SECRET"
)

// Credentials holds the OAuth confidential client credentials.
type Credentials struct {
	ApplicationID string
	ClientSecret  string
}

// Load reads credentials from the process environment, first merging in the
// .env file at envFile if it exists. A missing .env file is not an error;
// missing credential keys are reported by Validate, not Load.
func Load(envFile string) (Credentials, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return Credentials{}, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	return Credentials{
		ApplicationID: strings.TrimSpace(os.Getenv(KeyApplicationID)),
		ClientSecret:  strings.TrimSpace(os.Getenv(KeyClientSecret)),
	}, nil
}

// Validate checks that both credential values are present. Authentication
// cannot proceed without them, so callers treat this as fatal.
func (c Credentials) Validate() error {
	var missing []string
	if c.ApplicationID == "" {
		missing = append(missing, KeyApplicationID)
	}
	if c.ClientSecret == "" {
		missing = append(missing, KeyClientSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s (set them or add a .env file)",
			strings.Join(missing, ", "))
	}
	return nil
}
