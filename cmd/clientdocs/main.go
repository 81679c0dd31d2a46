// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the clientdocs CLI.
//
// clientdocs moves client PDFs through a fixed pipeline: extract the client
// name from the document, validate it against the Excel register, back up
// and rename the file, upload it to OneDrive, and write the shareable link
// back into the register. A separate fetch stage downloads regulator
// filings for reference.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/clientdocs/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedCreds holds the Graph app credentials loaded at startup. Validation
// happens in the commands that need them.
var loadedCreds secrets.Credentials

// rootCmd is the base command for the clientdocs CLI.
var rootCmd = &cobra.Command{
	Use:   "clientdocs",
	Short: "Client document pipeline for OneDrive",
	Long: `clientdocs processes a directory of client PDFs: it extracts the client
name from each document, validates it against the Excel client register,
backs up and renames the file, uploads it to OneDrive via the Microsoft
Graph API, and writes the shareable link back into the register.

Each stage group is a subcommand: auth acquires the Graph access token,
process runs the pipeline, fetch downloads regulator filings, and status
prints the processing ledger.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFile, _ := cmd.Flags().GetString("env-file")
		creds, err := secrets.Load(envFile)
		if err != nil {
			return err
		}
		loadedCreds = creds
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./clientdocs.yaml or ~/.config/clientdocs/config.yaml)")
	rootCmd.PersistentFlags().String("env-file", ".env", "file with APPLICATION_ID and CLIENT_SECRET")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("clientdocs")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "clientdocs"))
		}
	}

	viper.SetEnvPrefix("CLIENTDOCS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
