package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	outputFmt  string
	adminToken string
	adminUser  string
)

var rootCmd = &cobra.Command{
	Use:   "licencectl",
	Short: "CLI for the licences service",
	Long: `licencectl talks to the licences ops API.

Job runs and status overrides need the admin token, read from --token or
LICENCES_SERVER_ADMIN_TOKEN. The migrate command connects to the database
directly using the same LICENCES_* environment as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("LICENCES_URL", "http://localhost:8080"), "Licences service URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&adminToken, "token", os.Getenv("LICENCES_SERVER_ADMIN_TOKEN"), "Admin token for privileged operations")
	rootCmd.PersistentFlags().StringVar(&adminUser, "user", envOr("USER", "licencectl"), "Username recorded against status overrides")

	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(caseloadCmd)
	rootCmd.AddCommand(licenceCmd)
	rootCmd.AddCommand(migrateCmd)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
