// Package main implements the zvctl CLI for operating the complaint
// service: seeding the registries and inspecting the catalog.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zvctl",
	Short: "Operations CLI for the zvernennia complaint service",
	Long: `zvctl manages the complaint service's data: the category and
service registries and the labeled example index used for k-NN
classification.

Configuration comes from the same environment variables as the daemon
(CATALOG_PATH, VECTORSTORE_BACKEND, EMBEDDING_MODEL, ...).`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
}
