package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "kiku",
	Short:   "Kiku answers natural-language questions over databases and documents",
	Version: version,
	Long: `Kiku routes natural-language questions to the right backend: questions
about stored records are answered by generating and running SQL against a
connected database, questions about uploaded documents are answered by
semantic retrieval over their indexed content.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the Kiku version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kiku %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "kiku.yaml", "path to config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
