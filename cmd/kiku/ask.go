package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperjump/kiku/internal/models"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question against the running Kiku server",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		connString, _ := cmd.Flags().GetString("database")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.postJSON(cmd.Context(), "/api/v1/query", models.QueryRequest{
			Question:         question,
			ConnectionString: connString,
		})
		if err != nil {
			return err
		}

		var answer models.Answer
		if err := decodeJSON(resp, &answer); err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(answer)
		}
		printAnswer(&answer)
		return nil
	},
}

func init() {
	askCmd.Flags().String("database", "", "connection string of the database to query")
	askCmd.Flags().Bool("json", false, "print the raw JSON response")
}

func printAnswer(answer *models.Answer) {
	fmt.Println(answer.Message)
	if answer.GeneratedSQL != "" {
		fmt.Printf("SQL: %s\n", answer.GeneratedSQL)
	}
	if answer.FromCache {
		fmt.Println("(cached)")
	}
	for _, row := range answer.Rows {
		data, err := json.Marshal(row)
		if err != nil {
			continue
		}
		fmt.Println(string(data))
	}
	for i, chunk := range answer.Chunks {
		fmt.Printf("\n[%d] %s (score %.3f)\n%s\n", i+1, chunk.SourceFile, chunk.Score, chunk.Text)
	}
}
