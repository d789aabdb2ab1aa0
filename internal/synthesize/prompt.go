// Package synthesize turns a natural-language question plus a database
// schema into a validated read-only SQL query via a generative model.
package synthesize

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kiku/internal/models"
)

// BuildPrompt enumerates every table, its columns, and its foreign-key
// relationships in natural sentence form, then instructs the model to emit a
// single SQL query and nothing else.
func BuildPrompt(question string, schema *models.Schema) string {
	var sb strings.Builder
	for _, table := range schema.Tables {
		names := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			names[i] = col.Name
		}
		fmt.Fprintf(&sb, "Table '%s' has columns: %s.\n", table.Name, strings.Join(names, ", "))
		for _, fk := range table.ForeignKeys {
			for i, constrained := range fk.ConstrainedColumns {
				if i >= len(fk.ReferredColumns) {
					break
				}
				fmt.Fprintf(&sb, "  - Relationship: '%s.%s' is a foreign key to '%s.%s'.\n",
					table.Name, constrained, fk.ReferredTable, fk.ReferredColumns[i])
			}
		}
	}

	return fmt.Sprintf(`Given the following database schema:
---
%s---
Based on this schema, write a single, valid SQL query to answer the following user question.
Only return the SQL query and nothing else. Do not wrap it in markdown.

User Question: %q
SQL Query:`, sb.String(), question)
}
