// Package models defines core data structures for schemas, documents, and query answers.
package models

// Schema describes the discovered structure of a relational database.
// It is produced fresh on every discovery call and never mutated in place.
type Schema struct {
	Tables []TableSchema `json:"tables"`
}

// TableSchema describes one user table: its columns in declared order and
// the foreign keys constraining it.
type TableSchema struct {
	Name        string         `json:"name"`
	Columns     []ColumnSchema `json:"columns"`
	ForeignKeys []ForeignKey   `json:"relationships"`
}

// ColumnSchema describes a single column.
type ColumnSchema struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	PrimaryKey bool   `json:"primary_key"`
	Nullable   bool   `json:"nullable"`
}

// ForeignKey maps constrained columns to referred columns. The two slices
// are positionally paired: ConstrainedColumns[i] references ReferredColumns[i].
type ForeignKey struct {
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

// TableCount returns the number of user tables in the schema.
func (s *Schema) TableCount() int {
	if s == nil {
		return 0
	}
	return len(s.Tables)
}
