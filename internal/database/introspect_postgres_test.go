package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
)

// postgresDSN returns the connection string of a disposable Postgres
// database, or skips the test when none is configured.
func postgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("KIKU_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("KIKU_TEST_POSTGRES_DSN not set")
	}
	return dsn
}

func TestDiscoverPostgres_multiColumnForeignKey(t *testing.T) {
	dsn := postgresDSN(t)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	stmts := []string{
		`DROP TABLE IF EXISTS kiku_offices`,
		`DROP TABLE IF EXISTS kiku_regions`,
		`CREATE TABLE kiku_regions (
			country TEXT,
			code TEXT,
			PRIMARY KEY (country, code)
		)`,
		`CREATE TABLE kiku_offices (
			id SERIAL PRIMARY KEY,
			country TEXT,
			region_code TEXT,
			FOREIGN KEY (country, region_code) REFERENCES kiku_regions (country, code)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() {
		db.Exec(`DROP TABLE IF EXISTS kiku_offices`)
		db.Exec(`DROP TABLE IF EXISTS kiku_regions`)
	})

	schema, err := Discover(ctx, dsn)
	if err != nil {
		t.Fatal(err)
	}

	var offices *struct{ constrained, referred []string }
	for _, table := range schema.Tables {
		if table.Name != "kiku_offices" {
			continue
		}
		if len(table.ForeignKeys) != 1 {
			t.Fatalf("expected 1 foreign key, got %d", len(table.ForeignKeys))
		}
		fk := table.ForeignKeys[0]
		if fk.ReferredTable != "kiku_regions" {
			t.Errorf("expected foreign key to kiku_regions, got %q", fk.ReferredTable)
		}
		offices = &struct{ constrained, referred []string }{
			fk.ConstrainedColumns, fk.ReferredColumns,
		}
	}
	if offices == nil {
		t.Fatal("kiku_offices not discovered")
	}

	// One entry per key column, not a cross product.
	if len(offices.constrained) != 2 || len(offices.referred) != 2 {
		t.Fatalf("expected 2 column pairs, got %v -> %v", offices.constrained, offices.referred)
	}
	want := map[string]string{"country": "country", "region_code": "code"}
	for i := range offices.constrained {
		if want[offices.constrained[i]] != offices.referred[i] {
			t.Errorf("column pair %d mispaired: %s -> %s", i, offices.constrained[i], offices.referred[i])
		}
	}
}

func TestDiscoverPostgres_excludesSystemSchemas(t *testing.T) {
	dsn := postgresDSN(t)

	schema, err := Discover(context.Background(), dsn)
	if err != nil {
		t.Fatal(err)
	}
	for _, table := range schema.Tables {
		switch table.Name {
		case "pg_class", "pg_attribute", "tables", "columns":
			t.Errorf("system table %q leaked into the schema", table.Name)
		}
	}
}
