package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hyperjump/kiku/internal/models"
)

// discoverPostgres reads table metadata from information_schema, excluding
// the pg_catalog and information_schema system schemas.
func discoverPostgres(ctx context.Context, db *sql.DB) (*models.Schema, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_schema, table_name
		 FROM information_schema.tables
		 WHERE table_type = 'BASE TABLE'
		   AND table_schema NOT IN ('pg_catalog', 'information_schema')
		 ORDER BY table_schema, table_name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	type tableRef struct{ schema, name string }
	var refs []tableRef
	for rows.Next() {
		var r tableRef
		if err := rows.Scan(&r.schema, &r.name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	schema := &models.Schema{}
	for _, ref := range refs {
		table := models.TableSchema{Name: ref.name}

		cols, err := postgresColumns(ctx, db, ref.schema, ref.name)
		if err != nil {
			return nil, err
		}
		table.Columns = cols

		fks, err := postgresForeignKeys(ctx, db, ref.schema, ref.name)
		if err != nil {
			return nil, err
		}
		table.ForeignKeys = fks

		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

// postgresColumns returns columns in ordinal_position order with primary-key
// membership resolved through key_column_usage.
func postgresColumns(ctx context.Context, db *sql.DB, schemaName, table string) ([]models.ColumnSchema, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT c.column_name, c.data_type, c.is_nullable,
		        EXISTS (
		            SELECT 1 FROM information_schema.table_constraints tc
		            JOIN information_schema.key_column_usage kcu
		              ON tc.constraint_name = kcu.constraint_name
		             AND tc.table_schema = kcu.table_schema
		            WHERE tc.constraint_type = 'PRIMARY KEY'
		              AND tc.table_schema = c.table_schema
		              AND tc.table_name = c.table_name
		              AND kcu.column_name = c.column_name
		        ) AS is_primary
		 FROM information_schema.columns c
		 WHERE c.table_schema = $1 AND c.table_name = $2
		 ORDER BY c.ordinal_position`,
		schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []models.ColumnSchema
	for rows.Next() {
		var (
			col        models.ColumnSchema
			isNullable string
			isPrimary  bool
		)
		if err := rows.Scan(&col.Name, &col.Type, &isNullable, &isPrimary); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		col.Nullable = isNullable == "YES"
		col.PrimaryKey = isPrimary
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// postgresForeignKeys reads foreign keys from pg_constraint, unnesting the
// conkey/confkey attribute arrays with ordinality so each constrained column
// lines up with the referred column at the same key position. The
// information_schema constraint_column_usage view cannot serve here: it has
// no position column, so joining it to key_column_usage cross-products
// multi-column keys.
func postgresForeignKeys(ctx context.Context, db *sql.DB, schemaName, table string) ([]models.ForeignKey, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT con.conname, att.attname,
		        refcl.relname AS referred_table, refatt.attname AS referred_column
		 FROM pg_constraint con
		 JOIN pg_class cl ON cl.oid = con.conrelid
		 JOIN pg_namespace ns ON ns.oid = cl.relnamespace
		 JOIN pg_class refcl ON refcl.oid = con.confrelid
		 JOIN unnest(con.conkey) WITH ORDINALITY AS ck(attnum, ord) ON true
		 JOIN unnest(con.confkey) WITH ORDINALITY AS cfk(attnum, ord)
		   ON cfk.ord = ck.ord
		 JOIN pg_attribute att
		   ON att.attrelid = con.conrelid AND att.attnum = ck.attnum
		 JOIN pg_attribute refatt
		   ON refatt.attrelid = con.confrelid AND refatt.attnum = cfk.attnum
		 WHERE con.contype = 'f'
		   AND ns.nspname = $1 AND cl.relname = $2
		 ORDER BY con.conname, ck.ord`,
		schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var fks []models.ForeignKey
	lastConstraint := ""
	for rows.Next() {
		var constraint, column, referredTable, referredColumn string
		if err := rows.Scan(&constraint, &column, &referredTable, &referredColumn); err != nil {
			return nil, fmt.Errorf("scanning foreign key of %s: %w", table, err)
		}
		if constraint != lastConstraint {
			fks = append(fks, models.ForeignKey{ReferredTable: referredTable})
			lastConstraint = constraint
		}
		fk := &fks[len(fks)-1]
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, column)
		fk.ReferredColumns = append(fk.ReferredColumns, referredColumn)
	}
	return fks, rows.Err()
}
