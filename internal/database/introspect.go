package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/hyperjump/kiku/internal/models"
)

// Discover connects to the database behind connString and returns a fresh
// description of every user table: columns in declared order, primary keys,
// nullability, and foreign keys with multi-column mappings kept positionally
// paired. System and catalog schemas are excluded. The schema is rebuilt on
// every call so it always reflects current database state.
func Discover(ctx context.Context, connString string) (*models.Schema, error) {
	db, driver, err := open(ctx, connString)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var schema *models.Schema
	switch driver {
	case driverPostgres:
		schema, err = discoverPostgres(ctx, db)
	default:
		schema, err = discoverSQLite(ctx, db)
	}
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	return schema, nil
}

// discoverSQLite reads table metadata through sqlite_master and the
// table_info / foreign_key_list pragmas. SQLite keeps its own bookkeeping in
// sqlite_* tables; those are excluded as system tables.
func discoverSQLite(ctx context.Context, db *sql.DB) (*models.Schema, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}

	schema := &models.Schema{}
	for _, name := range names {
		table := models.TableSchema{Name: name}

		cols, err := sqliteColumns(ctx, db, name)
		if err != nil {
			return nil, err
		}
		table.Columns = cols

		fks, err := sqliteForeignKeys(ctx, db, name)
		if err != nil {
			return nil, err
		}
		table.ForeignKeys = fks

		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

// sqliteColumns returns the columns of table in declared (cid) order.
func sqliteColumns(ctx context.Context, db *sql.DB, table string) ([]models.ColumnSchema, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	var cols []models.ColumnSchema
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		cols = append(cols, models.ColumnSchema{
			Name:       name,
			Type:       colType,
			PrimaryKey: pk > 0,
			Nullable:   notNull == 0,
		})
	}
	return cols, rows.Err()
}

// sqliteForeignKeys groups foreign_key_list rows by constraint id, ordering
// each group by seq so constrained and referred columns stay positionally
// paired for multi-column keys.
func sqliteForeignKeys(ctx context.Context, db *sql.DB, table string) ([]models.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%q)", table))
	if err != nil {
		return nil, fmt.Errorf("foreign_key_list %s: %w", table, err)
	}
	defer rows.Close()

	type fkRow struct {
		id, seq       int
		referredTable string
		from          string
		to            sql.NullString
	}
	var fkRows []fkRow
	for rows.Next() {
		var (
			r                         fkRow
			onUpdate, onDelete, match string
		)
		if err := rows.Scan(&r.id, &r.seq, &r.referredTable, &r.from, &r.to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign key of %s: %w", table, err)
		}
		fkRows = append(fkRows, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating foreign keys of %s: %w", table, err)
	}

	sort.SliceStable(fkRows, func(i, j int) bool {
		if fkRows[i].id != fkRows[j].id {
			return fkRows[i].id < fkRows[j].id
		}
		return fkRows[i].seq < fkRows[j].seq
	})

	var fks []models.ForeignKey
	lastID := -1
	for _, r := range fkRows {
		if r.id != lastID {
			fks = append(fks, models.ForeignKey{ReferredTable: r.referredTable})
			lastID = r.id
		}
		fk := &fks[len(fks)-1]
		fk.ConstrainedColumns = append(fk.ConstrainedColumns, r.from)
		// "to" is NULL when the key references the implicit primary key.
		fk.ReferredColumns = append(fk.ReferredColumns, r.to.String)
	}
	return fks, nil
}
