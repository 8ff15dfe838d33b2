// Package database checks WordPress tables against the platform's database
// policy: supported collations, the InnoDB engine, and the wp_ prefix.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// Table is one row of information_schema.TABLES.
type Table struct {
	Name      string
	Engine    string
	Collation string
}

// TableSource lists the tables of the site database.
type TableSource interface {
	Tables(ctx context.Context) ([]Table, error)
}

const tablesQuery = `SELECT TABLE_NAME, TABLE_COLLATION, ENGINE FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME`

// MySQLSource reads table metadata from a MySQL or MariaDB server.
type MySQLSource struct {
	db     *sql.DB
	schema string
}

// Open connects to the database named by a go-sql-driver DSN
// (user:pass@tcp(host:3306)/dbname). The DSN must name a database.
func Open(dsn string) (*MySQLSource, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database DSN: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("database DSN must include a database name")
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewMySQLSource(db, cfg.DBName), nil
}

// NewMySQLSource wraps an open connection pool.
func NewMySQLSource(db *sql.DB, schema string) *MySQLSource {
	return &MySQLSource{db: db, schema: schema}
}

// Tables returns the schema's tables ordered by name. Views carry no engine
// or collation and are returned with empty values.
func (s *MySQLSource) Tables(ctx context.Context) ([]Table, error) {
	rows, err := s.db.QueryContext(ctx, tablesQuery, s.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables of %s: %w", s.schema, err)
	}
	defer rows.Close()

	var tables []Table
	for rows.Next() {
		var (
			name      string
			collation sql.NullString
			engine    sql.NullString
		)
		if err := rows.Scan(&name, &collation, &engine); err != nil {
			return nil, fmt.Errorf("failed to scan table row: %w", err)
		}
		tables = append(tables, Table{Name: name, Engine: engine.String, Collation: collation.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tables of %s: %w", s.schema, err)
	}
	return tables, nil
}

// Close releases the connection pool.
func (s *MySQLSource) Close() error {
	return s.db.Close()
}
