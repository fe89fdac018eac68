package connector

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresConnector struct {
	pool *pgxpool.Pool
}

// NewPostgres opens a pooled connection to an external Postgres database.
func NewPostgres(ctx context.Context, config Config) (Connector, error) {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, sslMode)

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error connecting to postgres: %w", err)
	}

	return &PostgresConnector{pool: pool}, nil
}

func (c *PostgresConnector) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *PostgresConnector) ListTables(ctx context.Context) ([]string, error) {
	query := `
        SELECT table_name
        FROM information_schema.tables
        WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
        ORDER BY table_name`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (c *PostgresConnector) ListColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
        SELECT
            c.column_name,
            c.data_type,
            c.is_nullable = 'YES',
            pk.column_name IS NOT NULL
        FROM information_schema.columns c
        LEFT JOIN (
            SELECT kcu.table_name, kcu.column_name
            FROM information_schema.key_column_usage kcu
            JOIN information_schema.table_constraints tc
                ON kcu.constraint_name = tc.constraint_name
            WHERE tc.constraint_type = 'PRIMARY KEY'
        ) pk ON c.table_name = pk.table_name AND c.column_name = pk.column_name
        WHERE c.table_schema = 'public' AND c.table_name = $1
        ORDER BY c.ordinal_position`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error listing columns for %s: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &col.PrimaryKey); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (c *PostgresConnector) ForeignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	query := `
        SELECT
            kcu.table_name,
            kcu.column_name,
            ccu.table_name AS referenced_table,
            ccu.column_name AS referenced_column
        FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
            ON tc.constraint_name = kcu.constraint_name
        JOIN information_schema.constraint_column_usage ccu
            ON tc.constraint_name = ccu.constraint_name
        WHERE tc.constraint_type = 'FOREIGN KEY'
            AND tc.table_schema = 'public'
            AND kcu.table_name = $1`

	rows, err := c.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("error fetching foreign keys for %s: %w", table, err)
	}
	defer rows.Close()

	var keys []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, err
		}
		keys = append(keys, fk)
	}
	return keys, rows.Err()
}

func (c *PostgresConnector) SampleRows(ctx context.Context, table string, columns []string, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	selected := "*"
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, col := range columns {
			quoted[i] = quoteIdentifier(col)
		}
		selected = strings.Join(quoted, ", ")
	}

	query := fmt.Sprintf("SELECT %s FROM %s LIMIT %d", selected, quoteIdentifier(table), limit)

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error sampling rows from %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()

	var samples []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]any, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		samples = append(samples, row)
	}
	return samples, rows.Err()
}

func (c *PostgresConnector) Close() {
	c.pool.Close()
}

// quoteIdentifier double-quotes a table or column name. Identifiers come
// from the database's own catalog or from validated requests, never raw
// SQL fragments.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
