// Package mirror replicates retrieved Dataverse rows into a local MySQL
// table, giving reports a queryable offline copy of one FetchXML result set.
package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/johnyenter-briars/powerplatform-dataverse-client/dataverse"
	"github.com/johnyenter-briars/powerplatform-dataverse-client/internal/exporter"
)

// insertBatchSize rows go into each multi-row INSERT.
const insertBatchSize = 500

// Mirror owns the MySQL connection the snapshots are written through.
type Mirror struct {
	db *sql.DB
}

func Open(dsn string) (*Mirror, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mirror db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping mirror db: %w", err)
	}
	return &Mirror{db: db}, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

// Replace drops and recreates the table, then loads the entities into it.
// Every column is TEXT; values are rendered through their string form and
// nulls stay NULL. Returns the number of rows written.
func (m *Mirror) Replace(ctx context.Context, table string, entities []dataverse.Entity) (int64, error) {
	if err := validateIdentifier(table); err != nil {
		return 0, err
	}
	columns := exporter.Columns(entities)
	if len(columns) == 0 {
		return 0, fmt.Errorf("nothing to mirror: no attributes in result set")
	}
	for _, col := range columns {
		if err := validateIdentifier(col); err != nil {
			return 0, err
		}
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin mirror transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS `"+table+"`"); err != nil {
		return 0, fmt.Errorf("drop old snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(table, columns)); err != nil {
		return 0, fmt.Errorf("create snapshot table: %w", err)
	}

	var total int64
	for start := 0; start < len(entities); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(entities) {
			end = len(entities)
		}
		n, err := insertBatch(ctx, tx, table, columns, entities[start:end])
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit mirror transaction: %w", err)
	}

	slog.Info("mirror snapshot written", "table", table, "rows", total)
	return total, nil
}

func createTableSQL(table string, columns []string) string {
	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = "`" + col + "` TEXT"
	}
	return "CREATE TABLE `" + table + "` (" + strings.Join(defs, ", ") + ")"
}

func insertBatch(ctx context.Context, tx *sql.Tx, table string, columns []string, entities []dataverse.Entity) (int64, error) {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = "`" + col + "`"
	}
	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	placeholders := make([]string, len(entities))
	args := make([]any, 0, len(entities)*len(columns))
	for i, entity := range entities {
		placeholders[i] = rowPlaceholder
		for _, col := range columns {
			v, ok := entity[col]
			if !ok || v.IsNull() {
				args = append(args, nil)
				continue
			}
			args = append(args, v.String())
		}
	}

	query := "INSERT INTO `" + table + "` (" + strings.Join(quoted, ", ") + ") VALUES " + strings.Join(placeholders, ", ")
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot batch: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// validateIdentifier restricts table and column names to characters that are
// safe to embed backtick-quoted. Dataverse logical names already fit; this
// guards the caller-supplied table name.
func validateIdentifier(name string) error {
	if name == "" || len(name) > 64 {
		return fmt.Errorf("invalid identifier %q", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '@':
		default:
			return fmt.Errorf("invalid identifier %q", name)
		}
	}
	return nil
}
