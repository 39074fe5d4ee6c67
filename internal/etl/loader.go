package etl

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ricferal/mvpPucEngenhariaDados/pkg/database"
	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
)

// WriteMode governs CSV output: write overwrites with a header row, append
// adds rows without a header when the file already exists.
type WriteMode string

const (
	ModeWrite  WriteMode = "write"
	ModeAppend WriteMode = "append"
)

// JSONOrient selects the JSON output layout.
type JSONOrient string

const (
	OrientRecords JSONOrient = "records" // array of row objects
	OrientColumns JSONOrient = "columns" // column name -> array of values
)

// IfExists governs table-write conflict resolution.
type IfExists string

const (
	IfExistsFail    IfExists = "fail"
	IfExistsReplace IfExists = "replace"
	IfExistsAppend  IfExists = "append"
)

// Loader persists datasets to CSV, JSON, Parquet or a SQL table, and reads
// query results back. The database handle is acquired with Connect and
// released with Close; there is no pooling and no retry.
type Loader struct {
	Config map[string]any

	db         *sql.DB
	driverName string
}

// NewLoader builds a Loader from the `load` section of the pipeline
// configuration.
func NewLoader(cfg map[string]any) *Loader {
	return &Loader{Config: cfg}
}

// ToCSV writes the dataset to path. Parent directories are created as
// needed.
func (l *Loader) ToCSV(ds *Dataset, path string, mode WriteMode) (string, error) {
	logger.Infof("Loading data to CSV: %s", path)

	switch mode {
	case ModeWrite, ModeAppend:
	default:
		return "", fmt.Errorf("%w: unknown write mode %q", ErrConfig, mode)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w: %w", dir, ErrIO, err)
		}
	}

	appendRows := false
	if mode == ModeAppend {
		if _, err := os.Stat(path); err == nil {
			appendRows = true
		}
	}

	if err := writeCSV(ds, path, appendRows); err != nil {
		logger.Errorf("Error loading data to CSV: %v", err)
		return "", err
	}

	logger.Infof("Successfully loaded %d rows to CSV", ds.NumRows())
	return path, nil
}

// writeCSV emits the dataset in schema column order. With appendRows set the
// file is opened for append and the header row is skipped.
func writeCSV(ds *Dataset, path string, appendRows bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendRows {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", path, ErrIO, err)
	}

	w := csv.NewWriter(f)
	names := ds.Schema.ColumnNames()
	if !appendRows {
		if err := w.Write(names); err != nil {
			f.Close()
			return fmt.Errorf("write header %s: %w: %w", path, ErrIO, err)
		}
	}
	record := make([]string, len(names))
	for _, row := range ds.Rows {
		for i, name := range names {
			record[i] = formatCell(row[name])
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return fmt.Errorf("write row %s: %w: %w", path, ErrIO, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w: %w", path, ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w: %w", path, ErrIO, err)
	}
	return nil
}

// formatCell renders a scalar for CSV output. Nulls become empty cells.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToJSON serializes the dataset with 2-space indentation per the requested
// orientation.
func (l *Loader) ToJSON(ds *Dataset, path string, orient JSONOrient) (string, error) {
	logger.Infof("Loading data to JSON: %s", path)

	var payload any
	switch orient {
	case OrientRecords:
		records := make([]map[string]any, len(ds.Rows))
		for i, row := range ds.Rows {
			records[i] = row
		}
		payload = records
	case OrientColumns:
		columns := make(map[string][]any, ds.NumColumns())
		for _, name := range ds.Schema.ColumnNames() {
			values := make([]any, len(ds.Rows))
			for i, row := range ds.Rows {
				values[i] = row[name]
			}
			columns[name] = values
		}
		payload = columns
	default:
		return "", fmt.Errorf("%w: unknown json orient %q", ErrConfig, orient)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w: %w", dir, ErrIO, err)
		}
	}

	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal json: %w: %w", ErrIO, err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		logger.Errorf("Error loading data to JSON: %v", err)
		return "", fmt.Errorf("write %s: %w: %w", path, ErrIO, err)
	}

	logger.Infof("Successfully loaded %d rows to JSON", ds.NumRows())
	return path, nil
}

// Connect establishes the database handle for ToDatabase and Query. The
// driver is picked from the connection string's URI scheme.
func (l *Loader) Connect(connString string) error {
	db, driverName, err := database.OpenSQL(connString)
	if err != nil {
		logger.Errorf("Error connecting to database: %v", err)
		return fmt.Errorf("connect database: %w: %w", ErrIO, err)
	}
	l.db = db
	l.driverName = driverName
	logger.Info("Database connection established")
	return nil
}

// placeholder returns the 1-based bind parameter marker for the connected
// driver's dialect.
func (l *Loader) placeholder(i int) string {
	switch l.driverName {
	case "postgres":
		return fmt.Sprintf("$%d", i)
	case "sqlserver":
		return fmt.Sprintf("@p%d", i)
	default:
		return "?"
	}
}

func sqlColumnType(t ColumnType) string {
	switch t {
	case TypeInt:
		return "BIGINT"
	case TypeFloat:
		return "DOUBLE PRECISION"
	case TypeBool:
		return "BOOLEAN"
	case TypeTime:
		return "TIMESTAMP"
	default:
		return "TEXT"
	}
}

func (l *Loader) tableExists(ctx context.Context, table string) (bool, error) {
	var query string
	switch l.driverName {
	case "sqlite":
		query = "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?"
	case "postgres":
		query = "SELECT 1 FROM information_schema.tables WHERE table_name = $1"
	case "sqlserver":
		query = "SELECT 1 FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = @p1"
	default:
		query = "SELECT 1 FROM information_schema.tables WHERE table_name = ?"
	}

	var one int
	err := l.db.QueryRowContext(ctx, query, table).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w: %w", table, ErrIO, err)
	}
	return true, nil
}

func (l *Loader) createTable(ctx context.Context, table string, schema Schema) error {
	defs := make([]string, len(schema.Columns))
	for i, col := range schema.Columns {
		defs[i] = fmt.Sprintf("%s %s", col.Name, sqlColumnType(col.Type))
	}
	query := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(defs, ", "))
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create table %s: %w: %w", table, ErrIO, err)
	}
	return nil
}

// ToDatabase writes the dataset to a SQL table. ifExists governs conflict
// resolution: fail aborts when the table exists, replace drops and recreates
// it from the dataset schema, append creates it only when missing. All rows
// are inserted in a single transaction.
func (l *Loader) ToDatabase(ctx context.Context, ds *Dataset, table string, ifExists IfExists) error {
	if l.db == nil {
		return fmt.Errorf("%w: connection not established", ErrState)
	}

	logger.Infof("Loading data to database table: %s", table)

	exists, err := l.tableExists(ctx, table)
	if err != nil {
		return err
	}

	switch ifExists {
	case IfExistsFail:
		if exists {
			return fmt.Errorf("%w: table %s already exists", ErrState, table)
		}
	case IfExistsReplace:
		if exists {
			if _, err := l.db.ExecContext(ctx, "DROP TABLE "+table); err != nil {
				return fmt.Errorf("drop table %s: %w: %w", table, ErrIO, err)
			}
			exists = false
		}
	case IfExistsAppend:
	default:
		return fmt.Errorf("%w: unknown if_exists policy %q", ErrConfig, ifExists)
	}

	if !exists {
		if err := l.createTable(ctx, table, ds.Schema); err != nil {
			return err
		}
	}

	names := ds.Schema.ColumnNames()
	marks := make([]string, len(names))
	for i := range names {
		marks[i] = l.placeholder(i + 1)
	}
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(names, ", "), strings.Join(marks, ", "))

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w: %w", ErrIO, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("prepare insert: %w: %w", ErrIO, err)
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for _, row := range ds.Rows {
		for i, name := range names {
			args[i] = row[name]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert into %s: %w: %w", table, ErrIO, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w: %w", ErrIO, err)
	}

	logger.Infof("Successfully loaded %d rows to %s", ds.NumRows(), table)
	return nil
}

// Query runs a read query against the established connection and returns
// the results as a Dataset. The schema is inferred from the scanned values.
func (l *Loader) Query(ctx context.Context, query string) (*Dataset, error) {
	if l.db == nil {
		return nil, fmt.Errorf("%w: connection not established", ErrState)
	}

	logger.Info("Executing SQL query")
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		logger.Errorf("Error executing query: %v", err)
		return nil, fmt.Errorf("query: %w: %w", ErrIO, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w: %w", ErrIO, err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w: %w", ErrIO, err)
		}

		row := make(Row, len(cols))
		for i, name := range cols {
			if b, ok := values[i].([]byte); ok {
				row[name] = string(b)
			} else {
				row[name] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w: %w", ErrIO, err)
	}

	ds := &Dataset{Schema: InferSchema(cols, out), Rows: out}
	logger.Infof("Query executed successfully, returned %d rows", ds.NumRows())
	return ds, nil
}

// Close releases the connection handle. Calling it without an established
// connection is a no-op.
func (l *Loader) Close() error {
	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	l.driverName = ""
	if err != nil {
		return fmt.Errorf("close connection: %w: %w", ErrIO, err)
	}
	logger.Info("Database connection closed")
	return nil
}
