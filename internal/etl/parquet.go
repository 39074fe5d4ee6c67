package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
)

// ToParquet writes the dataset as a Parquet file. The file schema is built
// from the dataset schema with every column optional, so null cells map to
// Parquet nulls.
func (l *Loader) ToParquet(ds *Dataset, path string) (string, error) {
	logger.Infof("Loading data to Parquet: %s", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w: %w", dir, ErrIO, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		logger.Errorf("Error loading data to Parquet: %v", err)
		return "", fmt.Errorf("create %s: %w: %w", path, ErrIO, err)
	}

	w := parquet.NewGenericWriter[map[string]any](f, parquetSchema(ds.Schema))
	rows := make([]map[string]any, len(ds.Rows))
	for i, row := range ds.Rows {
		rows[i] = parquetRow(ds.Schema, row)
	}
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			f.Close()
			return "", fmt.Errorf("write parquet %s: %w: %w", path, ErrIO, err)
		}
	}
	if err := w.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("close parquet writer %s: %w: %w", path, ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w: %w", path, ErrIO, err)
	}

	logger.Infof("Successfully loaded %d rows to Parquet", ds.NumRows())
	return path, nil
}

func parquetSchema(s Schema) *parquet.Schema {
	group := parquet.Group{}
	for _, col := range s.Columns {
		var node parquet.Node
		switch col.Type {
		case TypeInt:
			node = parquet.Int(64)
		case TypeFloat:
			node = parquet.Leaf(parquet.DoubleType)
		case TypeBool:
			node = parquet.Leaf(parquet.BooleanType)
		case TypeTime:
			node = parquet.Timestamp(parquet.Millisecond)
		default:
			node = parquet.String()
		}
		group[col.Name] = parquet.Optional(node)
	}
	return parquet.NewSchema("dataset", group)
}

// parquetRow coerces cell values to what the column's physical type expects.
// Null cells are omitted so optional columns record them as nulls.
func parquetRow(s Schema, row Row) map[string]any {
	out := make(map[string]any, len(s.Columns))
	for _, col := range s.Columns {
		v := row[col.Name]
		if v == nil {
			continue
		}
		switch col.Type {
		case TypeInt:
			if i, ok := v.(int); ok {
				v = int64(i)
			}
		case TypeTime:
			if t, ok := v.(time.Time); ok {
				v = t.UnixMilli()
			}
		case TypeString:
			v = formatCell(v)
		}
		out[col.Name] = v
	}
	return out
}
