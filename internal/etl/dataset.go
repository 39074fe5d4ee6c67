package etl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared scalar type of a dataset column.
type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeInt    ColumnType = "int"
	TypeFloat  ColumnType = "float"
	TypeBool   ColumnType = "bool"
	TypeTime   ColumnType = "datetime"
)

// ParseColumnType maps a config value to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch ColumnType(s) {
	case TypeString, TypeInt, TypeFloat, TypeBool, TypeTime:
		return ColumnType(s), nil
	}
	return "", fmt.Errorf("%w: unknown column type %q", ErrConfig, s)
}

// Column describes a single dataset column.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered list of columns a dataset carries. Column order is
// significant: it drives CSV/Parquet output and aggregation layout.
type Schema struct {
	Columns []Column
}

func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (s Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s Schema) HasColumn(name string) bool {
	_, ok := s.Column(name)
	return ok
}

// SetColumnType updates the declared type of a column in place.
func (s *Schema) SetColumnType(name string, typ ColumnType) {
	for i := range s.Columns {
		if s.Columns[i].Name == name {
			s.Columns[i].Type = typ
			return
		}
	}
}

func (s Schema) Clone() Schema {
	cols := make([]Column, len(s.Columns))
	copy(cols, s.Columns)
	return Schema{Columns: cols}
}

// Row is a single record. A nil cell value represents a missing value.
type Row map[string]any

func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered collection of uniformly-columned rows held in memory.
// Transform operations never mutate a dataset; they return a fresh one.
type Dataset struct {
	Schema Schema
	Rows   []Row
}

func NewDataset(columns ...Column) *Dataset {
	return &Dataset{Schema: Schema{Columns: columns}}
}

func (d *Dataset) NumRows() int    { return len(d.Rows) }
func (d *Dataset) NumColumns() int { return len(d.Schema.Columns) }

// Clone returns a deep copy: schema and every row.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{Schema: d.Schema.Clone(), Rows: make([]Row, len(d.Rows))}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// inferValue parses a raw CSV cell into a typed scalar. An empty cell is a
// missing value.
func inferValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

// inferScalarType maps a Go value to the column type it represents.
func inferScalarType(v any) ColumnType {
	switch v.(type) {
	case int, int32, int64:
		return TypeInt
	case float32, float64:
		return TypeFloat
	case bool:
		return TypeBool
	case time.Time:
		return TypeTime
	default:
		return TypeString
	}
}

// InferSchema builds a schema for the given column names from the first
// non-null value per column. A column with no values defaults to string.
func InferSchema(names []string, rows []Row) Schema {
	cols := make([]Column, len(names))
	for i, name := range names {
		typ := TypeString
		for _, row := range rows {
			if v := row[name]; v != nil {
				typ = inferScalarType(v)
				break
			}
		}
		cols[i] = Column{Name: name, Type: typ}
	}
	return Schema{Columns: cols}
}

// collectColumnNames gathers every key appearing in the rows, sorted for a
// deterministic column order (JSON objects and BSON documents carry none).
func collectColumnNames(rows []Row) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, row := range rows {
		for k := range row {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	return names
}
