package etl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
	"github.com/ricferal/mvpPucEngenhariaDados/pkg/utils"
)

// Transformer applies stateless cleaning and shaping operations. Every
// operation returns a new Dataset; the input is never modified.
type Transformer struct {
	Config map[string]any
}

// NewTransformer builds a Transformer from the `transform` section of the
// pipeline configuration.
func NewTransformer(cfg map[string]any) *Transformer {
	return &Transformer{Config: cfg}
}

// MissingStrategy is the closed set of missing-value policies.
type MissingStrategy string

const (
	StrategyDrop        MissingStrategy = "drop"
	StrategyFill        MissingStrategy = "fill"
	StrategyForwardFill MissingStrategy = "ffill"
	StrategyBackFill    MissingStrategy = "bfill"
)

// ParseMissingStrategy maps a config value to a MissingStrategy.
func ParseMissingStrategy(s string) (MissingStrategy, error) {
	switch MissingStrategy(s) {
	case StrategyDrop, StrategyFill, StrategyForwardFill, StrategyBackFill:
		return MissingStrategy(s), nil
	}
	return "", fmt.Errorf("%w: unknown missing-value strategy %q", ErrConfig, s)
}

// rowKey builds an equality key for a row over the given columns. Nulls and
// the empty string hash differently.
func rowKey(row Row, cols []string) string {
	var b strings.Builder
	for _, c := range cols {
		if v := row[c]; v != nil {
			fmt.Fprintf(&b, "%v", v)
		} else {
			b.WriteByte(0x00)
		}
		b.WriteByte(0x1f)
	}
	return b.String()
}

// RemoveDuplicates drops rows that are exact duplicates across all columns,
// or across the given subset, keeping the first occurrence.
func (t *Transformer) RemoveDuplicates(ds *Dataset, subset []string) (*Dataset, error) {
	cols := subset
	if len(cols) == 0 {
		cols = ds.Schema.ColumnNames()
	} else {
		for _, c := range cols {
			if !ds.Schema.HasColumn(c) {
				return nil, fmt.Errorf("%w: unknown column %q in duplicate subset", ErrConfig, c)
			}
		}
	}

	seen := make(map[string]struct{}, ds.NumRows())
	out := &Dataset{Schema: ds.Schema.Clone()}
	for _, row := range ds.Rows {
		key := rowKey(row, cols)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row.Clone())
	}

	logger.Infof("Removed %d duplicate rows", ds.NumRows()-out.NumRows())
	return out, nil
}

// HandleMissingValues applies the given strategy to null cells: drop removes
// any row containing a null, fill replaces nulls with fillValue, ffill
// propagates the last non-null value forward per column, bfill propagates
// the next non-null value backward.
func (t *Transformer) HandleMissingValues(ds *Dataset, strategy MissingStrategy, fillValue any) (*Dataset, error) {
	names := ds.Schema.ColumnNames()

	missing := 0
	for _, row := range ds.Rows {
		for _, c := range names {
			if row[c] == nil {
				missing++
			}
		}
	}
	logger.Infof("Found %d missing values", missing)

	out := &Dataset{Schema: ds.Schema.Clone()}
	switch strategy {
	case StrategyDrop:
		for _, row := range ds.Rows {
			complete := true
			for _, c := range names {
				if row[c] == nil {
					complete = false
					break
				}
			}
			if complete {
				out.Rows = append(out.Rows, row.Clone())
			}
		}

	case StrategyFill:
		for _, row := range ds.Rows {
			clone := row.Clone()
			for _, c := range names {
				if clone[c] == nil {
					clone[c] = fillValue
				}
			}
			out.Rows = append(out.Rows, clone)
		}

	case StrategyForwardFill:
		last := make(map[string]any, len(names))
		for _, row := range ds.Rows {
			clone := row.Clone()
			for _, c := range names {
				if clone[c] == nil {
					clone[c] = last[c]
				} else {
					last[c] = clone[c]
				}
			}
			out.Rows = append(out.Rows, clone)
		}

	case StrategyBackFill:
		out.Rows = make([]Row, len(ds.Rows))
		next := make(map[string]any, len(names))
		for i := len(ds.Rows) - 1; i >= 0; i-- {
			clone := ds.Rows[i].Clone()
			for _, c := range names {
				if clone[c] == nil {
					clone[c] = next[c]
				} else {
					next[c] = clone[c]
				}
			}
			out.Rows[i] = clone
		}

	default:
		return nil, fmt.Errorf("%w: unknown missing-value strategy %q", ErrConfig, strategy)
	}

	logger.Infof("Missing values handled using strategy: %s", strategy)
	return out, nil
}

// NormalizeColumns min-max scales the named numeric columns to [0,1]. A
// column with zero range is left unchanged; columns absent from the schema
// are skipped. Nulls are excluded from min/max and stay null.
func (t *Transformer) NormalizeColumns(ds *Dataset, columns []string) (*Dataset, error) {
	out := ds.Clone()
	for _, col := range columns {
		if !out.Schema.HasColumn(col) {
			continue
		}

		minVal, maxVal := 0.0, 0.0
		found := false
		for _, row := range out.Rows {
			if row[col] == nil {
				continue
			}
			f, err := utils.ToFloat(row[col])
			if err != nil {
				return nil, fmt.Errorf("normalize column %s: %w: %w", col, ErrConversion, err)
			}
			if !found || f < minVal {
				minVal = f
			}
			if !found || f > maxVal {
				maxVal = f
			}
			found = true
		}
		if !found || maxVal == minVal {
			continue
		}

		for _, row := range out.Rows {
			if row[col] == nil {
				continue
			}
			f, _ := utils.ToFloat(row[col])
			row[col] = (f - minVal) / (maxVal - minVal)
		}
		out.Schema.SetColumnType(col, TypeFloat)
		logger.Infof("Normalized column: %s", col)
	}
	return out, nil
}

// Filter keeps the rows for which pred returns true. The predicate must not
// modify the row it receives.
func (t *Transformer) Filter(ds *Dataset, pred func(Row) bool) *Dataset {
	out := &Dataset{Schema: ds.Schema.Clone()}
	for _, row := range ds.Rows {
		if pred(row) {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	logger.Infof("Filtered data: %d rows remaining from %d", out.NumRows(), ds.NumRows())
	return out
}

// ConvertTypes casts each named column to the requested scalar type. Columns
// absent from the schema are skipped; a value that cannot be represented in
// the target type is a conversion error.
func (t *Transformer) ConvertTypes(ds *Dataset, mapping map[string]ColumnType) (*Dataset, error) {
	out := ds.Clone()
	for col, typ := range mapping {
		if !out.Schema.HasColumn(col) {
			continue
		}
		for i, row := range out.Rows {
			if row[col] == nil {
				continue
			}
			v, err := convertValue(row[col], typ)
			if err != nil {
				return nil, fmt.Errorf("convert column %s row %d: %w: %w", col, i, ErrConversion, err)
			}
			row[col] = v
		}
		out.Schema.SetColumnType(col, typ)
		logger.Infof("Converted column %s to %s", col, typ)
	}
	return out, nil
}

func convertValue(v any, typ ColumnType) (any, error) {
	switch typ {
	case TypeString:
		return utils.ToString(v), nil
	case TypeInt:
		return utils.ToInt64(v)
	case TypeFloat:
		return utils.ToFloat(v)
	case TypeBool:
		return utils.ToBool(v)
	case TypeTime:
		return utils.ToTime(v)
	default:
		return nil, fmt.Errorf("unknown column type %q", typ)
	}
}

// aggState accumulates one column's values within a group.
type aggState struct {
	sum   float64
	min   float64
	max   float64
	count int
	seen  bool
}

func (a *aggState) add(f float64) {
	if !a.seen || f < a.min {
		a.min = f
	}
	if !a.seen || f > a.max {
		a.max = f
	}
	a.sum += f
	a.count++
	a.seen = true
}

// Aggregate groups rows by equality of the groupBy columns and applies the
// named aggregation per column. Supported functions: sum, mean, min, max,
// count. Group order is the first-seen order of each distinct key; output
// columns are the group-by columns followed by the aggregated columns in
// input schema order. Nulls are excluded from every aggregation.
func (t *Transformer) Aggregate(ds *Dataset, groupBy []string, aggs map[string]string) (*Dataset, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("%w: aggregate requires at least one group-by column", ErrConfig)
	}
	for _, c := range groupBy {
		if !ds.Schema.HasColumn(c) {
			return nil, fmt.Errorf("%w: unknown group-by column %q", ErrConfig, c)
		}
	}

	// Aggregated columns in input schema order for a deterministic layout.
	var aggCols []string
	for _, c := range ds.Schema.Columns {
		fn, ok := aggs[c.Name]
		if !ok {
			continue
		}
		switch fn {
		case "sum", "mean", "min", "max", "count":
		default:
			return nil, fmt.Errorf("%w: unknown aggregation function %q for column %q", ErrConfig, fn, c.Name)
		}
		aggCols = append(aggCols, c.Name)
	}
	if len(aggCols) != len(aggs) {
		for c := range aggs {
			if !ds.Schema.HasColumn(c) {
				return nil, fmt.Errorf("%w: unknown aggregation column %q", ErrConfig, c)
			}
		}
	}

	type group struct {
		keyRow Row
		states map[string]*aggState
	}
	groups := make(map[string]*group)
	var order []string

	for _, row := range ds.Rows {
		key := rowKey(row, groupBy)
		g, ok := groups[key]
		if !ok {
			g = &group{keyRow: make(Row, len(groupBy)), states: make(map[string]*aggState, len(aggCols))}
			for _, c := range groupBy {
				g.keyRow[c] = row[c]
			}
			for _, c := range aggCols {
				g.states[c] = &aggState{}
			}
			groups[key] = g
			order = append(order, key)
		}
		for _, c := range aggCols {
			v := row[c]
			if v == nil {
				continue
			}
			if aggs[c] == "count" {
				g.states[c].count++
				continue
			}
			f, err := utils.ToFloat(v)
			if err != nil {
				return nil, fmt.Errorf("aggregate column %s: %w: %w", c, ErrConversion, err)
			}
			g.states[c].add(f)
		}
	}

	cols := make([]Column, 0, len(groupBy)+len(aggCols))
	for _, c := range groupBy {
		col, _ := ds.Schema.Column(c)
		cols = append(cols, col)
	}
	for _, c := range aggCols {
		typ := TypeFloat
		if aggs[c] == "count" {
			typ = TypeInt
		}
		cols = append(cols, Column{Name: c, Type: typ})
	}

	out := &Dataset{Schema: Schema{Columns: cols}}
	for _, key := range order {
		g := groups[key]
		row := g.keyRow.Clone()
		for _, c := range aggCols {
			st := g.states[c]
			switch aggs[c] {
			case "count":
				row[c] = int64(st.count)
			case "sum":
				row[c] = st.sum
			case "mean":
				if st.count == 0 {
					row[c] = nil
				} else {
					row[c] = st.sum / float64(st.count)
				}
			case "min":
				if !st.seen {
					row[c] = nil
				} else {
					row[c] = st.min
				}
			case "max":
				if !st.seen {
					row[c] = nil
				} else {
					row[c] = st.max
				}
			}
		}
		out.Rows = append(out.Rows, row)
	}

	logger.Infof("Aggregated data: %d groups created", out.NumRows())
	return out, nil
}

// SaveTransformed writes a dataset snapshot to CSV under dir, creating the
// directory if absent, and returns the full output path.
func (t *Transformer) SaveTransformed(ds *Dataset, filename, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Errorf("Error saving transformed data: %v", err)
		return "", fmt.Errorf("create dir %s: %w: %w", dir, ErrIO, err)
	}
	outPath := filepath.Join(dir, filename)
	if err := writeCSV(ds, outPath, false); err != nil {
		logger.Errorf("Error saving transformed data: %v", err)
		return "", err
	}
	logger.Infof("Transformed data saved to: %s", outPath)
	return outPath, nil
}
