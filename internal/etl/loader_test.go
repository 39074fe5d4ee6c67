package etl_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/etl"
)

func newLoader() *etl.Loader {
	return etl.NewLoader(nil)
}

func outputDataset() *etl.Dataset {
	ds := etl.NewDataset(
		etl.Column{Name: "id", Type: etl.TypeInt},
		etl.Column{Name: "name", Type: etl.TypeString},
		etl.Column{Name: "score", Type: etl.TypeFloat},
	)
	ds.Rows = []etl.Row{
		{"id": int64(1), "name": "alice", "score": 0.5},
		{"id": int64(2), "name": "bob", "score": 1.5},
	}
	return ds
}

func TestToCSVWrite(t *testing.T) {
	l := newLoader()
	path := filepath.Join(t.TempDir(), "out", "data.csv")

	_, err := l.ToCSV(outputDataset(), path, etl.ModeWrite)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,name,score", lines[0])
	assert.Equal(t, "1,alice,0.5", lines[1])
}

func TestToCSVAppend(t *testing.T) {
	l := newLoader()
	ds := outputDataset()
	path := filepath.Join(t.TempDir(), "data.csv")

	_, err := l.ToCSV(ds, path, etl.ModeWrite)
	require.NoError(t, err)
	_, err = l.ToCSV(ds, path, etl.ModeAppend)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	// One header plus four data rows: no second header on append.
	require.Len(t, lines, 5)
	assert.Equal(t, 1, strings.Count(string(raw), "id,name,score"))
}

func TestToCSVAppendWithoutExistingFile(t *testing.T) {
	l := newLoader()
	path := filepath.Join(t.TempDir(), "data.csv")

	_, err := l.ToCSV(outputDataset(), path, etl.ModeAppend)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "id,name,score\n"))
}

func TestToCSVUnknownMode(t *testing.T) {
	l := newLoader()

	_, err := l.ToCSV(outputDataset(), filepath.Join(t.TempDir(), "x.csv"), etl.WriteMode("upsert"))
	require.ErrorIs(t, err, etl.ErrConfig)
}

func TestCSVRoundTrip(t *testing.T) {
	l := newLoader()
	ex := etl.NewExtractor(nil)
	ds := outputDataset()
	path := filepath.Join(t.TempDir(), "roundtrip.csv")

	_, err := l.ToCSV(ds, path, etl.ModeWrite)
	require.NoError(t, err)

	back, err := ex.FromCSV(path)
	require.NoError(t, err)

	require.Equal(t, ds.Schema.ColumnNames(), back.Schema.ColumnNames())
	require.Equal(t, ds.NumRows(), back.NumRows())
	for i := range ds.Rows {
		assert.Equal(t, ds.Rows[i], back.Rows[i])
	}
}

func TestToJSONRecords(t *testing.T) {
	l := newLoader()
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := l.ToJSON(outputDataset(), path, etl.OrientRecords)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	// 2-space indentation.
	assert.Contains(t, string(raw), "\n  {")

	var records []map[string]any
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 2)
	assert.Equal(t, "alice", records[0]["name"])
}

func TestToJSONColumns(t *testing.T) {
	l := newLoader()
	path := filepath.Join(t.TempDir(), "data.json")

	_, err := l.ToJSON(outputDataset(), path, etl.OrientColumns)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var columns map[string][]any
	require.NoError(t, json.Unmarshal(raw, &columns))
	require.Len(t, columns["name"], 2)
	assert.Equal(t, []any{"alice", "bob"}, columns["name"])
}

func TestToJSONUnknownOrient(t *testing.T) {
	l := newLoader()

	_, err := l.ToJSON(outputDataset(), filepath.Join(t.TempDir(), "x.json"), etl.JSONOrient("split"))
	require.ErrorIs(t, err, etl.ErrConfig)
}

func TestToParquet(t *testing.T) {
	l := newLoader()
	ds := outputDataset()
	ds.Rows = append(ds.Rows, etl.Row{"id": int64(3), "name": "carol", "score": nil})
	path := filepath.Join(t.TempDir(), "data.parquet")

	_, err := l.ToParquet(ds, path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	st, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, st.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(3), pf.NumRows())
}

func TestDatabaseRequiresConnect(t *testing.T) {
	l := newLoader()
	ctx := context.Background()

	err := l.ToDatabase(ctx, outputDataset(), "people", etl.IfExistsReplace)
	require.ErrorIs(t, err, etl.ErrState)

	_, err = l.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, etl.ErrState)

	// Close without a connection is a no-op.
	require.NoError(t, l.Close())
}

func TestDatabaseLifecycle(t *testing.T) {
	l := newLoader()
	ctx := context.Background()
	ds := outputDataset()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "etl.db")

	require.NoError(t, l.Connect(dsn))
	defer l.Close()

	require.NoError(t, l.ToDatabase(ctx, ds, "people", etl.IfExistsReplace))

	back, err := l.Query(ctx, "SELECT id, name, score FROM people ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, back.NumRows())
	assert.Equal(t, int64(1), back.Rows[0]["id"])
	assert.Equal(t, "alice", back.Rows[0]["name"])
	assert.Equal(t, 0.5, back.Rows[0]["score"])

	// Append adds rows to the existing table.
	require.NoError(t, l.ToDatabase(ctx, ds, "people", etl.IfExistsAppend))
	back, err = l.Query(ctx, "SELECT id FROM people")
	require.NoError(t, err)
	assert.Equal(t, 4, back.NumRows())

	// Fail aborts when the table exists.
	err = l.ToDatabase(ctx, ds, "people", etl.IfExistsFail)
	require.ErrorIs(t, err, etl.ErrState)

	// Replace starts over.
	require.NoError(t, l.ToDatabase(ctx, ds, "people", etl.IfExistsReplace))
	back, err = l.Query(ctx, "SELECT id FROM people")
	require.NoError(t, err)
	assert.Equal(t, 2, back.NumRows())

	require.NoError(t, l.Close())

	// The handle is gone after Close.
	_, err = l.Query(ctx, "SELECT 1")
	require.ErrorIs(t, err, etl.ErrState)
}

func TestDatabaseUnknownIfExists(t *testing.T) {
	l := newLoader()
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "etl.db")
	require.NoError(t, l.Connect(dsn))
	defer l.Close()

	err := l.ToDatabase(context.Background(), outputDataset(), "people", etl.IfExists("merge"))
	require.ErrorIs(t, err, etl.ErrConfig)
}

func TestConnectUnknownScheme(t *testing.T) {
	l := newLoader()

	err := l.Connect("oracle://somewhere/db")
	require.ErrorIs(t, err, etl.ErrIO)
}
