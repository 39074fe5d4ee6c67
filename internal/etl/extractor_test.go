package etl_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricferal/mvpPucEngenhariaDados/internal/etl"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFromCSV(t *testing.T) {
	ex := etl.NewExtractor(nil)
	path := writeTempFile(t, "data.csv", "id,name,score,active\n1,alice,0.5,true\n2,bob,,false\n")

	ds, err := ex.FromCSV(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.NumRows())
	require.Equal(t, []string{"id", "name", "score", "active"}, ds.Schema.ColumnNames())

	assert.Equal(t, int64(1), ds.Rows[0]["id"])
	assert.Equal(t, "alice", ds.Rows[0]["name"])
	assert.Equal(t, 0.5, ds.Rows[0]["score"])
	assert.Equal(t, true, ds.Rows[0]["active"])
	assert.Nil(t, ds.Rows[1]["score"])

	id, _ := ds.Schema.Column("id")
	assert.Equal(t, etl.TypeInt, id.Type)
	score, _ := ds.Schema.Column("score")
	assert.Equal(t, etl.TypeFloat, score.Type)
	active, _ := ds.Schema.Column("active")
	assert.Equal(t, etl.TypeBool, active.Type)
}

func TestFromCSVMissingFile(t *testing.T) {
	ex := etl.NewExtractor(nil)

	_, err := ex.FromCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, etl.ErrIO)
}

func TestFromCSVMalformed(t *testing.T) {
	ex := etl.NewExtractor(nil)
	path := writeTempFile(t, "bad.csv", "a,b\n1,2,3\n")

	_, err := ex.FromCSV(path)
	require.ErrorIs(t, err, etl.ErrParse)
}

func TestFromAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "name": "alice"}]`))
	}))
	defer srv.Close()

	ex := etl.NewExtractor(nil)
	data, err := ex.FromAPI(context.Background(), srv.URL, map[string]string{"limit": "42"})
	require.NoError(t, err)

	items, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
}

func TestFromAPINon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ex := etl.NewExtractor(nil)
	_, err := ex.FromAPI(context.Background(), srv.URL, nil)
	require.ErrorIs(t, err, etl.ErrNetwork)
}

func TestFromAPIUnreachable(t *testing.T) {
	ex := etl.NewExtractor(nil)

	_, err := ex.FromAPI(context.Background(), "http://127.0.0.1:1", nil)
	require.ErrorIs(t, err, etl.ErrNetwork)
}

func TestFromJSON(t *testing.T) {
	ex := etl.NewExtractor(nil)
	path := writeTempFile(t, "data.json", `[{"id": 1}, {"id": 2}]`)

	data, err := ex.FromJSON(path)
	require.NoError(t, err)
	items, ok := data.([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
}

func TestFromJSONErrors(t *testing.T) {
	ex := etl.NewExtractor(nil)

	_, err := ex.FromJSON(filepath.Join(t.TempDir(), "nope.json"))
	require.ErrorIs(t, err, etl.ErrIO)

	bad := writeTempFile(t, "bad.json", "{not json")
	_, err = ex.FromJSON(bad)
	require.ErrorIs(t, err, etl.ErrParse)
}

func TestDatasetFromValue(t *testing.T) {
	value := []any{
		map[string]any{"id": 1.0, "name": "alice", "tags": []any{"x", "y"}},
		map[string]any{"id": 2.0, "name": "bob"},
	}

	ds, err := etl.DatasetFromValue(value)
	require.NoError(t, err)
	require.Equal(t, 2, ds.NumRows())
	require.Equal(t, []string{"id", "name", "tags"}, ds.Schema.ColumnNames())

	// Nested values are serialized.
	assert.Equal(t, `["x","y"]`, ds.Rows[0]["tags"])
	assert.Nil(t, ds.Rows[1]["tags"])
}

func TestDatasetFromValueRejectsScalars(t *testing.T) {
	_, err := etl.DatasetFromValue("just a string")
	require.ErrorIs(t, err, etl.ErrParse)

	_, err = etl.DatasetFromValue([]any{"not", "objects"})
	require.ErrorIs(t, err, etl.ErrParse)
}

func TestSaveRawCreatesDir(t *testing.T) {
	ex := etl.NewExtractor(nil)
	ds := sampleDataset()
	dir := filepath.Join(t.TempDir(), "data", "raw")

	path, err := ex.SaveRaw(ds, "sample.csv", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "sample.csv"), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}
