package etl

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ricferal/mvpPucEngenhariaDados/pkg/logger"
)

// apiTimeout is the fixed timeout for HTTP extraction.
const apiTimeout = 30 * time.Second

// Extractor pulls raw data from CSV files, JSON files, an HTTP API or a
// MongoDB collection into memory.
type Extractor struct {
	Config map[string]any
	client *http.Client
}

// NewExtractor builds an Extractor from the `extract` section of the
// pipeline configuration.
func NewExtractor(cfg map[string]any) *Extractor {
	return &Extractor{
		Config: cfg,
		client: &http.Client{Timeout: apiTimeout},
	}
}

// FromCSV parses a comma-delimited file with a header row into a Dataset.
// Cell values and column types are inferred (int, float, bool, string);
// empty cells become nulls.
func (e *Extractor) FromCSV(path string) (*Dataset, error) {
	logger.Infof("Extracting data from CSV: %s", path)

	f, err := os.Open(path)
	if err != nil {
		logger.Errorf("Error extracting data from CSV: %v", err)
		return nil, fmt.Errorf("open csv %s: %w: %w", path, ErrIO, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		logger.Errorf("Error extracting data from CSV: %v", err)
		return nil, fmt.Errorf("parse csv %s: %w: %w", path, ErrParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse csv %s: %w: missing header row", path, ErrParse)
	}

	headers := records[0]
	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(rec) {
				row[h] = inferValue(rec[i])
			} else {
				row[h] = nil
			}
		}
		rows = append(rows, row)
	}

	ds := &Dataset{Schema: InferSchema(headers, rows), Rows: rows}
	logger.Infof("Successfully extracted %d rows from CSV", ds.NumRows())
	return ds, nil
}

// FromAPI issues an HTTP GET with the given query parameters and returns the
// parsed JSON response body. Non-2xx responses and timeouts are network
// errors.
func (e *Extractor) FromAPI(ctx context.Context, url string, params map[string]string) (any, error) {
	logger.Infof("Extracting data from API: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w: %w", url, ErrNetwork, err)
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}

	resp, err := e.client.Do(req)
	if err != nil {
		logger.Errorf("Error extracting data from API: %v", err)
		return nil, fmt.Errorf("get %s: %w: %w", url, ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		logger.Errorf("Error extracting data from API: http %d", resp.StatusCode)
		return nil, fmt.Errorf("get %s: %w: http %d: %s", url, ErrNetwork, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w: %w", url, ErrNetwork, err)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("parse response %s: %w: %w", url, ErrParse, err)
	}

	logger.Info("Successfully extracted data from API")
	return data, nil
}

// FromJSON reads and parses a JSON file.
func (e *Extractor) FromJSON(path string) (any, error) {
	logger.Infof("Extracting data from JSON: %s", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		logger.Errorf("Error extracting data from JSON: %v", err)
		return nil, fmt.Errorf("read json %s: %w: %w", path, ErrIO, err)
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		logger.Errorf("Error extracting data from JSON: %v", err)
		return nil, fmt.Errorf("parse json %s: %w: %w", path, ErrParse, err)
	}

	logger.Info("Successfully extracted data from JSON")
	return data, nil
}

// DatasetFromValue converts a parsed JSON value (an array of row objects, or
// a single object) into a Dataset. Nested objects and arrays are kept as
// serialized JSON strings. Column order is alphabetical since JSON objects
// carry no order.
func DatasetFromValue(v any) (*Dataset, error) {
	var rows []Row
	switch val := v.(type) {
	case []any:
		rows = make([]Row, 0, len(val))
		for i, item := range val {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is not an object", ErrParse, i)
			}
			rows = append(rows, flattenRecord(m))
		}
	case map[string]any:
		rows = []Row{flattenRecord(val)}
	default:
		return nil, fmt.Errorf("%w: expected a JSON array or object, got %T", ErrParse, v)
	}

	names := collectColumnNames(rows)
	return &Dataset{Schema: InferSchema(names, rows), Rows: rows}, nil
}

// flattenRecord keeps scalar values as-is and serializes nested structures
// as JSON strings.
func flattenRecord(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		switch v.(type) {
		case nil, string, float64, bool:
			row[k] = v
		default:
			b, _ := json.Marshal(v)
			row[k] = string(b)
		}
	}
	return row
}

// SaveRaw writes a dataset to CSV under dir, creating the directory if it
// does not exist, and returns the full output path.
func (e *Extractor) SaveRaw(ds *Dataset, filename, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Errorf("Error saving raw data: %v", err)
		return "", fmt.Errorf("create dir %s: %w: %w", dir, ErrIO, err)
	}

	outPath := filepath.Join(dir, filename)
	if err := writeCSV(ds, outPath, false); err != nil {
		logger.Errorf("Error saving raw data: %v", err)
		return "", err
	}

	logger.Infof("Raw data saved to: %s", outPath)
	return outPath, nil
}
