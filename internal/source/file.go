package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"
)

// FileAdapter reads a batch dump (CSV or JSON array) from disk. Headers and
// object keys are kept source-native.
type FileAdapter struct {
	name    string
	path    string
	sampleN int
	logger  *zap.Logger
	now     clock
}

func NewFileAdapter(cfg config.Source, logger *zap.Logger) *FileAdapter {
	return &FileAdapter{
		name:    cfg.Name,
		path:    cfg.Path,
		sampleN: cfg.SampleN,
		logger:  logger,
		now:     time.Now,
	}
}

func (a *FileAdapter) Name() string { return a.name }

func (a *FileAdapter) Fetch(ctx context.Context) ([]dataset.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rows []map[string]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(a.path)) {
	case ".csv":
		rows, err = readCSV(a.path)
	case ".json":
		rows, err = readJSONArray(a.path)
	default:
		return nil, fmt.Errorf("unsupported batch file extension: %s", a.path)
	}
	if err != nil {
		return nil, err
	}

	// The row cap takes from the top so a capped run stays reproducible.
	if a.sampleN > 0 && len(rows) > a.sampleN {
		a.logger.Debug("capping batch source",
			zap.String("source", a.name),
			zap.Int("rows", len(rows)),
			zap.Int("cap", a.sampleN),
		)
		rows = rows[:a.sampleN]
	}

	ingestedAt := a.now().UTC()
	records := make([]dataset.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, dataset.RawRecord{
			Source:     a.name,
			IngestedAt: ingestedAt,
			Fields:     row,
		})
	}
	return records, nil
}

func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header from %s: %w", path, err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row from %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readJSONArray(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening batch file: %w", err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	rows := make([]map[string]string, 0, len(objects))
	for _, obj := range objects {
		row := make(map[string]string, len(obj))
		for k, v := range obj {
			row[k] = stringifyValue(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// stringifyValue flattens a JSON value to the string shape raw records use.
// Arrays become comma-joined lists, matching how skills arrive in practice.
func stringifyValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := stringifyValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
