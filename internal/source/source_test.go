package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFileAdapterReadsCSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "jobs.csv", "job_title,company_name,location\nData Engineer,Acme,Remote\nAnalyst,Globex,Berlin\n")

	adapter := NewFileAdapter(config.Source{Name: "kaggle", Type: "file", Path: path}, zap.NewNop())
	records, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "kaggle", records[0].Source)
	assert.Equal(t, "Data Engineer", records[0].Fields["job_title"])
	assert.Equal(t, "Berlin", records[1].Fields["location"])
	assert.False(t, records[0].IngestedAt.IsZero())
}

func TestFileAdapterReadsJSONAndFlattens(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "jobs.json", `[
		{"title": "Engineer", "company": "Acme", "skills": ["Python", "SQL"], "salary_min": 90000},
		{"title": "Analyst", "company": "Globex", "remote": true}
	]`)

	adapter := NewFileAdapter(config.Source{Name: "dump", Type: "file", Path: path}, zap.NewNop())
	records, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Python, SQL", records[0].Fields["skills"])
	assert.Equal(t, "90000", records[0].Fields["salary_min"])
	assert.Equal(t, "true", records[1].Fields["remote"])
}

func TestFileAdapterSampleCap(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "jobs.csv", "title\na\nb\nc\nd\n")

	adapter := NewFileAdapter(config.Source{Name: "kaggle", Type: "file", Path: path, SampleN: 2}, zap.NewNop())
	records, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].Fields["title"])
	assert.Equal(t, "b", records[1].Fields["title"])
}

func TestRemoteAdapterFetchesAndFlattens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"jobs": [
			{"title": "Data Engineer", "company_name": "Acme", "tags": ["python", "sql"], "publication_date": "2026-01-02"}
		]}`))
	}))
	defer srv.Close()

	adapter, err := NewRemoteAdapter(config.Source{
		Name: "remotive", Type: "remote", URL: srv.URL, Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "remotive", records[0].Source)
	assert.Equal(t, "Data Engineer", records[0].Fields["title"])
	assert.Equal(t, "python, sql", records[0].Fields["tags"])
}

func TestRemoteAdapterRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"jobs": [{"title": "Engineer"}]}`))
	}))
	defer srv.Close()

	adapter, err := NewRemoteAdapter(config.Source{
		Name: "remotive", Type: "remote", URL: srv.URL, MaxRetries: 3, Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	records, err := adapter.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRemoteAdapterExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter, err := NewRemoteAdapter(config.Source{
		Name: "remotive", Type: "remote", URL: srv.URL, MaxRetries: 2, Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestRemoteAdapterRejectsMissingRecordArray(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": "not what you expected"}`))
	}))
	defer srv.Close()

	adapter, err := NewRemoteAdapter(config.Source{
		Name: "remotive", Type: "remote", URL: srv.URL, Timeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = adapter.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record array")
}

func TestLoadToken(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "token", "  secret-token \n")
	token, err := LoadToken("api token", path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", token)

	_, err = LoadToken("api token", writeFile(t, "empty", "  \n"))
	require.Error(t, err)
}

func TestFetchAllStopsOnFirstFailure(t *testing.T) {
	t.Parallel()

	good := writeFile(t, "jobs.csv", "title\nEngineer\n")
	adapters := []Adapter{
		NewFileAdapter(config.Source{Name: "ok", Type: "file", Path: good}, zap.NewNop()),
		NewFileAdapter(config.Source{Name: "broken", Type: "file", Path: "/nonexistent/jobs.csv"}, zap.NewNop()),
	}

	_, err := FetchAll(context.Background(), adapters, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestStreamProducerIsSeededAndBounded(t *testing.T) {
	t.Parallel()

	first := NewStreamProducer(42).Next()
	second := NewStreamProducer(42).Next()
	assert.Equal(t, first.Fields, second.Fields)

	consumer := NewStreamConsumer()
	producer := NewStreamProducer(7)
	for rec := range producer.Stream(context.Background(), 20, 0) {
		consumer.Ingest(rec)
	}

	top := consumer.TopSkills()
	require.NotEmpty(t, top)
	total := 0
	for i := 1; i < len(top); i++ {
		assert.GreaterOrEqual(t, top[i-1].Count, top[i].Count)
	}
	for _, sc := range top {
		total += sc.Count
	}
	assert.Greater(t, total, 0)
}
