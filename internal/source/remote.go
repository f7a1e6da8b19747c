package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"
	"github.com/jobscope/jobscope/internal/logger"
)

const (
	defaultRecordsPath = "jobs"
	defaultMaxRetries  = 3
	defaultTimeout     = 30 * time.Second
	remoteUserAgent    = "jobscope-pipeline"
	maxBodyPreview     = 256
)

// RemoteAdapter ingests postings from a JSON API. Transient failures are
// retried with exponential backoff and a per-attempt timeout; after the
// last attempt the error propagates as a fatal stage error.
type RemoteAdapter struct {
	name        string
	url         string
	recordsPath string
	client      *resty.Client
	logger      *zap.Logger
	now         clock
}

func NewRemoteAdapter(cfg config.Source, logger *zap.Logger) (*RemoteAdapter, error) {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	recordsPath := cfg.RecordsPath
	if recordsPath == "" {
		recordsPath = defaultRecordsPath
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(retries - 1).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("User-Agent", remoteUserAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	if cfg.TokenFile != "" {
		token, err := LoadToken(cfg.Name+" api token", cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		client.SetAuthToken(token)
	}

	return &RemoteAdapter{
		name:        cfg.Name,
		url:         cfg.URL,
		recordsPath: recordsPath,
		client:      client,
		logger:      logger,
		now:         time.Now,
	}, nil
}

func (a *RemoteAdapter) Name() string { return a.name }

func (a *RemoteAdapter) Fetch(ctx context.Context) ([]dataset.RawRecord, error) {
	resp, err := a.client.R().SetContext(ctx).Get(a.url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrRetriesExhausted, a.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: fetching %s: status %s", ErrRetriesExhausted, a.url, resp.Status())
	}

	a.logger.Debug("remote source responded",
		zap.String("source", a.name),
		zap.String("status", resp.Status()),
		zap.Duration("elapsed", resp.Time()),
		zap.String("body_preview", logger.TruncateForLog(string(resp.Body()), maxBodyPreview)),
	)

	items := gjson.GetBytes(resp.Body(), a.recordsPath)
	if !items.IsArray() {
		return nil, fmt.Errorf("remote payload from %s has no record array at %q", a.url, a.recordsPath)
	}

	ingestedAt := a.now().UTC()
	var records []dataset.RawRecord
	items.ForEach(func(_, item gjson.Result) bool {
		fields := map[string]string{}
		item.ForEach(func(key, value gjson.Result) bool {
			fields[key.String()] = flattenResult(value)
			return true
		})
		records = append(records, dataset.RawRecord{
			Source:     a.name,
			IngestedAt: ingestedAt,
			Fields:     fields,
		})
		return true
	})

	return records, nil
}

// flattenResult renders a payload value as the flat string raw records
// carry. Arrays join their elements; nested objects keep their JSON form so
// nothing is lost before resolution.
func flattenResult(value gjson.Result) string {
	if !value.IsArray() {
		return value.String()
	}
	parts := make([]string, 0)
	value.ForEach(func(_, item gjson.Result) bool {
		if s := item.String(); s != "" {
			parts = append(parts, s)
		}
		return true
	})
	return strings.Join(parts, ", ")
}
