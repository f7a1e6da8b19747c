// Package source implements the ingestion adapters. Each adapter produces
// raw records in the common intermediate shape; canonical naming is left to
// the schema resolver downstream.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobscope/jobscope/internal/config"
	"github.com/jobscope/jobscope/internal/dataset"

	"go.uber.org/zap"
)

// ErrRetriesExhausted marks an ingestion failure that survived every retry
// attempt. The orchestrator treats it as fatal for the extract stage.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Adapter fetches raw records from one configured source.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context) ([]dataset.RawRecord, error)
}

// New builds the adapter for a source configuration.
func New(cfg config.Source, logger *zap.Logger) (Adapter, error) {
	switch cfg.Type {
	case "file":
		return NewFileAdapter(cfg, logger), nil
	case "remote":
		return NewRemoteAdapter(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown source type %q for source %q", cfg.Type, cfg.Name)
	}
}

// FetchAll runs every adapter in order and concatenates the results. A
// single failing source fails the whole extract stage; partial ingestion
// would silently skew every aggregate downstream.
func FetchAll(ctx context.Context, adapters []Adapter, logger *zap.Logger) ([]dataset.RawRecord, error) {
	var records []dataset.RawRecord
	for _, adapter := range adapters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fetched, err := adapter.Fetch(ctx)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", adapter.Name(), err)
		}
		logger.Info("source ingested",
			zap.String("source", adapter.Name()),
			zap.Int("records", len(fetched)),
		)
		records = append(records, fetched...)
	}
	return records, nil
}

// clock is overridable in tests so ingested_at stamps are reproducible.
type clock func() time.Time
