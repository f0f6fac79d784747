package summary

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/endpoint"
	"github.com/nucleus/sdmx-core/internal/structure"
)

// Fetcher retrieves structure messages and datasets.
type Fetcher interface {
	endpoint.StructureCapable
	endpoint.DatasetCapable
}

// Service summarizes remote datasets.
type Service struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
}

// NewService creates a summary service.
func NewService(fetcher Fetcher, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, opts: opts, logger: logger}
}

// Dimensions returns the positional dimension list of a dataset.
func (s *Service) Dimensions(ctx context.Context, datasetID string) (map[int]string, error) {
	msg, err := s.fetcher.FetchStructure(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch structure %s: %w", datasetID, err)
	}
	dsd, err := msg.DataStructure()
	if err != nil {
		return nil, err
	}
	return structure.ExtractDimensions(dsd), nil
}

// Metadata summarizes a dataset's structure message.
func (s *Service) Metadata(ctx context.Context, datasetID string) (*MetadataSummary, error) {
	msg, err := s.fetcher.FetchStructure(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch structure %s: %w", datasetID, err)
	}
	return SummarizeMetadata(msg)
}

// Dataset retrieves the latest observation of every series and summarizes it.
func (s *Service) Dataset(ctx context.Context, datasetID string) (*DatasetSummary, error) {
	return s.DatasetWith(ctx, datasetID, s.opts)
}

// DatasetWith is Dataset with per-call options.
func (s *Service) DatasetWith(ctx context.Context, datasetID string, opts Options) (*DatasetSummary, error) {
	ds, err := s.fetcher.FetchDataset(ctx, core.DataQuery{ResourceID: datasetID, LastNObservations: 1})
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", datasetID, err)
	}
	s.logger.Debug("summarizing dataset", "dataset", datasetID, "rows", ds.Data.Len())
	return SummarizeDataset(ds, opts)
}
