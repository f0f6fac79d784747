package summary

import (
	"context"
	"fmt"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/labels"
	"github.com/nucleus/sdmx-core/internal/selection"
	"github.com/nucleus/sdmx-core/internal/structure"
)

// DataRequest selects a slice of a dataset.
type DataRequest struct {
	DatasetID string
	Selection *selection.Selection

	// Ordered renders the key in structural order with wildcards for the
	// dimensions the selection leaves out.
	Ordered bool

	StartPeriod string
	EndPeriod   string
	LastN       int

	// Labels lists dimensions to join with their code names.
	Labels       []string
	StrictLabels bool
}

// Key renders a selection as a series key for datasetID. Unordered keys
// follow insertion order and need no retrieval.
func (s *Service) Key(ctx context.Context, datasetID string, sel *selection.Selection, ordered bool) (string, error) {
	if !ordered {
		return selection.BuildKey(sel)
	}
	msg, err := s.fetcher.FetchStructure(ctx, datasetID)
	if err != nil {
		return "", fmt.Errorf("fetch structure %s: %w", datasetID, err)
	}
	dsd, err := msg.DataStructure()
	if err != nil {
		return "", err
	}
	return selection.BuildOrderedKey(structure.ExtractDimensions(dsd), sel, structure.TimeDimensions(dsd)...)
}

// Data retrieves a dataset slice and attaches the requested labels. The
// rendered key is returned alongside.
func (s *Service) Data(ctx context.Context, req DataRequest) (*core.Dataset, string, error) {
	key, err := s.Key(ctx, req.DatasetID, req.Selection, req.Ordered)
	if err != nil {
		return nil, "", err
	}
	ds, err := s.fetcher.FetchDataset(ctx, core.DataQuery{
		ResourceID:        req.DatasetID,
		Key:               key,
		StartPeriod:       req.StartPeriod,
		EndPeriod:         req.EndPeriod,
		LastNObservations: req.LastN,
	})
	if err != nil {
		return nil, key, fmt.Errorf("fetch dataset %s: %w", req.DatasetID, err)
	}
	if len(req.Labels) > 0 {
		ds, err = labels.AttachAll(ds, labels.Options{Strict: req.StrictLabels}, req.Labels...)
		if err != nil {
			return nil, key, err
		}
	}
	s.logger.Debug("dataset slice retrieved", "dataset", req.DatasetID, "key", key, "rows", ds.Data.Len())
	return ds, key, nil
}
