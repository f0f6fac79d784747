package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/endpoint"
	"github.com/nucleus/sdmx-core/internal/selection"
	"github.com/nucleus/sdmx-core/internal/structure"
)

// Fetcher retrieves structures and dataset slices.
type Fetcher interface {
	endpoint.StructureCapable
	endpoint.DatasetCapable
}

// Request describes one reconciliation.
type Request struct {
	DatasetID  string
	SelectionA *selection.Selection
	SelectionB *selection.Selection

	// StartPeriod defaults to DefaultStartPeriod.
	StartPeriod string
	EndPeriod   string

	// Ordered builds keys in structural order, filling unselected positions
	// with wildcards. It costs one extra structure retrieval.
	Ordered bool

	Options Options
}

// Reconciler retrieves two slices of a dataset and compares their aggregates.
type Reconciler struct {
	fetcher Fetcher
	logger  *slog.Logger
}

// New creates a reconciler.
func New(fetcher Fetcher, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{fetcher: fetcher, logger: logger}
}

// Reconcile runs one reconciliation. Both retrievals run concurrently;
// retrieval errors are returned wrapped but otherwise unchanged.
func (r *Reconciler) Reconcile(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID, "dataset", req.DatasetID)

	result, err := r.run(ctx, req, logger)
	runDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		runsTotal.WithLabelValues(outcomeError).Inc()
		logger.Warn("reconciliation failed", "error", err)
		return nil, err
	}

	result.RunID = runID
	if result.HasDiscrepancies() {
		runsTotal.WithLabelValues(outcomeDiscrepancy).Inc()
		discrepanciesTotal.WithLabelValues(req.DatasetID).Add(float64(len(result.Discrepancies)))
	} else {
		runsTotal.WithLabelValues(outcomeClean).Inc()
	}
	logger.Info("reconciliation complete",
		"aligned", result.Aligned,
		"discrepancies", len(result.Discrepancies),
		"only_in_a", len(result.OnlyInA),
		"only_in_b", len(result.OnlyInB))
	return result, nil
}

func (r *Reconciler) run(ctx context.Context, req Request, logger *slog.Logger) (*Result, error) {
	keyA, keyB, err := r.keys(ctx, req)
	if err != nil {
		return nil, err
	}

	startPeriod := req.StartPeriod
	if startPeriod == "" {
		startPeriod = DefaultStartPeriod
	}

	var dsA, dsB *core.Dataset
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dsA, err = r.fetch(gCtx, req, keyA, startPeriod)
		return err
	})
	g.Go(func() error {
		var err error
		dsB, err = r.fetch(gCtx, req, keyB, startPeriod)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("slices retrieved", "key_a", keyA, "rows_a", dsA.Data.Len(), "key_b", keyB, "rows_b", dsB.Data.Len())

	result, err := Compare(dsA.Data, dsB.Data, req.Options)
	if err != nil {
		return nil, err
	}
	result.DatasetID = req.DatasetID
	result.KeyA = keyA
	result.KeyB = keyB
	return result, nil
}

func (r *Reconciler) fetch(ctx context.Context, req Request, key, startPeriod string) (*core.Dataset, error) {
	ds, err := r.fetcher.FetchDataset(ctx, core.DataQuery{
		ResourceID:  req.DatasetID,
		Key:         key,
		StartPeriod: startPeriod,
		EndPeriod:   req.EndPeriod,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s/%s: %w", req.DatasetID, key, err)
	}
	return ds, nil
}

func (r *Reconciler) keys(ctx context.Context, req Request) (string, string, error) {
	if !req.Ordered {
		keyA, err := selection.BuildKey(req.SelectionA)
		if err != nil {
			return "", "", fmt.Errorf("selection a: %w", err)
		}
		keyB, err := selection.BuildKey(req.SelectionB)
		if err != nil {
			return "", "", fmt.Errorf("selection b: %w", err)
		}
		return keyA, keyB, nil
	}

	msg, err := r.fetcher.FetchStructure(ctx, req.DatasetID)
	if err != nil {
		return "", "", fmt.Errorf("fetch structure %s: %w", req.DatasetID, err)
	}
	dsd, err := msg.DataStructure()
	if err != nil {
		return "", "", err
	}
	dims := structure.ExtractDimensions(dsd)
	skip := structure.TimeDimensions(dsd)

	keyA, err := selection.BuildOrderedKey(dims, req.SelectionA, skip...)
	if err != nil {
		return "", "", fmt.Errorf("selection a: %w", err)
	}
	keyB, err := selection.BuildOrderedKey(dims, req.SelectionB, skip...)
	if err != nil {
		return "", "", fmt.Errorf("selection b: %w", err)
	}
	return keyA, keyB, nil
}
