// Package reconcile checks two overlapping aggregations of one dataset against
// each other and reports the groups whose totals disagree beyond a tolerance.
package reconcile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/nucleus/sdmx-core/internal/core"
)

const (
	// DefaultGroupBy is the column aggregates are summed over.
	DefaultGroupBy = "TIME_PERIOD"
	// DefaultValueColumn holds the observation values.
	DefaultValueColumn = "OBS_VALUE"
	// DefaultThreshold is the absolute tolerance.
	DefaultThreshold = 5.0
	// DefaultStartPeriod bounds retrieval from below.
	DefaultStartPeriod = "2000"

	ratioScale = 1e4
)

// RatioPolicy decides what happens when the ratio denominator is zero.
type RatioPolicy int

const (
	// RatioNull reports an undefined ratio as null.
	RatioNull RatioPolicy = iota
	// RatioFail aborts the comparison with E_UNDEFINED_RATIO.
	RatioFail
)

func (p RatioPolicy) String() string {
	switch p {
	case RatioNull:
		return "null"
	case RatioFail:
		return "fail"
	default:
		return fmt.Sprintf("Unknown(%d)", int(p))
	}
}

// Options controls a comparison.
type Options struct {
	GroupBy      string
	PeriodColumn string
	ValueColumn  string
	Threshold    float64

	// Inclusive flags imbalance >= threshold instead of imbalance > threshold.
	Inclusive   bool
	RatioPolicy RatioPolicy
}

// DefaultOptions returns the standard comparison settings.
func DefaultOptions() Options {
	return Options{
		GroupBy:      DefaultGroupBy,
		PeriodColumn: DefaultGroupBy,
		ValueColumn:  DefaultValueColumn,
		Threshold:    DefaultThreshold,
	}
}

// withDefaults fills column names left empty. Threshold is kept as given.
func (o Options) withDefaults() Options {
	if o.GroupBy == "" {
		o.GroupBy = DefaultGroupBy
	}
	if o.PeriodColumn == "" {
		o.PeriodColumn = DefaultGroupBy
	}
	if o.ValueColumn == "" {
		o.ValueColumn = DefaultValueColumn
	}
	return o
}

func (o Options) flagged(imbalance float64) bool {
	if o.Inclusive {
		return imbalance >= o.Threshold
	}
	return imbalance > o.Threshold
}

// =============================================================================
// RESULT
// =============================================================================

// Discrepancy is one aligned group whose aggregates disagree.
type Discrepancy struct {
	Key       string  `json:"key"`
	ValueA    float64 `json:"value_a"`
	ValueB    float64 `json:"value_b"`
	Imbalance float64 `json:"imbalance"`

	// ImbalanceRatio is nil when ValueA is zero.
	ImbalanceRatio *float64 `json:"imbalance_ratio"`
}

// RatioDefined reports whether the ratio could be computed.
func (d Discrepancy) RatioDefined() bool {
	return d.ImbalanceRatio != nil
}

// Result is the outcome of a reconciliation.
type Result struct {
	RunID     string  `json:"run_id,omitempty"`
	DatasetID string  `json:"dataset_id,omitempty"`
	KeyA      string  `json:"key_a,omitempty"`
	KeyB      string  `json:"key_b,omitempty"`
	GroupBy   string  `json:"group_by"`
	Threshold float64 `json:"threshold"`
	Inclusive bool    `json:"inclusive"`

	// Aligned counts group keys present on both sides.
	Aligned       int           `json:"aligned"`
	Discrepancies []Discrepancy `json:"discrepancies"`
	OnlyInA       []string      `json:"only_in_a"`
	OnlyInB       []string      `json:"only_in_b"`
}

// HasDiscrepancies reports whether any group was flagged.
func (r *Result) HasDiscrepancies() bool {
	return r != nil && len(r.Discrepancies) > 0
}

// =============================================================================
// COMPARISON
// =============================================================================

// Compare sums the value column of each table per distinct group key, aligns
// the two aggregates on shared keys and flags groups whose absolute imbalance
// exceeds the threshold. Keys present on one side only are listed, never
// flagged.
func Compare(a, b *core.Table, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	aggA, err := aggregate(a, opts)
	if err != nil {
		return nil, fmt.Errorf("side a: %w", err)
	}
	aggB, err := aggregate(b, opts)
	if err != nil {
		return nil, fmt.Errorf("side b: %w", err)
	}

	result := &Result{
		GroupBy:       opts.GroupBy,
		Threshold:     opts.Threshold,
		Inclusive:     opts.Inclusive,
		Discrepancies: []Discrepancy{},
		OnlyInA:       []string{},
		OnlyInB:       []string{},
	}

	for _, key := range aggA.keys {
		va := aggA.sums[key]
		vb, ok := aggB.sums[key]
		if !ok {
			result.OnlyInA = append(result.OnlyInA, key)
			continue
		}
		result.Aligned++

		imbalance := math.Abs(va - vb)
		if !opts.flagged(imbalance) {
			continue
		}
		d := Discrepancy{Key: key, ValueA: va, ValueB: vb, Imbalance: imbalance}
		if va == 0 {
			if opts.RatioPolicy == RatioFail {
				return nil, core.NewError(core.CodeUndefinedRatio, "group %q: aggregate a is zero", key)
			}
		} else {
			ratio := math.RoundToEven(imbalance/va*ratioScale) / ratioScale
			d.ImbalanceRatio = &ratio
		}
		result.Discrepancies = append(result.Discrepancies, d)
	}
	for _, key := range aggB.keys {
		if _, ok := aggA.sums[key]; !ok {
			result.OnlyInB = append(result.OnlyInB, key)
		}
	}
	return result, nil
}

type aggregation struct {
	keys []string
	sums map[string]float64
}

func aggregate(t *core.Table, opts Options) (*aggregation, error) {
	for _, col := range []string{opts.GroupBy, opts.ValueColumn} {
		if !t.HasColumn(col) {
			return nil, core.NewError(core.CodeColumnNotFound, "column %q not found", col)
		}
	}
	coercePeriod := t.HasColumn(opts.PeriodColumn)
	numericKeys := opts.GroupBy == opts.PeriodColumn

	agg := &aggregation{sums: make(map[string]float64)}
	for i := 0; i < t.Len(); i++ {
		if coercePeriod {
			raw := t.Value(i, opts.PeriodColumn)
			if _, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil {
				return nil, &core.CoercionError{Column: opts.PeriodColumn, Row: i, Value: raw, Err: err}
			}
		}

		key := t.Value(i, opts.GroupBy)
		if numericKeys {
			period, _ := strconv.Atoi(strings.TrimSpace(key))
			key = strconv.Itoa(period)
		}
		if _, seen := agg.sums[key]; !seen {
			agg.keys = append(agg.keys, key)
			agg.sums[key] = 0
		}

		raw := strings.TrimSpace(t.Value(i, opts.ValueColumn))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &core.CoercionError{Column: opts.ValueColumn, Row: i, Value: raw, Err: err}
		}
		if math.IsNaN(v) {
			continue
		}
		agg.sums[key] += v
	}

	if numericKeys {
		sort.Slice(agg.keys, func(i, j int) bool {
			x, _ := strconv.Atoi(agg.keys[i])
			y, _ := strconv.Atoi(agg.keys[j])
			return x < y
		})
	} else {
		sort.Strings(agg.keys)
	}
	return agg, nil
}
