package reconcile_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/reconcile"
	"github.com/nucleus/sdmx-core/internal/selection"
)

func table(rows ...[2]string) *core.Table {
	out := make([]core.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.Row{"TIME_PERIOD": r[0], "OBS_VALUE": r[1]})
	}
	return core.NewTable([]string{"TIME_PERIOD", "OBS_VALUE"}, out)
}

// =============================================================================
// COMPARE TESTS
// =============================================================================

func TestCompare_ThresholdIsStrict(t *testing.T) {
	a := table([2]string{"2020", "100"}, [2]string{"2021", "100"})
	b := table([2]string{"2020", "95"}, [2]string{"2021", "94"})

	res, err := reconcile.Compare(a, b, reconcile.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Aligned)
	require.Len(t, res.Discrepancies, 1)
	d := res.Discrepancies[0]
	assert.Equal(t, "2021", d.Key)
	assert.Equal(t, 100.0, d.ValueA)
	assert.Equal(t, 94.0, d.ValueB)
	assert.Equal(t, 6.0, d.Imbalance)
	require.True(t, d.RatioDefined())
	assert.Equal(t, 0.06, *d.ImbalanceRatio)
}

func TestCompare_Inclusive(t *testing.T) {
	a := table([2]string{"2020", "100"})
	b := table([2]string{"2020", "95"})

	opts := reconcile.DefaultOptions()
	opts.Inclusive = true
	res, err := reconcile.Compare(a, b, opts)
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, 0.05, *res.Discrepancies[0].ImbalanceRatio)
}

func TestCompare_ThresholdExtremes(t *testing.T) {
	a := table([2]string{"2019", "10"}, [2]string{"2020", "10"}, [2]string{"2021", "10.5"})
	b := table([2]string{"2019", "10"}, [2]string{"2020", "10.000001"}, [2]string{"2021", "3"})

	tests := []struct {
		name      string
		threshold float64
		wantKeys  []string
	}{
		{"zero flags every difference", 0, []string{"2020", "2021"}},
		{"infinity flags nothing", math.Inf(1), nil},
		{"default", reconcile.DefaultThreshold, []string{"2021"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := reconcile.DefaultOptions()
			opts.Threshold = tt.threshold
			res, err := reconcile.Compare(a, b, opts)
			require.NoError(t, err)

			var keys []string
			for _, d := range res.Discrepancies {
				keys = append(keys, d.Key)
			}
			assert.Equal(t, tt.wantKeys, keys)
		})
	}
}

func TestCompare_SumsPerGroup(t *testing.T) {
	a := table([2]string{"2020", "60"}, [2]string{"2020", "40"}, [2]string{"2020", ""})
	b := table([2]string{"2020", "50"}, [2]string{"2020", "30"})

	res, err := reconcile.Compare(a, b, reconcile.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, 100.0, res.Discrepancies[0].ValueA)
	assert.Equal(t, 80.0, res.Discrepancies[0].ValueB)
	assert.Equal(t, 0.2, *res.Discrepancies[0].ImbalanceRatio)
}

func TestCompare_OneSidedKeysExcluded(t *testing.T) {
	a := table([2]string{"2019", "1"}, [2]string{"2020", "100"})
	b := table([2]string{"2020", "50"}, [2]string{"2022", "7"})

	res, err := reconcile.Compare(a, b, reconcile.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Aligned)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, "2020", res.Discrepancies[0].Key)
	assert.Equal(t, []string{"2019"}, res.OnlyInA)
	assert.Equal(t, []string{"2022"}, res.OnlyInB)
}

func TestCompare_NumericPeriodOrder(t *testing.T) {
	a := table([2]string{"2010", "100"}, [2]string{"999", "100"})
	b := table([2]string{"2010", "0"}, [2]string{"999", "0"})

	res, err := reconcile.Compare(a, b, reconcile.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 2)
	assert.Equal(t, "999", res.Discrepancies[0].Key)
	assert.Equal(t, "2010", res.Discrepancies[1].Key)
}

func TestCompare_GroupByOtherColumn(t *testing.T) {
	cols := []string{"geo", "TIME_PERIOD", "OBS_VALUE"}
	a := core.NewTable(cols, []core.Row{
		{"geo": "FR", "TIME_PERIOD": "2020", "OBS_VALUE": "10"},
		{"geo": "DE", "TIME_PERIOD": "2020", "OBS_VALUE": "20"},
		{"geo": "DE", "TIME_PERIOD": "2021", "OBS_VALUE": "10"},
	})
	b := core.NewTable(cols, []core.Row{
		{"geo": "DE", "TIME_PERIOD": "2020", "OBS_VALUE": "30"},
		{"geo": "FR", "TIME_PERIOD": "2020", "OBS_VALUE": "30"},
	})

	opts := reconcile.DefaultOptions()
	opts.GroupBy = "geo"
	res, err := reconcile.Compare(a, b, opts)
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, "FR", res.Discrepancies[0].Key)
	assert.Equal(t, "geo", res.GroupBy)
}

func TestCompare_UndefinedRatio(t *testing.T) {
	a := table([2]string{"2020", "0"})
	b := table([2]string{"2020", "10"})

	res, err := reconcile.Compare(a, b, reconcile.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Discrepancies, 1)
	assert.False(t, res.Discrepancies[0].RatioDefined())
	assert.Nil(t, res.Discrepancies[0].ImbalanceRatio)

	opts := reconcile.DefaultOptions()
	opts.RatioPolicy = reconcile.RatioFail
	_, err = reconcile.Compare(a, b, opts)
	assert.ErrorIs(t, err, core.ErrUndefinedRatio)
}

func TestCompare_CoercionFailure(t *testing.T) {
	tests := []struct {
		name   string
		a      *core.Table
		column string
	}{
		{"value", table([2]string{"2020", "n/a"}), "OBS_VALUE"},
		{"period", table([2]string{"2020-Q1", "1"}), "TIME_PERIOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reconcile.Compare(tt.a, table([2]string{"2020", "1"}), reconcile.DefaultOptions())
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrTypeCoercion)

			var ce *core.CoercionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.column, ce.Column)
		})
	}
}

func TestCompare_MissingColumn(t *testing.T) {
	a := core.NewTable([]string{"TIME_PERIOD"}, []core.Row{{"TIME_PERIOD": "2020"}})
	_, err := reconcile.Compare(a, table(), reconcile.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrColumnNotFound)
}

// =============================================================================
// RECONCILER TESTS
// =============================================================================

type fakeFetcher struct {
	mu      sync.Mutex
	tables  map[string]*core.Table
	msg     *core.StructureMessage
	err     error
	queries []core.DataQuery
}

func (f *fakeFetcher) FetchStructure(ctx context.Context, resourceID string) (*core.StructureMessage, error) {
	return f.msg, nil
}

func (f *fakeFetcher) FetchDataset(ctx context.Context, q core.DataQuery) (*core.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return &core.Dataset{Data: f.tables[q.Key]}, nil
}

func TestReconciler_Reconcile(t *testing.T) {
	fetcher := &fakeFetcher{tables: map[string]*core.Table{
		"A.EU27_2020": table([2]string{"2020", "100"}, [2]string{"2021", "100"}),
		"A.DE+FR":     table([2]string{"2020", "60"}, [2]string{"2020", "35"}, [2]string{"2021", "50"}),
	}}
	before := testutil.ToFloat64(reconcile.RunsTotal.WithLabelValues("discrepancy"))

	r := reconcile.New(fetcher, nil)
	res, err := r.Reconcile(context.Background(), reconcile.Request{
		DatasetID:  "nama_10_gdp",
		SelectionA: selection.New().Add("freq", "A").Add("geo", "EU27_2020"),
		SelectionB: selection.New().Add("freq", "A").Add("geo", "DE", "FR"),
		Options:    reconcile.DefaultOptions(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "A.EU27_2020", res.KeyA)
	assert.Equal(t, "A.DE+FR", res.KeyB)
	require.Len(t, res.Discrepancies, 1)
	assert.Equal(t, "2021", res.Discrepancies[0].Key)
	assert.Equal(t, 0.5, *res.Discrepancies[0].ImbalanceRatio)

	require.Len(t, fetcher.queries, 2)
	for _, q := range fetcher.queries {
		assert.Equal(t, "2000", q.StartPeriod)
		assert.Equal(t, "nama_10_gdp", q.ResourceID)
	}
	assert.Equal(t, before+1, testutil.ToFloat64(reconcile.RunsTotal.WithLabelValues("discrepancy")))
}

func TestReconciler_OrderedKeys(t *testing.T) {
	dsd := &core.DataStructure{ID: "DSD", Components: []*core.Component{
		{ID: "freq", Role: core.RoleDimension},
		{ID: "unit", Role: core.RoleDimension},
		{ID: "geo", Role: core.RoleDimension},
		{ID: "TIME_PERIOD", Role: core.RoleDimension, TimeDimension: true},
	}}
	fetcher := &fakeFetcher{
		msg: &core.StructureMessage{DataStructures: []*core.DataStructure{dsd}},
		tables: map[string]*core.Table{
			"A..EU27_2020": table([2]string{"2020", "1"}),
			"A..DE":        table([2]string{"2020", "1"}),
		},
	}

	res, err := reconcile.New(fetcher, nil).Reconcile(context.Background(), reconcile.Request{
		DatasetID:   "nama_10_gdp",
		SelectionA:  selection.New().Add("geo", "EU27_2020").Add("freq", "A"),
		SelectionB:  selection.New().Add("geo", "DE").Add("freq", "A"),
		StartPeriod: "2015",
		Ordered:     true,
		Options:     reconcile.DefaultOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, "A..EU27_2020", res.KeyA)
	assert.Equal(t, "A..DE", res.KeyB)
	assert.False(t, res.HasDiscrepancies())
	assert.Equal(t, "2015", fetcher.queries[0].StartPeriod)
}

func TestReconciler_DegenerateSelectionFailsBeforeFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	_, err := reconcile.New(fetcher, nil).Reconcile(context.Background(), reconcile.Request{
		DatasetID:  "nama_10_gdp",
		SelectionA: selection.New().Set("geo", selection.Codes()),
		SelectionB: selection.New().Add("geo", "DE"),
	})
	assert.ErrorIs(t, err, core.ErrDegenerateSelection)
	assert.Empty(t, fetcher.queries)
}

func TestReconciler_FetchErrorPassesThrough(t *testing.T) {
	boom := errors.New("503 from upstream")
	fetcher := &fakeFetcher{err: boom}

	_, err := reconcile.New(fetcher, nil).Reconcile(context.Background(), reconcile.Request{
		DatasetID:  "nama_10_gdp",
		SelectionA: selection.New().Add("geo", "EU27_2020"),
		SelectionB: selection.New().Add("geo", "DE"),
	})
	assert.ErrorIs(t, err, boom)
}
