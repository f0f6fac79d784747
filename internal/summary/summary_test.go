package summary_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/selection"
	"github.com/nucleus/sdmx-core/internal/summary"
)

func geoDSD() *core.DataStructure {
	geo := &core.Codelist{ID: "GEO", Codes: []core.Code{{ID: "DE", Name: "Germany"}, {ID: "FR", Name: "France"}}}
	return &core.DataStructure{
		ID: "DSD_GEO", Name: "Geo structure",
		Components: []*core.Component{
			{ID: "GEO", Name: "Geopolitical entity", Role: core.RoleDimension, Enumeration: geo},
			{ID: "TIME_PERIOD", Role: core.RoleDimension, TimeDimension: true},
			{ID: "OBS_VALUE", Role: core.RoleMeasure},
		},
	}
}

func geoDataset(rows ...core.Row) *core.Dataset {
	df := &core.Dataflow{ID: "demo_flow", Name: "Demo", Structure: geoDSD()}
	return &core.Dataset{
		Structure: core.FlowRef(df),
		Data:      core.NewTable([]string{"GEO", "TIME_PERIOD", "OBS_VALUE"}, rows),
	}
}

// =============================================================================
// PURE SUMMARY TESTS
// =============================================================================

func TestSummarizeDataset_ObservedOnly(t *testing.T) {
	ds := geoDataset(
		core.Row{"GEO": "DE", "TIME_PERIOD": "2020", "OBS_VALUE": "1"},
		core.Row{"GEO": "DE", "TIME_PERIOD": "2021", "OBS_VALUE": "2"},
	)

	s, err := summary.SummarizeDataset(ds, summary.DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, "Dataflow", s.StructureType)
	assert.Equal(t, "demo_flow", s.StructureID)

	require.Len(t, s.Observed, 1)
	geo := s.Observed[0]
	assert.Equal(t, "GEO", geo.ID)
	assert.Equal(t, map[string]string{"DE": "Germany"}, geo.Names())

	// The full catalog still lists both codes.
	assert.Len(t, s.Dimensions["GEO"].Enumeration, 2)
}

func TestSummarizeDataset_FirstSeenOrder(t *testing.T) {
	ds := geoDataset(
		core.Row{"GEO": "FR", "TIME_PERIOD": "2020"},
		core.Row{"GEO": "DE", "TIME_PERIOD": "2020"},
		core.Row{"GEO": "FR", "TIME_PERIOD": "2021"},
	)

	s, err := summary.SummarizeDataset(ds, summary.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, s.Observed[0].Enumeration, 2)
	assert.Equal(t, "FR", s.Observed[0].Enumeration[0].ID)
	assert.Equal(t, "DE", s.Observed[0].Enumeration[1].ID)
}

func TestSummarizeDataset_ExcludeIsConfigurable(t *testing.T) {
	ds := geoDataset(core.Row{"GEO": "DE", "TIME_PERIOD": "2020"})

	s, err := summary.SummarizeDataset(ds, summary.Options{Exclude: []string{"GEO"}})
	require.NoError(t, err)
	require.Len(t, s.Observed, 1)

	// Free-valued dimensions report codes with empty names.
	period := s.Observed[0]
	assert.Equal(t, "TIME_PERIOD", period.ID)
	assert.Equal(t, []core.Code{{ID: "2020"}}, period.Enumeration)
}

func TestSummarizeDataset_UnknownCode(t *testing.T) {
	ds := geoDataset(
		core.Row{"GEO": "DE", "TIME_PERIOD": "2020"},
		core.Row{"GEO": "XX", "TIME_PERIOD": "2020"},
	)

	_, err := summary.SummarizeDataset(ds, summary.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrLookupFailure)

	var lookup *core.LookupError
	require.True(t, errors.As(err, &lookup))
	assert.Equal(t, "GEO", lookup.Dimension)
	assert.Equal(t, "XX", lookup.Code)

	opts := summary.DefaultOptions()
	opts.SkipUnknownCodes = true
	s, err := summary.SummarizeDataset(ds, opts)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"DE": "Germany"}, s.Observed[0].Names())
}

func TestSummarizeDataset_NoStructure(t *testing.T) {
	ds := &core.Dataset{Structure: core.FlowRef(&core.Dataflow{ID: "x"}), Data: core.NewTable(nil, nil)}
	_, err := summary.SummarizeDataset(ds, summary.DefaultOptions())
	assert.ErrorIs(t, err, core.ErrNoStructure)
}

func TestSummarizeMetadata(t *testing.T) {
	msg := &core.StructureMessage{
		Dataflows:      []*core.Dataflow{{ID: "demo_flow", Name: "Demo"}},
		DataStructures: []*core.DataStructure{geoDSD()},
	}

	s, err := summary.SummarizeMetadata(msg)
	require.NoError(t, err)
	assert.Equal(t, "demo_flow", s.DataflowID)
	assert.Equal(t, "Demo", s.DataflowName)
	assert.Equal(t, "DSD_GEO", s.DSDID)
	assert.Equal(t, "Germany", s.Dimensions["GEO"].Enumeration["DE"])
	assert.Empty(t, s.Dimensions["TIME_PERIOD"].Enumeration)
}

// =============================================================================
// SERVICE TESTS
// =============================================================================

type fakeFetcher struct {
	msg     *core.StructureMessage
	dataset *core.Dataset
	err     error
	queries []core.DataQuery
}

func (f *fakeFetcher) FetchStructure(ctx context.Context, resourceID string) (*core.StructureMessage, error) {
	return f.msg, f.err
}

func (f *fakeFetcher) FetchDataset(ctx context.Context, q core.DataQuery) (*core.Dataset, error) {
	f.queries = append(f.queries, q)
	return f.dataset, f.err
}

func TestService_DatasetUsesLastObservation(t *testing.T) {
	fetcher := &fakeFetcher{dataset: geoDataset(core.Row{"GEO": "FR", "TIME_PERIOD": "2023"})}
	svc := summary.NewService(fetcher, summary.DefaultOptions(), nil)

	s, err := svc.Dataset(context.Background(), "demo_flow")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FR": "France"}, s.Observed[0].Names())

	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, "demo_flow", fetcher.queries[0].ResourceID)
	assert.Equal(t, 1, fetcher.queries[0].LastNObservations)
	assert.Empty(t, fetcher.queries[0].Key)
}

func TestService_Dimensions(t *testing.T) {
	fetcher := &fakeFetcher{msg: &core.StructureMessage{DataStructures: []*core.DataStructure{geoDSD()}}}
	svc := summary.NewService(fetcher, summary.DefaultOptions(), nil)

	dims, err := svc.Dimensions(context.Background(), "demo_flow")
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "GEO", 2: "TIME_PERIOD"}, dims)
}

func TestService_FetchErrorPassesThrough(t *testing.T) {
	boom := errors.New("upstream down")
	svc := summary.NewService(&fakeFetcher{err: boom}, summary.DefaultOptions(), nil)

	_, err := svc.Metadata(context.Background(), "demo_flow")
	assert.ErrorIs(t, err, boom)
}

func TestService_KeyOrdered(t *testing.T) {
	fetcher := &fakeFetcher{msg: &core.StructureMessage{DataStructures: []*core.DataStructure{geoDSD()}}}
	svc := summary.NewService(fetcher, summary.DefaultOptions(), nil)

	key, err := svc.Key(context.Background(), "demo_flow", selection.New().Add("GEO", "DE", "FR"), true)
	require.NoError(t, err)
	assert.Equal(t, "DE+FR", key)

	key, err = svc.Key(context.Background(), "demo_flow", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "", key, "unselected positions become wildcards")

	_, err = svc.Key(context.Background(), "demo_flow", selection.New().Add("TIME_PERIOD", "2020"), true)
	assert.Equal(t, core.CodeUnknownComponent, core.CodeOf(err))
}

func TestService_KeyUnorderedSkipsRetrieval(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("must not be called")}
	svc := summary.NewService(fetcher, summary.DefaultOptions(), nil)

	key, err := svc.Key(context.Background(), "demo_flow", selection.New().Add("A", "x").Add("B", "y", "z"), false)
	require.NoError(t, err)
	assert.Equal(t, "x.y+z", key)
}

func TestService_DataWithLabels(t *testing.T) {
	fetcher := &fakeFetcher{dataset: geoDataset(
		core.Row{"GEO": "DE", "TIME_PERIOD": "2022", "OBS_VALUE": "1"},
		core.Row{"GEO": "XX", "TIME_PERIOD": "2022", "OBS_VALUE": "2"},
	)}
	svc := summary.NewService(fetcher, summary.DefaultOptions(), nil)

	ds, key, err := svc.Data(context.Background(), summary.DataRequest{
		DatasetID:   "demo_flow",
		Selection:   selection.New().Add("GEO", "DE", "XX"),
		StartPeriod: "2020",
		LastN:       2,
		Labels:      []string{"GEO"},
	})
	require.NoError(t, err)
	assert.Equal(t, "DE+XX", key)
	require.Equal(t, 1, ds.Data.Len(), "unmatched codes are dropped")
	assert.Equal(t, "Germany", ds.Data.Value(0, "GEO_label"))

	require.Len(t, fetcher.queries, 1)
	assert.Equal(t, core.DataQuery{ResourceID: "demo_flow", Key: "DE+XX", StartPeriod: "2020", LastNObservations: 2}, fetcher.queries[0])

	_, _, err = svc.Data(context.Background(), summary.DataRequest{
		DatasetID:    "demo_flow",
		Labels:       []string{"GEO"},
		StrictLabels: true,
	})
	assert.ErrorIs(t, err, core.ErrLookupFailure)
}
