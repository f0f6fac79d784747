package export

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleus/sdmx-core/internal/core"
	"github.com/nucleus/sdmx-core/internal/reconcile"
)

func sampleTable() *core.Table {
	return core.NewTable(
		[]string{"geo", "TIME_PERIOD", "OBS_VALUE", "LAST UPDATE"},
		[]core.Row{
			{"geo": "DE", "TIME_PERIOD": "2022", "OBS_VALUE": "60.5", "LAST UPDATE": "30/09/26"},
			{"geo": "FR", "TIME_PERIOD": "2022", "OBS_VALUE": "", "LAST UPDATE": "30/09/26"},
		},
	)
}

func sampleResult() *reconcile.Result {
	ratio := 0.1
	return &reconcile.Result{
		DatasetID: "nama_10_gdp",
		GroupBy:   "TIME_PERIOD",
		Threshold: 5,
		Aligned:   3,
		Discrepancies: []reconcile.Discrepancy{
			{Key: "2022", ValueA: 100, ValueB: 90, Imbalance: 10, ImbalanceRatio: &ratio},
			{Key: "2023", ValueA: 0, ValueB: 7, Imbalance: 7},
		},
		OnlyInB: []string{"2024"},
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseFormat("xlsx")
	require.Error(t, err)
	assert.True(t, FormatParquet.Binary())
	assert.False(t, FormatCSV.Binary())
}

func TestWriteTable_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, FormatTable, sampleTable(), "OBS_VALUE"))

	out := buf.String()
	assert.Contains(t, out, "TIME_PERIOD")
	assert.Contains(t, out, "60.5")
	assert.Contains(t, out, "FR")
	assert.Equal(t, 0, strings.Count(out, "\x1b["), "no escape codes off a terminal")
}

func TestWriteTable_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, FormatJSON, sampleTable(), "OBS_VALUE"))

	var rows []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 60.5, rows[0]["OBS_VALUE"])
	assert.Equal(t, "2022", rows[0]["TIME_PERIOD"], "non-measure columns stay strings")
	assert.Nil(t, rows[1]["OBS_VALUE"], "missing values are null")
}

func TestWriteTable_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, FormatCSV, sampleTable()))

	assert.Equal(t,
		"geo,TIME_PERIOD,OBS_VALUE,LAST UPDATE\nDE,2022,60.5,30/09/26\nFR,2022,,30/09/26\n",
		buf.String())
}

func TestWriteTable_Parquet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, FormatParquet, sampleTable(), "OBS_VALUE"))

	b := buf.Bytes()
	require.Greater(t, len(b), 8)
	assert.Equal(t, "PAR1", string(b[:4]))
	assert.Equal(t, "PAR1", string(b[len(b)-4:]))

	assert.True(t, bytes.Contains(b, []byte("LAST_UPDATE")), "footer carries sanitized column names")
	assert.True(t, bytes.Contains(b, []byte("OBS_VALUE")))
}

func TestParquetNames(t *testing.T) {
	got := parquetNames([]string{"LAST UPDATE", "geo", "LAST-UPDATE", ""})
	assert.Equal(t, []string{"LAST_UPDATE", "geo", "LAST_UPDATE_1", "col_3"}, got)
}

func TestWriteResult_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatTable, sampleResult()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "nama_10_gdp: 2 of 3 groups with |a-b| > 5\n"))
	assert.Contains(t, out, "only in b: 2024")
	assert.Contains(t, out, "0.1")
}

func TestWriteResult_NoDiscrepancies(t *testing.T) {
	var buf bytes.Buffer
	r := &reconcile.Result{DatasetID: "x", Threshold: 5, Inclusive: true, Aligned: 4}
	require.NoError(t, WriteResult(&buf, FormatTable, r))
	assert.Equal(t, "x: 0 of 4 groups with |a-b| >= 5\n", buf.String())
}

func TestWriteResult_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatJSON, sampleResult()))

	var decoded struct {
		DatasetID     string `json:"dataset_id"`
		Discrepancies []struct {
			Key            string   `json:"key"`
			ImbalanceRatio *float64 `json:"imbalance_ratio"`
		} `json:"discrepancies"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "nama_10_gdp", decoded.DatasetID)
	require.Len(t, decoded.Discrepancies, 2)
	require.NotNil(t, decoded.Discrepancies[0].ImbalanceRatio)
	assert.Nil(t, decoded.Discrepancies[1].ImbalanceRatio)
}

func TestWriteResult_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteResult(&buf, FormatCSV, sampleResult()))
	assert.Equal(t,
		"key,value_a,value_b,imbalance,imbalance_ratio\n2022,100,90,10,0.1\n2023,0,7,7,\n",
		buf.String())
}
