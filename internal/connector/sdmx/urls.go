package sdmx

import (
	"net/url"
	"strconv"

	"github.com/nucleus/sdmx-core/internal/core"
)

const (
	// FormatCSV requests SDMX-CSV data.
	FormatCSV = "SDMX-CSV"

	acceptStructure = "application/vnd.sdmx.structure+xml;version=2.1, application/xml;q=0.9"
	acceptCSV       = "application/vnd.sdmx.data+csv;version=1.0.0, text/csv;q=0.9"

	allKey = "all"
)

// StructurePath is the dataflow query returning the flow with its DSD,
// concept schemes and codelists.
func StructurePath(agencyID, resourceID, version string) (string, url.Values) {
	return "/dataflow/" + url.PathEscape(agencyID) + "/" + url.PathEscape(resourceID) + "/" + url.PathEscape(version),
		url.Values{
			"references": {"descendants"},
			"detail":     {"full"},
		}
}

// DataflowsPath lists every dataflow of an agency as stubs.
func DataflowsPath(agencyID string) (string, url.Values) {
	return "/dataflow/" + url.PathEscape(agencyID) + "/all/latest", url.Values{"detail": {"allstubs"}}
}

// DataPath is the data query for one selection. An empty key selects all
// series and optional bounds are omitted.
func DataPath(q core.DataQuery) (string, url.Values) {
	key := q.Key
	if key == "" {
		key = allKey
	}
	query := url.Values{"format": {FormatCSV}}
	if q.StartPeriod != "" {
		query.Set("startPeriod", q.StartPeriod)
	}
	if q.EndPeriod != "" {
		query.Set("endPeriod", q.EndPeriod)
	}
	if q.LastNObservations > 0 {
		query.Set("lastNObservations", strconv.Itoa(q.LastNObservations))
	}
	// PathEscape keeps "+" and "." literal, as key syntax requires.
	return "/data/" + url.PathEscape(q.ResourceID) + "/" + url.PathEscape(key), query
}
