package sdmx

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nucleus/sdmx-core/internal/core"
)

// DataflowColumn is the SDMX-CSV column naming the structure of each row.
const DataflowColumn = "DATAFLOW"

// FlowID identifies the dataflow an SDMX-CSV file was produced for.
type FlowID struct {
	AgencyID string
	ID       string
	Version  string
}

var flowPattern = regexp.MustCompile(`^(?:([^:]+):)?([^(]+)(?:\(([^)]*)\))?$`)

// ParseFlowID parses "AGENCY:ID(VERSION)" with agency and version optional.
func ParseFlowID(s string) (FlowID, bool) {
	m := flowPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return FlowID{}, false
	}
	return FlowID{AgencyID: m[1], ID: m[2], Version: m[3]}, true
}

// ParseCSV reads an SDMX-CSV document into a table. The DATAFLOW column is
// dropped from the table and returned separately.
func ParseCSV(r io.Reader) (*core.Table, FlowID, error) {
	br := bufio.NewReader(r)
	// Skip a UTF-8 byte order mark.
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return core.NewTable(nil, nil), FlowID{}, nil
	}
	if err != nil {
		return nil, FlowID{}, fmt.Errorf("read csv header: %w", err)
	}

	flowIdx := -1
	names := make([]string, len(header))
	columns := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		names[i] = h
		if h == DataflowColumn {
			flowIdx = i
			continue
		}
		columns = append(columns, h)
	}

	var (
		flow FlowID
		rows []core.Row
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, FlowID{}, fmt.Errorf("read csv row %d: %w", len(rows)+1, err)
		}
		row := make(core.Row, len(columns))
		for i, v := range record {
			if i == flowIdx {
				if flow.ID == "" {
					flow, _ = ParseFlowID(v)
				}
				continue
			}
			if i < len(names) {
				row[names[i]] = v
			}
		}
		rows = append(rows, row)
	}
	return core.NewTable(columns, rows), flow, nil
}
