package export

import (
	"fmt"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	writerfile "github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// writeParquet writes the rows as a single Parquet file. Numeric columns are
// OPTIONAL DOUBLE, the rest OPTIONAL UTF8 strings. Column names are reduced
// to [A-Za-z0-9_].
func writeParquet(w io.Writer, rows Rows) error {
	names := parquetNames(rows.Header)
	pfw := writerfile.NewWriterFile(w)
	pw, err := writer.NewJSONWriter(buildParquetSchema(rows, names), pfw, 4)
	if err != nil {
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, cells := range rows.Cells {
		obj := make(map[string]any, len(names))
		for j, col := range rows.Header {
			var v string
			if j < len(cells) {
				v = cells[j]
			}
			obj[names[j]] = rows.value(col, v)
		}
		line, err := json.Marshal(obj)
		if err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("parquet row %d: %w", i, err)
		}
		if err := pw.Write(string(line)); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("parquet row %d: %w", i, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("parquet footer: %w", err)
	}
	return pfw.Close()
}

func buildParquetSchema(rows Rows, names []string) string {
	fields := make([]map[string]string, 0, len(names))
	for i, col := range rows.Header {
		tag := fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", names[i])
		if rows.Numeric[col] {
			tag = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", names[i])
		}
		fields = append(fields, map[string]string{"Tag": tag})
	}
	out := map[string]any{
		"Tag":    "name=parquet_go_root, repetitiontype=REQUIRED",
		"Fields": fields,
	}
	b, _ := json.Marshal(out)
	return string(b)
}

// parquetNames sanitizes column names, suffixing duplicates.
func parquetNames(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
				return r
			default:
				return '_'
			}
		}, h)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n)
		} else {
			seen[name] = 1
		}
		out[i] = name
	}
	return out
}
