package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a Document as field/value pairs, a blank line, then the table.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the document.
func (e *CSVExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Fields) == 0 && len(doc.Table.Headers) == 0 {
		return nil, fmt.Errorf("csv requires fields or a table")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	for _, field := range doc.Fields {
		if err := writer.Write([]string{field.Label, field.Value}); err != nil {
			return nil, fmt.Errorf("write csv field: %w", err)
		}
	}
	if len(doc.Table.Headers) > 0 {
		if len(doc.Fields) > 0 {
			if err := writer.Write([]string{""}); err != nil {
				return nil, fmt.Errorf("write csv separator: %w", err)
			}
		}
		if err := writer.Write(doc.Table.Headers); err != nil {
			return nil, fmt.Errorf("write csv headers: %w", err)
		}
		for _, row := range doc.Table.Rows {
			record := make([]string, len(doc.Table.Headers))
			copy(record, row)
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
