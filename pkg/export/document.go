package export

import "fmt"

// Format names an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts csv or pdf, defaulting to pdf when raw is empty.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "":
		return FormatPDF, nil
	case FormatCSV, FormatPDF:
		return Format(raw), nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// Field is a labelled scalar printed above the table.
type Field struct {
	Label string
	Value string
}

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Document is one exportable record: a title, header fields and an optional table.
type Document struct {
	Title  string
	Fields []Field
	Table  Dataset
}

// Renderer encodes a Document.
type Renderer interface {
	Render(doc Document) ([]byte, error)
}

// RendererFor returns the renderer for format.
func RendererFor(format Format) Renderer {
	if format == FormatCSV {
		return NewCSVExporter()
	}
	return NewPDFExporter()
}
