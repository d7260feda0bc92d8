package export

import (
	"fmt"
	"strings"
)

// Dataset is tabular export content. The header order is fixed when the dataset is created
// and every row is a record in that order.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// NewDataset starts an empty dataset with the given column order.
func NewDataset(headers ...string) Dataset {
	return Dataset{Headers: headers}
}

// Append adds one record. It must carry exactly one value per header.
func (d *Dataset) Append(values ...string) error {
	if len(values) != len(d.Headers) {
		return fmt.Errorf("record has %d values for %d columns", len(values), len(d.Headers))
	}
	d.Rows = append(d.Rows, values)
	return nil
}

// Format names a supported export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises user input, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Renderer dispatches datasets to the exporter for a format.
type Renderer struct {
	csv  *CSVExporter
	pdf  *PDFExporter
	xlsx *XLSXExporter
}

// NewRenderer wires all exporters.
func NewRenderer() *Renderer {
	return &Renderer{
		csv:  NewCSVExporter(),
		pdf:  NewPDFExporter(),
		xlsx: NewXLSXExporter("Durations"),
	}
}

// Render encodes data in the requested format. title is used by PDF only.
func (r *Renderer) Render(format Format, data Dataset, title string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return r.csv.Render(data)
	case FormatPDF:
		return r.pdf.Render(data, title)
	case FormatXLSX:
		return r.xlsx.Render(data)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
