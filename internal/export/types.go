// Package export serializes an impact matrix into a downloadable file: an
// editable XLSX workbook or a printable PDF report.
package export

import (
	"errors"
)

// Format represents the export output format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

const (
	MimeTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeTypePDF  = "application/pdf"
)

// ParseFormat accepts "xlsx" or "pdf"; an empty value means xlsx.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// Request contains parameters for an export operation
type Request struct {
	MatrixID             string
	Format               Format
	IncludeFilterPresets bool
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
	// ErrUnsupportedFormat indicates the requested format is not one of Format*.
	ErrUnsupportedFormat = errors.New("unsupported export format")
)
