// Package parsers turns raw brokerage holdings files into canonical holding
// records: decode the container format into rows, locate the header row,
// resolve synonym column names onto the canonical schema, coerce numbers.
package parsers

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions outside the
	// configured spreadsheet/delimited set. Terminal; the user must resupply.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrHeaderNotFound is returned when no row of the file matches any
	// header indicator. Terminal; the file is not a recognizable export.
	ErrHeaderNotFound = errors.New("could not detect holdings table header")

	// ErrDecodeFailure is returned when the file bytes are malformed for the
	// claimed format.
	ErrDecodeFailure = errors.New("failed to decode file")
)

// Decoder reads a whole file into an ordered sequence of rows of raw cells.
type Decoder interface {
	Decode(r io.Reader) ([][]string, error)
}

// GetDecoder selects the decoder backend for a file extension (with or
// without the leading dot, any case). Legacy BIFF .xls workbooks are not
// decodable here and are rejected up front.
func GetDecoder(ext string) (Decoder, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "xlsx":
		return &ExcelDecoder{}, nil
	case "csv", "txt":
		return &CSVDecoder{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}
