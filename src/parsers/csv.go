package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVDecoder decodes delimited text files (.csv, .txt) into raw rows.
type CSVDecoder struct{}

func (d *CSVDecoder) Decode(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // broker exports have ragged preamble rows

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return records, nil
}
