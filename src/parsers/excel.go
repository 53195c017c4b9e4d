package parsers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ExcelDecoder decodes OOXML spreadsheets (.xlsx) into raw rows. Only the
// first sheet is read; broker holding exports are single-sheet.
type ExcelDecoder struct{}

func (d *ExcelDecoder) Decode(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrDecodeFailure)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	return rows, nil
}
