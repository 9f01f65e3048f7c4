package readers

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX loads every row of the first sheet of an XLSX workbook.
func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	return f.GetRows(sheets[0])
}
