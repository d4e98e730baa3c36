package menu

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoProducts means column 0 of the uploaded menu held no usable names.
var ErrNoProducts = errors.New("the uploaded file has no product names in its first column")

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format, upload an .xlsx or .csv file")

// ErrUnreadableFile wraps parse failures of a supported file type.
var ErrUnreadableFile = errors.New("the uploaded file could not be read")

// Cell is a first-column value. Text is false for numbers, booleans, dates
// and errors.
type Cell struct {
	Value string
	Text  bool
}

// ReadFirstColumn returns column 0 of every row of the first sheet of an
// .xlsx file, or of a .csv file, in row order.
func ReadFirstColumn(fileName string, r io.Reader) ([]Cell, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		return readXLSX(r)
	case ".csv":
		return readCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func readXLSX(r io.Reader) ([]Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open spreadsheet: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read spreadsheet rows: %v", ErrUnreadableFile, err)
	}

	cells := make([]Cell, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			cells = append(cells, Cell{})
			continue
		}
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		cellType, err := f.GetCellType(sheet, axis)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read cell %s: %v", ErrUnreadableFile, axis, err)
		}
		cells = append(cells, Cell{Value: row[0], Text: isTextCell(cellType)})
	}
	return cells, nil
}

// isTextCell: cells without a type attribute are numbers in OOXML.
func isTextCell(t excelize.CellType) bool {
	switch t {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}

func readCSV(r io.Reader) ([]Cell, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse CSV: %v", ErrUnreadableFile, err)
	}

	cells := make([]Cell, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			cells = append(cells, Cell{})
			continue
		}
		_, numErr := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		cells = append(cells, Cell{Value: row[0], Text: numErr != nil})
	}
	return cells, nil
}

// ProductNames keeps the text cells that are non-empty after trimming and
// preserves their order. Duplicates are kept.
func ProductNames(cells []Cell) []string {
	products := make([]string, 0, len(cells))
	for _, c := range cells {
		if !c.Text {
			continue
		}
		name := strings.TrimSpace(c.Value)
		if name == "" {
			continue
		}
		products = append(products, name)
	}
	return products
}

// ExtractProducts reads an uploaded menu and returns its product names.
// An empty list is an error so callers never submit it.
func ExtractProducts(fileName string, data []byte) ([]string, error) {
	cells, err := ReadFirstColumn(fileName, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	products := ProductNames(cells)
	if len(products) == 0 {
		return nil, ErrNoProducts
	}

	log.Printf("📄 [menu] %s: %d rows, %d products", fileName, len(cells), len(products))
	return products, nil
}
