// Package data loads externalized test rows. Suites iterate rows from
// JSON documents or Excel workbooks without touching the parsers.
package data

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/xuri/excelize/v2"
)

// Row is one data record keyed by column name. Values are strings the
// way they arrive from the source; callers convert as needed.
type Row map[string]string

// Get returns the named column, or fallback when the row lacks it.
func (r Row) Get(name, fallback string) string {
	if v, ok := r[name]; ok {
		return v
	}
	return fallback
}

// JSONRows parses rows from a JSON array of flat objects. Nested
// values are carried as their raw JSON representation.
func JSONRows(doc []byte) ([]Row, error) {
	parsed := gjson.ParseBytes(doc)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("data document is not a JSON array")
	}

	var rows []Row
	for i, item := range parsed.Array() {
		if !item.IsObject() {
			return nil, fmt.Errorf("data row %d is not a JSON object", i)
		}
		row := Row{}
		item.ForEach(func(key, value gjson.Result) bool {
			row[key.String()] = value.String()
			return true
		})
		rows = append(rows, row)
	}
	return rows, nil
}

// JSONFile reads rows from a JSON file on disk.
func JSONFile(path string) ([]Row, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	rows, err := JSONRows(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// ExcelRows reads rows from one sheet of an Excel workbook. The first
// sheet row supplies the column names; short rows leave trailing
// columns unset.
func ExcelRows(path, sheet string) ([]Row, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer book.Close()

	cells, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet %q has no header row", sheet)
	}

	header := cells[0]
	var rows []Row
	for _, record := range cells[1:] {
		row := Row{}
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
