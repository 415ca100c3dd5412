package data

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const loginRows = `[
	{"username": "standard_user", "password": "secret", "expectFailure": false},
	{"username": "locked_out_user", "password": "secret", "expectFailure": true}
]`

func TestJSONRows(t *testing.T) {
	rows, err := JSONRows([]byte(loginRows))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "standard_user", rows[0]["username"])
	assert.Equal(t, "false", rows[0]["expectFailure"])
	assert.Equal(t, "locked_out_user", rows[1]["username"])
	assert.Equal(t, "true", rows[1]["expectFailure"])
}

func TestJSONRows_NestedValuesKeepRawJSON(t *testing.T) {
	rows, err := JSONRows([]byte(`[{"name": "a", "tags": ["smoke", "login"]}]`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.JSONEq(t, `["smoke", "login"]`, rows[0]["tags"])
}

func TestJSONRows_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"object not array", `{"username": "u"}`},
		{"array of scalars", `["u", "v"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := JSONRows([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "login.json")
	require.NoError(t, os.WriteFile(path, []byte(loginRows), 0o644))

	rows, err := JSONFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestJSONFile_Missing(t *testing.T) {
	_, err := JSONFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestRowGet(t *testing.T) {
	row := Row{"username": "u"}
	assert.Equal(t, "u", row.Get("username", "x"))
	assert.Equal(t, "x", row.Get("missing", "x"))
}

func writeWorkbook(t *testing.T, cells [][]interface{}) string {
	t.Helper()
	book := excelize.NewFile()
	for i, record := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, book.SetSheetRow("Sheet1", cell, &record))
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, book.SaveAs(path))
	require.NoError(t, book.Close())
	return path
}

func TestExcelRows(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"username", "password"},
		{"standard_user", "secret"},
		{"locked_out_user", "secret"},
	})

	rows, err := ExcelRows(path, "Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "standard_user", rows[0]["username"])
	assert.Equal(t, "secret", rows[1]["password"])
}

func TestExcelRows_ShortRecord(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"username", "password"},
		{"only_name"},
	})

	rows, err := ExcelRows(path, "Sheet1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "only_name", rows[0]["username"])
	_, ok := rows[0]["password"]
	assert.False(t, ok)
}

func TestExcelRows_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{{"username"}})
	_, err := ExcelRows(path, "NoSuchSheet")
	assert.Error(t, err)
}

func TestExcelRows_MissingFile(t *testing.T) {
	_, err := ExcelRows(filepath.Join(t.TempDir(), "nope.xlsx"), "Sheet1")
	assert.Error(t, err)
}
