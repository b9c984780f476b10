package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeCatalogFile создает тестовый Excel-файл каталога
func writeCatalogFile(t *testing.T, headers []string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	for rowIdx, row := range rows {
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	require.NoError(t, f.SaveAs(path))
	f.Close()
	return path
}

func TestParseCatalogExcelFile(t *testing.T) {
	path := writeCatalogFile(t,
		[]string{"SKU", "Product Name", "Unit", "Price", "Cost", "Stock", "Category"},
		[][]interface{}{
			{"it-1", "Ice Tube", "bag", 60, 35, 40, "ice"},
			{"ck-1", "Coke Can", "can", 15, 10, 120, "beverage"},
			{"", "", "", "", "", "", ""},
			{"bad-1", "Broken Row", "pc", "not-a-price", 0, 5, "junk"},
		})

	entries, err := ParseCatalogExcelFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2, "empty and invalid rows must be skipped")

	first := entries[0]
	assert.Equal(t, "it-1", first.ID)
	assert.Equal(t, "Ice Tube", first.Name)
	assert.Equal(t, "bag", first.Unit)
	assert.Equal(t, "ice", first.Category)
	assert.Equal(t, 60.0, first.Price)
	assert.Equal(t, 35.0, first.Cost)
	assert.Equal(t, 40, first.Stock)
}

func TestParseCatalogGeneratesIDs(t *testing.T) {
	path := writeCatalogFile(t,
		[]string{"Name", "Price"},
		[][]interface{}{
			{"Drinking Water", 10},
			{"Soda Water", 12},
		})

	entries, err := ParseCatalogExcelFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestParseCatalogDecimalComma(t *testing.T) {
	path := writeCatalogFile(t,
		[]string{"Name", "Price"},
		[][]interface{}{
			{"Sugar Bag", "28,50"},
		})

	entries, err := ParseCatalogExcelFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 28.5, entries[0].Price)
}

func TestParseCatalogMissingColumns(t *testing.T) {
	path := writeCatalogFile(t,
		[]string{"Foo", "Bar"},
		[][]interface{}{{"a", "b"}})

	_, err := ParseCatalogExcelFile(path)
	assert.Error(t, err, "name and price columns are mandatory")
}

func TestParseCatalogDuplicateIDs(t *testing.T) {
	path := writeCatalogFile(t,
		[]string{"SKU", "Name", "Price"},
		[][]interface{}{
			{"it-1", "Ice Tube", 60},
			{"it-1", "Ice Tube Copy", 65},
		})

	entries, err := ParseCatalogExcelFile(path)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "duplicate id must be skipped")
}
