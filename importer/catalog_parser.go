package importer

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"orderserver/catalog"
)

// ParseCatalogExcelFile парсит Excel-файл каталога товаров.
// Колонки распознаются по заголовкам, обязательны название и цена.
func ParseCatalogExcelFile(filePath string) ([]catalog.Entry, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("file is too short, expected at least header row and one data row")
	}

	indices := findCatalogColumns(rows[0])
	log.Printf("[CatalogImport] Found columns - ID: %d, Name: %d, Unit: %d, Price: %d, Cost: %d, Stock: %d, Category: %d",
		indices.id, indices.name, indices.unit, indices.price, indices.cost, indices.stock, indices.category)

	if indices.name == -1 {
		return nil, fmt.Errorf("required column 'name' not found in Excel file headers")
	}
	if indices.price == -1 {
		return nil, fmt.Errorf("required column 'price' not found in Excel file headers")
	}

	var entries []catalog.Entry
	seen := make(map[string]bool)

	for rowIdx := 1; rowIdx < len(rows); rowIdx++ {
		row := rows[rowIdx]
		if isEmptyRow(row) {
			continue
		}

		entry := catalog.Entry{
			Name:     cellAt(row, indices.name),
			Unit:     cellAt(row, indices.unit),
			Category: cellAt(row, indices.category),
		}
		if entry.Name == "" {
			continue
		}

		entry.Price = parseCellFloat(cellAt(row, indices.price))
		if entry.Price <= 0 {
			log.Printf("[CatalogImport] Skipping row %d: invalid price %q", rowIdx+1, cellAt(row, indices.price))
			continue
		}
		entry.Cost = parseCellFloat(cellAt(row, indices.cost))
		entry.Stock = int(parseCellFloat(cellAt(row, indices.stock)))

		entry.ID = cellAt(row, indices.id)
		if entry.ID == "" {
			entry.ID = fmt.Sprintf("item-%d", rowIdx)
		}
		if seen[entry.ID] {
			log.Printf("[CatalogImport] Skipping row %d: duplicate id %q", rowIdx+1, entry.ID)
			continue
		}
		seen[entry.ID] = true

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("no valid entries found in Excel file. Check column mapping")
	}

	log.Printf("[CatalogImport] Parsed %d catalog entries from %s", len(entries), filePath)
	return entries, nil
}

// catalogColumns хранит индексы распознанных колонок
type catalogColumns struct {
	id       int
	name     int
	unit     int
	price    int
	cost     int
	stock    int
	category int
}

// findCatalogColumns находит индексы колонок по вариантам заголовков
func findCatalogColumns(headers []string) catalogColumns {
	indices := catalogColumns{
		id:       -1,
		name:     -1,
		unit:     -1,
		price:    -1,
		cost:     -1,
		stock:    -1,
		category: -1,
	}

	for i, header := range headers {
		headerLower := strings.ToLower(strings.TrimSpace(header))
		if headerLower == "" {
			continue
		}

		if indices.id == -1 && containsAny(headerLower, []string{"id", "code", "sku", "артикул"}) {
			indices.id = i
		}
		if indices.name == -1 && containsAny(headerLower, []string{"name", "item", "product", "наименов", "товар"}) {
			indices.name = i
		}
		if indices.unit == -1 && containsAny(headerLower, []string{"unit", "ед", "изм"}) {
			indices.unit = i
		}
		if indices.price == -1 && containsAny(headerLower, []string{"price", "цена"}) {
			indices.price = i
		}
		if indices.cost == -1 && containsAny(headerLower, []string{"cost", "себестоим"}) {
			indices.cost = i
		}
		if indices.stock == -1 && containsAny(headerLower, []string{"stock", "qty", "quantity", "остат", "кол-во"}) {
			indices.stock = i
		}
		if indices.category == -1 && containsAny(headerLower, []string{"category", "group", "категор", "групп"}) {
			indices.category = i
		}
	}

	return indices
}

// containsAny проверяет, содержит ли строка любую из подстрок
func containsAny(s string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// isEmptyRow проверяет, является ли строка пустой
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// cellAt безопасно возвращает значение ячейки по индексу колонки
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCellFloat парсит число из ячейки, запятая допускается как
// десятичный разделитель
func parseCellFloat(cell string) float64 {
	if cell == "" {
		return 0
	}
	cell = strings.ReplaceAll(cell, ",", ".")
	cell = strings.ReplaceAll(cell, " ", "")
	value, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0
	}
	return value
}
