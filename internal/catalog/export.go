package catalog

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"ID", "Name", "Description", "Category", "Price", "Stock", "Status", "Image",
}

// Export writes products as an xlsx workbook with a single "Products" sheet.
func Export(w io.Writer, products []Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetValue(p.Category)
		row.AddCell().SetValue(p.Price)
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(string(p.Status))
		row.AddCell().SetValue(p.Image)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
