package export

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/spesti-app/receipts-core/internal/entity"
)

// Service produces XLSX bytes for categorized receipts.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReceiptsXLSX returns a workbook with one row per line item plus a spending
// summary per category.
func (s *Service) ReceiptsXLSX(receipts []*entity.ReceiptDraft) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const itemsSheet = "Items"
	if err := f.SetSheetName(f.GetSheetName(0), itemsSheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(itemsSheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Дата",
		"Магазин",
		"Продукт",
		"Количество",
		"Ед. цена",
		"Сума",
		"Категория",
		"Метод",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(itemsSheet, cell, h)
	}

	byCategory := make(map[string]decimal.Decimal)
	row := 2
	for _, r := range receipts {
		for _, it := range r.Items {
			categoryName := ""
			method := ""
			if it.Category != nil {
				categoryName = it.Category.CategoryName
				method = string(it.Category.Method)
				byCategory[categoryName] = byCategory[categoryName].Add(it.TotalPrice)
			}
			values := []any{
				r.Date.Format("2006-01-02"),
				r.Retailer,
				it.Name,
				it.Quantity.String(),
				it.UnitPrice.StringFixed(2),
				it.TotalPrice.StringFixed(2),
				categoryName,
				method,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(itemsSheet, cell, v)
			}
			row++
		}
	}

	const summarySheet = "Summary"
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	_ = f.SetCellValue(summarySheet, "A1", "Категория")
	_ = f.SetCellValue(summarySheet, "B1", "Сума (лв)")
	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Strings(names)
	srow := 2
	for _, name := range names {
		total := byCategory[name]
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", srow), name)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", srow), total.StringFixed(2))
		srow++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"receipts", len(receipts),
		"rows", row-2,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
