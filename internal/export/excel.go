// Package export renders a user's bills into an Excel workbook with
// itemized, line-item and summary sheets.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/model"
	"github.com/ivanoskov/billbot/pkg/logger"
)

const (
	billsSheet   = "Bills"
	menuSheet    = "Menu Items"
	summarySheet = "Summary"
)

type Service struct {
	exportsDir string
}

func NewService(exportsDir string) (*Service, error) {
	if err := os.MkdirAll(exportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create exports dir: %w", err)
	}
	return &Service{exportsDir: exportsDir}, nil
}

// GenerateExcel writes the workbook for the given bills and returns its path.
// The bills are written in the order given (the repository returns them
// newest-first).
func (s *Service) GenerateExcel(bills []model.Bill, userID int64, start, end *time.Time) (string, error) {
	started := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", billsSheet); err != nil {
		return "", fmt.Errorf("xlsx sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return "", fmt.Errorf("xlsx style: %w", err)
	}

	if err := s.writeBillsSheet(f, bills, headerStyle); err != nil {
		return "", err
	}
	if err := s.writeMenuSheet(f, bills, headerStyle); err != nil {
		return "", err
	}
	if err := s.writeSummarySheet(f, bills); err != nil {
		return "", err
	}

	suffix := ""
	if start != nil && end != nil {
		suffix = fmt.Sprintf("_%s_to_%s", start.Format("20060102"), end.Format("20060102"))
	}
	path := filepath.Join(s.exportsDir, fmt.Sprintf("bills_%d%s.xlsx", userID, suffix))

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("xlsx save: %w", err)
	}

	logger.Info("excel export generated",
		zap.String("path", path),
		zap.Int("bills", len(bills)),
		zap.Int64("elapsed_ms", time.Since(started).Milliseconds()))
	return path, nil
}

func (s *Service) writeBillsSheet(f *excelize.File, bills []model.Bill, headerStyle int) error {
	headers := []string{
		"Date", "Shop Name", "Shop Type", "Location",
		"Total Price", "Currency", "Tax Amount",
		"Description", "Status", "Items Count",
	}
	if err := writeHeaderRow(f, billsSheet, headers, headerStyle); err != nil {
		return err
	}

	for i, bill := range bills {
		row := i + 2
		values := []any{
			bill.CreatedAt.Format("2006-01-02 15:04"),
			orNA(bill.ShopName),
			orNA(bill.ShopType),
			orNA(bill.Location),
			orZero(bill.TotalPrice),
			bill.Currency,
			orZero(bill.TaxAmount),
			orEmpty(bill.Description),
			bill.Status,
			len(bill.Menu),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(billsSheet, cell, v); err != nil {
				return fmt.Errorf("xlsx cell: %w", err)
			}
		}
	}

	widths := []float64{18, 20, 15, 25, 12, 10, 12, 30, 12, 12}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(billsSheet, col, col, w)
	}
	return nil
}

func (s *Service) writeMenuSheet(f *excelize.File, bills []model.Bill, headerStyle int) error {
	if _, err := f.NewSheet(menuSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"Date", "Shop Name", "Item Name", "Quantity", "Price"}
	if err := writeHeaderRow(f, menuSheet, headers, headerStyle); err != nil {
		return err
	}

	row := 2
	for _, bill := range bills {
		for _, item := range bill.Menu {
			values := []any{
				bill.CreatedAt.Format("2006-01-02"),
				orNA(bill.ShopName),
				item.Item,
				item.Quantity,
				item.Price,
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, row)
				if err := f.SetCellValue(menuSheet, cell, v); err != nil {
					return fmt.Errorf("xlsx cell: %w", err)
				}
			}
			row++
		}
	}

	widths := []float64{15, 20, 30, 12, 12}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(menuSheet, col, col, w)
	}
	return nil
}

func (s *Service) writeSummarySheet(f *excelize.File, bills []model.Bill) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	stats := Summarize(bills)

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	boldStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	_ = f.SetCellValue(summarySheet, "A1", "Bills Summary Report")
	_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)

	_ = f.SetCellValue(summarySheet, "A3", "Total Bills:")
	_ = f.SetCellValue(summarySheet, "B3", stats.TotalBills)
	_ = f.SetCellValue(summarySheet, "A4", "Total Amount:")
	_ = f.SetCellValue(summarySheet, "B4", stats.TotalAmount)
	_ = f.SetCellValue(summarySheet, "A5", "Total Tax:")
	_ = f.SetCellValue(summarySheet, "B5", stats.TotalTax)

	_ = f.SetCellValue(summarySheet, "A7", "Bills by Shop Type")
	_ = f.SetCellStyle(summarySheet, "A7", "A7", boldStyle)

	row := 8
	for _, entry := range stats.ByShopType {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), entry.ShopType)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), entry.Count)
		row++
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 22)
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string, style int) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
	return nil
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
