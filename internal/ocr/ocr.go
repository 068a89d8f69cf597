// Package ocr extracts structured bill data from receipt images through an
// OpenAI-compatible multimodal model.
package ocr

import (
	"context"

	"github.com/ivanoskov/billbot/internal/model"
)

// Extractor is the contract the orchestrator depends on.
type Extractor interface {
	// ParseBill extracts structured fields from a receipt image.
	ParseBill(ctx context.Context, imagePath string) (*model.Bill, error)
	// DescribeBill produces a short description for an already-parsed bill.
	DescribeBill(ctx context.Context, imagePath string, bill *model.Bill) (string, error)
}

// FallbackDescription marks records whose extraction failed.
const FallbackDescription = "Failed to parse bill automatically"

// FallbackBill is the all-null record used when extraction fails, so
// ingestion never hard-fails.
func FallbackBill() *model.Bill {
	desc := FallbackDescription
	return &model.Bill{
		Currency:    model.FallbackCurrency,
		Menu:        []model.LineItem{},
		Description: &desc,
		Status:      model.StatusFailed,
	}
}
