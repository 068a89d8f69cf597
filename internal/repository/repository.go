package repository

import (
	"context"
	"time"

	"github.com/ivanoskov/billbot/internal/model"
)

// Repository is the bill record store consumed by the orchestrator.
type Repository interface {
	CreateBill(ctx context.Context, bill *model.Bill) error
	// GetBills returns the user's bills newest-first. Both range bounds
	// are independently optional.
	GetBills(ctx context.Context, userID int64, filter BillFilter) ([]model.Bill, error)
	GetBillByID(ctx context.Context, id string, userID int64) (*model.Bill, error)
	DeleteBill(ctx context.Context, id string, userID int64) error
}

type BillFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}
