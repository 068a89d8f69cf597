package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/model"
	"github.com/ivanoskov/billbot/pkg/logger"
)

type SupabaseRepository struct {
	client *supabase.Client
}

func NewSupabaseRepository(url, key string) (*SupabaseRepository, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, err
	}

	return &SupabaseRepository{
		client: client,
	}, nil
}

func (r *SupabaseRepository) CreateBill(ctx context.Context, bill *model.Bill) error {
	bill.GenerateID()
	if bill.Currency == "" {
		bill.Currency = model.DefaultCurrency
	}
	if bill.Status == "" {
		bill.Status = model.StatusProcessed
	}
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}

	data, _, err := r.client.From("bills").Insert(bill, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}

	// Insert returns the created rows; pick up server-side defaults
	var created []model.Bill
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created bill: %w", err)
	}
	if len(created) > 0 {
		bill.ID = created[0].ID
		bill.CreatedAt = created[0].CreatedAt
	}

	logger.Debug("bill created",
		zap.String("bill_id", bill.ID),
		zap.Int64("user_id", bill.UserID))
	return nil
}

func (r *SupabaseRepository) GetBills(ctx context.Context, userID int64, filter BillFilter) ([]model.Bill, error) {
	query := r.client.From("bills").
		Select("*", "", false).
		Eq("user_id", strconv.FormatInt(userID, 10))

	if filter.StartDate != nil {
		query = query.Gte("created_at", filter.StartDate.Format(time.RFC3339))
	}
	if filter.EndDate != nil {
		query = query.Lte("created_at", filter.EndDate.Format(time.RFC3339))
	}

	// Newest first
	query = query.Order("created_at.desc", nil)

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit, "")
	}

	data, _, err := query.Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get bills: %w", err)
	}

	var bills []model.Bill
	if err := json.Unmarshal(data, &bills); err != nil {
		return nil, fmt.Errorf("failed to parse bills: %w", err)
	}
	return bills, nil
}

func (r *SupabaseRepository) GetBillByID(ctx context.Context, id string, userID int64) (*model.Bill, error) {
	data, _, err := r.client.From("bills").
		Select("*", "", false).
		Eq("id", id).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}

	var bills []model.Bill
	if err := json.Unmarshal(data, &bills); err != nil {
		return nil, fmt.Errorf("failed to parse bill: %w", err)
	}
	if len(bills) == 0 {
		return nil, nil
	}
	return &bills[0], nil
}

func (r *SupabaseRepository) DeleteBill(ctx context.Context, id string, userID int64) error {
	_, _, err := r.client.From("bills").
		Delete("", "").
		Eq("id", id).
		Eq("user_id", strconv.FormatInt(userID, 10)).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return nil
}
