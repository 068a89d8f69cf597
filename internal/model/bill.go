package model

import (
	"time"

	"github.com/google/uuid"
)

// Bill statuses
const (
	StatusProcessed = "processed"
	StatusFailed    = "failed"
	StatusPending   = "pending"
)

// DefaultCurrency is applied when a bill is saved without one.
const DefaultCurrency = "USD"

// FallbackCurrency is applied when extraction fails or omits the currency.
const FallbackCurrency = "INR"

// LineItem is one parsed row of a receipt.
type LineItem struct {
	Item     string  `json:"item"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// Bill is one parsed receipt. Optional fields are pointers so that a
// failed extraction can be stored as all-nulls instead of zeroes.
type Bill struct {
	ID          string     `json:"id,omitempty"`
	UserID      int64      `json:"user_id"`
	ShopName    *string    `json:"shop_name"`
	ShopType    *string    `json:"shop_type"`
	Location    *string    `json:"location"`
	TotalPrice  *float64   `json:"total_price"`
	Currency    string     `json:"currency"`
	TaxAmount   *float64   `json:"tax_amount"`
	Menu        []LineItem `json:"menu"`
	Description *string    `json:"description"`
	ImagePath   string     `json:"image_path"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at,omitempty"`
}

// GenerateID assigns a new UUID if the bill doesn't have one yet
func (b *Bill) GenerateID() {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
}
