package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/model"
	"github.com/ivanoskov/billbot/pkg/logger"
)

const parsePrompt = `Analyze this bill/receipt image and extract the following information in JSON format:

{
    "shop_name": "name of the shop/restaurant",
    "shop_type": "type of business (e.g., restaurant, grocery, pharmacy, retail)",
    "location": "address or location if visible",
    "total_price": numeric value only (e.g., 450.50),
    "currency": "currency code (INR for Indian bills, USD, EUR, etc.)",
    "tax_amount": numeric tax value if shown (CGST + SGST for Indian bills),
    "menu": [
        {
            "item": "item name",
            "quantity": numeric quantity,
            "price": numeric price per item
        }
    ],
    "description": "brief summary or any additional notes about the bill"
}

Rules:
- Extract only what's visible in the image
- Use null for missing fields
- Ensure all prices are numeric (no currency symbols)
- Parse menu items as accurately as possible
- For Indian bills, currency should be "INR"
- For description, include date, payment method, or other relevant details
- Return ONLY valid JSON, no markdown or extra text`

type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

func NewOpenAIExtractor(apiKey, baseURL, modelName string) *OpenAIExtractor {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = fmt.Sprintf("%s/v1", strings.TrimSuffix(baseURL, "/"))
	}

	return &OpenAIExtractor{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
	}
}

// parsedBill mirrors the JSON shape the model is asked for.
type parsedBill struct {
	ShopName    *string          `json:"shop_name"`
	ShopType    *string          `json:"shop_type"`
	Location    *string          `json:"location"`
	TotalPrice  *float64         `json:"total_price"`
	Currency    string           `json:"currency"`
	TaxAmount   *float64         `json:"tax_amount"`
	Menu        []model.LineItem `json:"menu"`
	Description *string          `json:"description"`
}

func (e *OpenAIExtractor) ParseBill(ctx context.Context, imagePath string) (*model.Bill, error) {
	resp, err := e.visionRequest(ctx, imagePath, parsePrompt)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}

	var parsed parsedBill
	if err := json.Unmarshal([]byte(stripCodeFences(resp)), &parsed); err != nil {
		logger.Error("unparseable extraction response",
			zap.String("response", truncateForLog(resp)),
			zap.Error(err))
		return nil, fmt.Errorf("extraction response: %w", err)
	}

	if parsed.Currency == "" {
		parsed.Currency = model.FallbackCurrency
	}
	if parsed.Menu == nil {
		parsed.Menu = []model.LineItem{}
	}

	return &model.Bill{
		ShopName:    parsed.ShopName,
		ShopType:    parsed.ShopType,
		Location:    parsed.Location,
		TotalPrice:  parsed.TotalPrice,
		Currency:    parsed.Currency,
		TaxAmount:   parsed.TaxAmount,
		Menu:        parsed.Menu,
		Description: parsed.Description,
		Status:      model.StatusProcessed,
	}, nil
}

func (e *OpenAIExtractor) DescribeBill(ctx context.Context, imagePath string, bill *model.Bill) (string, error) {
	shopName := "Unknown"
	if bill.ShopName != nil {
		shopName = *bill.ShopName
	}
	shopType := "shop"
	if bill.ShopType != nil {
		shopType = *bill.ShopType
	}
	total := 0.0
	if bill.TotalPrice != nil {
		total = *bill.TotalPrice
	}

	prompt := fmt.Sprintf(`Looking at this receipt from %s (%s) totaling %.2f,
generate a very short, concise description (maximum 8 words).

Examples:
- "Coffee and breakfast at Starbucks"
- "Weekly groceries from Walmart"
- "Biryani and drinks at restaurant"
- "Medicines from pharmacy"

Return ONLY the description text, nothing else.
Keep it natural and brief.`, shopName, shopType, total)

	resp, err := e.visionRequest(ctx, imagePath, prompt)
	if err != nil {
		return "", fmt.Errorf("description request: %w", err)
	}

	description := strings.TrimSpace(resp)
	if len(description) > 100 {
		description = description[:97] + "..."
	}
	return description, nil
}

func (e *OpenAIExtractor) visionRequest(ctx context.Context, imagePath, prompt string) (string, error) {
	imageURL, err := encodeImage(imagePath)
	if err != nil {
		return "", err
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty choices from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// encodeImage inlines the image as a base64 data URL.
func encodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	mime := "image/jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		mime = "image/png"
	case ".webp":
		mime = "image/webp"
	case ".gif":
		mime = "image/gif"
	}

	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(data)), nil
}

// stripCodeFences removes a surrounding markdown code block if the model
// ignored the no-markdown instruction.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncateForLog(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
