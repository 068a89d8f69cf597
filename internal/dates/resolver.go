// Package dates normalizes user-typed date expressions to YYYY-MM-DD.
package dates

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Unbounded is the sentinel users type to leave a range bound open.
const Unbounded = "NA"

// ISO is the normalized layout every resolved date is returned in.
const ISO = "2006-01-02"

// ErrUnparseable is returned when the input cannot be resolved to a date.
// Flow handlers re-prompt on it instead of advancing.
var ErrUnparseable = fmt.Errorf("unparseable date")

// Resolver turns free-form date text into a normalized YYYY-MM-DD string.
// A nil result with nil error means "unbounded" (the NA sentinel).
type Resolver interface {
	Resolve(ctx context.Context, text string) (*string, error)
}

// localLayouts are tried before any model call.
var localLayouts = []string{
	ISO,
	"02-01-2006",
	"02/01/2006",
}

// ModelResolver resolves natural-language dates with a chat model, after
// short-circuiting the NA sentinel and plain numeric layouts locally.
type ModelResolver struct {
	client *openai.Client
	model  string
	now    func() time.Time
}

func NewModelResolver(apiKey, baseURL, modelName string) *ModelResolver {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = fmt.Sprintf("%s/v1", strings.TrimSuffix(baseURL, "/"))
	}

	return &ModelResolver{
		client: openai.NewClientWithConfig(cfg),
		model:  modelName,
		now:    time.Now,
	}
}

func (r *ModelResolver) Resolve(ctx context.Context, text string) (*string, error) {
	if normalized, ok := ResolveLocal(text); ok {
		return normalized, nil
	}

	today := r.now().Format("2 January 2006")
	prompt := fmt.Sprintf(`Convert this date to YYYY-MM-DD format. Current date is %s.

Date input: "%s"

Rules:
- If year is not specified, assume the current year
- Return ONLY the date in YYYY-MM-DD format, nothing else
- If the date is invalid or unclear, return "INVALID"

Examples:
"12 jan" -> "2026-01-12"
"1 January 2026" -> "2026-01-01"
"01-01-2026" -> "2026-01-01"
"2026-01-01" -> "2026-01-01"

Now convert: "%s"`, today, text, text)

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("date resolution request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty choices from model")
	}

	result := strings.Trim(strings.TrimSpace(resp.Choices[0].Message.Content), `"`)
	if result == "INVALID" {
		return nil, ErrUnparseable
	}
	if _, err := time.Parse(ISO, result); err != nil {
		return nil, ErrUnparseable
	}
	return &result, nil
}

// ResolveLocal handles the NA sentinel and exact numeric layouts without an
// external call. The second return is false when the input needs the model.
func ResolveLocal(text string) (*string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.EqualFold(trimmed, Unbounded) {
		return nil, true
	}

	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			normalized := t.Format(ISO)
			return &normalized, true
		}
	}
	return nil, false
}
