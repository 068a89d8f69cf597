package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/ocr"
	"github.com/ivanoskov/billbot/pkg/logger"
)

// ImageFetcher downloads an attachment by its Telegram file ID.
type ImageFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

type telegramFetcher struct {
	api  telegramClient
	http *http.Client
}

func newTelegramFetcher(api telegramClient) *telegramFetcher {
	return &telegramFetcher{api: api, http: http.DefaultClient}
}

func (f *telegramFetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	url, err := f.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// handleDocument treats image-typed documents (drag-and-drop uploads) as
// bill photos; anything else gets a hint.
func (b *Bot) handleDocument(message *tgbotapi.Message) {
	document := message.Document
	if !strings.HasPrefix(document.MimeType, "image/") {
		replierForMessage(b.api, message).Text("Please send an image file (JPG, PNG, etc.)")
		return
	}

	ext := "jpg"
	if idx := strings.LastIndex(document.FileName, "."); idx >= 0 && idx < len(document.FileName)-1 {
		ext = strings.ToLower(document.FileName[idx+1:])
	}
	b.handleBillImage(message, document.FileID, ext)
}

// handleBillImage runs the ingestion flow: download, extract, park the
// result as the user's pending bill and offer description choices.
func (b *Bot) handleBillImage(message *tgbotapi.Message, fileID, ext string) {
	r := replierForMessage(b.api, message)
	userID := message.From.ID

	r.Text("📸 Received! Processing your bill...")

	ctx, cancel := b.callContext()
	data, err := b.fetcher.Fetch(ctx, fileID)
	cancel()
	if err != nil {
		logger.Error("failed to download bill image", zap.Int64("user_id", userID), zap.Error(err))
		r.Text("❌ Error processing your bill. Please try again later.")
		return
	}

	path, err := b.images.SaveImage(userID, data, ext)
	if err != nil {
		logger.Error("failed to store bill image", zap.Int64("user_id", userID), zap.Error(err))
		r.Text("❌ Error processing your bill. Please try again later.")
		return
	}

	ctx, cancel = b.callContext()
	bill, err := b.extractor.ParseBill(ctx, path)
	cancel()
	if err != nil {
		// Extraction failure degrades to the fallback record; the user
		// can still describe and save the bill.
		logger.Warn("extraction failed, using fallback record",
			zap.Int64("user_id", userID),
			zap.Error(err))
		bill = ocr.FallbackBill()
	}
	bill.UserID = userID
	bill.ImagePath = path

	session := b.session(userID)
	replaced := session.PendingBill != nil
	session.PendingBill = &PendingBill{Bill: bill}
	b.sessions.Set(userID, session)

	r.TextWithKeyboard(formatParsedSummary(bill, replaced), descriptionKeyboard())
}
