package bot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/dates"
	"github.com/ivanoskov/billbot/internal/ocr"
	"github.com/ivanoskov/billbot/internal/service"
	"github.com/ivanoskov/billbot/pkg/logger"
)

// ImageSaver stores a downloaded bill image and returns its path.
type ImageSaver interface {
	SaveImage(userID int64, data []byte, ext string) (string, error)
}

// Bot is the conversation orchestrator: it classifies inbound updates,
// tracks per-user flows and drives the collaborators.
type Bot struct {
	api       telegramClient
	tracker   *service.BillTracker
	extractor ocr.Extractor
	resolver  dates.Resolver
	fetcher   ImageFetcher
	images    ImageSaver
	sessions  SessionStore
	timeout   time.Duration
}

// Options carries the collaborators the bot orchestrates.
type Options struct {
	Tracker   *service.BillTracker
	Extractor ocr.Extractor
	Resolver  dates.Resolver
	Images    ImageSaver
	Sessions  SessionStore
	// Timeout bounds each outbound call.
	Timeout time.Duration
}

func NewBot(token string, opts Options) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return newBot(api, newTelegramFetcher(api), opts), nil
}

func newBot(api telegramClient, fetcher ImageFetcher, opts Options) *Bot {
	if opts.Sessions == nil {
		opts.Sessions = NewMemoryStore(0)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	return &Bot{
		api:       api,
		tracker:   opts.Tracker,
		extractor: opts.Extractor,
		resolver:  opts.Resolver,
		fetcher:   fetcher,
		images:    opts.Images,
		sessions:  opts.Sessions,
		timeout:   opts.Timeout,
	}
}

// Start runs the bot in long-polling mode.
func (b *Bot) Start() error {
	api, ok := b.api.(*tgbotapi.BotAPI)
	if !ok {
		return errors.New("long polling requires a real telegram client")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range api.GetUpdatesChan(u) {
		b.HandleUpdate(update)
	}
	return nil
}

// HandleWebhook is the entry point for webhook-delivered updates.
func (b *Bot) HandleWebhook(body []byte) error {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return err
	}
	b.HandleUpdate(update)
	return nil
}

// HandleUpdate classifies one inbound update and routes it. All failures
// are converted to user-visible replies inside the flow handlers; nothing
// escapes to the caller.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}

	message := update.Message
	if message == nil || message.From == nil {
		return
	}

	switch {
	case len(message.Photo) > 0:
		// Largest rendition is last
		photo := message.Photo[len(message.Photo)-1]
		b.handleBillImage(message, photo.FileID, "jpg")
	case message.Document != nil:
		b.handleDocument(message)
	case message.IsCommand():
		b.handleCommand(message)
	case message.Text != "":
		b.handleText(message)
	default:
		replierForMessage(b.api, message).Text(defaultReplyText)
	}
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	r := replierForMessage(b.api, message)

	switch message.Command() {
	case "start", "help":
		r.Text(welcomeText)
	case "export":
		r.TextWithKeyboard("📊 Export Bills to Excel\n\nChoose an option:", exportKeyboard())
	case "email":
		r.TextWithKeyboard("📧 Email Bills Report\n\nChoose an option:", emailKeyboard())
	case "list":
		b.handleList(r, message.From.ID)
	case "delete":
		b.handleDelete(r, message.From.ID, strings.TrimSpace(message.CommandArguments()))
	default:
		r.Text(defaultReplyText)
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	// Ack first so the client drops its loading indicator
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		logger.Warn("failed to answer callback", zap.Error(err))
	}
	if callback.Message == nil || callback.From == nil {
		return
	}

	r := replierForCallback(b.api, callback)
	userID := callback.From.ID

	switch intent := decodeCallback(callback.Data); intent {
	case IntentDescManual, IntentDescAuto, IntentDescSkip:
		b.handleDescriptionChoice(r, userID, intent)
	case IntentExportAll:
		r.Edit("📊 Generating Excel with all your bills...")
		b.deliverExport(r, userID, nil, nil)
	case IntentExportRange:
		b.startExportRange(r, userID)
	case IntentEmailAll:
		b.startEmailFlow(r, userID, RangeAll)
	case IntentEmailRange:
		b.startEmailFlow(r, userID, RangeDates)
	default:
		logger.Error("unknown callback payload",
			zap.String("data", callback.Data),
			zap.Int64("user_id", userID))
		r.Edit("❌ This button is no longer valid. Please run the command again.")
	}
}

// handleText dispatches free text by the user's active flow: email flow
// first, then export, then a pending bill's manual description.
func (b *Bot) handleText(message *tgbotapi.Message) {
	r := replierForMessage(b.api, message)
	userID := message.From.ID
	text := strings.TrimSpace(message.Text)

	session, ok := b.sessions.Get(userID)
	switch {
	case ok && session.Email != nil:
		b.continueEmailFlow(r, userID, session, text)
	case ok && session.Export != nil:
		b.continueExportFlow(r, userID, session, text)
	case ok && session.PendingBill != nil:
		b.saveWithManualDescription(r, userID, session, text)
	default:
		r.Text(defaultReplyText)
	}
}

func (b *Bot) handleList(r *Replier, userID int64) {
	ctx, cancel := b.callContext()
	defer cancel()

	bills, err := b.tracker.RecentBills(ctx, userID, service.DefaultListLimit)
	if err != nil {
		logger.Error("failed to list bills", zap.Int64("user_id", userID), zap.Error(err))
		r.Text("❌ Error fetching bills. Please try again.")
		return
	}
	if len(bills) == 0 {
		r.Text("📭 No bills found. Upload a bill image to get started!")
		return
	}
	r.Text(formatBillList(bills))
}

func (b *Bot) handleDelete(r *Replier, userID int64, billID string) {
	if billID == "" {
		r.Text("Usage: /delete <bill id>\n\nFind the id with /list.")
		return
	}

	ctx, cancel := b.callContext()
	defer cancel()

	err := b.tracker.DeleteBill(ctx, billID, userID)
	switch {
	case errors.Is(err, service.ErrBillNotFound):
		r.Text("❌ Bill not found.")
	case err != nil:
		logger.Error("failed to delete bill",
			zap.String("bill_id", billID),
			zap.Int64("user_id", userID),
			zap.Error(err))
		r.Text("❌ Error deleting bill. Please try again.")
	default:
		r.Text("🗑 Bill deleted.")
	}
}

// session returns the user's session or a fresh empty one.
func (b *Bot) session(userID int64) *Session {
	if session, ok := b.sessions.Get(userID); ok {
		return session
	}
	return &Session{}
}

func (b *Bot) callContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.timeout)
}
