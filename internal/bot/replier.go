package bot

import (
	"os"
	"path/filepath"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/pkg/logger"
)

// telegramClient is the slice of the Telegram API the bot uses.
// *tgbotapi.BotAPI satisfies it; tests substitute a fake.
type telegramClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Replier is the single reply surface shared by plain messages and
// button presses, so flow handlers never branch on event origin.
type Replier struct {
	api    telegramClient
	chatID int64
	// originMessageID is set for callback-query origins; Edit rewrites
	// that message instead of sending a new one.
	originMessageID int
}

func replierForMessage(api telegramClient, message *tgbotapi.Message) *Replier {
	return &Replier{api: api, chatID: message.Chat.ID}
}

func replierForCallback(api telegramClient, callback *tgbotapi.CallbackQuery) *Replier {
	r := &Replier{api: api, chatID: callback.Message.Chat.ID}
	r.originMessageID = callback.Message.MessageID
	return r
}

// Text sends a plain message.
func (r *Replier) Text(text string) {
	r.send(tgbotapi.NewMessage(r.chatID, text))
}

// TextWithKeyboard sends a message carrying an inline keyboard.
func (r *Replier) TextWithKeyboard(text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyMarkup = keyboard
	r.send(msg)
}

// Edit rewrites the origin message for button presses; for plain messages
// it degrades to a normal send.
func (r *Replier) Edit(text string) {
	if r.originMessageID == 0 {
		r.Text(text)
		return
	}
	r.send(tgbotapi.NewEditMessageText(r.chatID, r.originMessageID, text))
}

// Document sends a file from disk under the given name.
func (r *Replier) Document(path, filename, caption string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if filename == "" {
		filename = filepath.Base(path)
	}
	doc := tgbotapi.NewDocument(r.chatID, tgbotapi.FileReader{Name: filename, Reader: file})
	doc.Caption = caption
	_, err = r.api.Send(doc)
	return err
}

// Photo sends an in-memory image.
func (r *Replier) Photo(data []byte, name, caption string) error {
	photo := tgbotapi.NewPhoto(r.chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	_, err := r.api.Send(photo)
	return err
}

func (r *Replier) send(c tgbotapi.Chattable) {
	if _, err := r.api.Send(c); err != nil {
		logger.Error("failed to send reply",
			zap.Int64("chat_id", r.chatID),
			zap.Error(err))
	}
}
