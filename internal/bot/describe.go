package bot

import (
	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/pkg/logger"
)

// handleDescriptionChoice resolves one of the three description buttons
// for the user's pending bill.
func (b *Bot) handleDescriptionChoice(r *Replier, userID int64, intent CallbackIntent) {
	session := b.session(userID)
	if session.PendingBill == nil {
		r.Edit("❌ Session expired. Please upload the bill again.")
		return
	}
	pending := session.PendingBill

	switch intent {
	case IntentDescManual:
		b.sessions.Set(userID, session)
		r.Edit("✍️ Please type your description for this bill:\n\n(Keep it short and concise)")

	case IntentDescAuto:
		r.Edit("🤖 Generating description...")

		ctx, cancel := b.callContext()
		description, err := b.extractor.DescribeBill(ctx, pending.Bill.ImagePath, pending.Bill)
		cancel()
		if err != nil {
			// Save with the description unset instead of failing the flow
			logger.Warn("auto description failed",
				zap.Int64("user_id", userID),
				zap.Error(err))
			pending.Bill.Description = nil
			b.persistPending(r, userID, session)
			return
		}
		pending.Bill.Description = &description
		b.persistPending(r, userID, session)

	case IntentDescSkip:
		pending.Bill.Description = nil
		b.persistPending(r, userID, session)

	default:
		logger.Error("non-description intent in description handler", zap.Int("intent", int(intent)))
		r.Edit("❌ Something went wrong. Please upload the bill again.")
	}
}

// saveWithManualDescription consumes a free-text message as the pending
// bill's description and persists it.
func (b *Bot) saveWithManualDescription(r *Replier, userID int64, session *Session, text string) {
	session.PendingBill.Bill.Description = &text
	r.Text("💾 Saving your bill...")
	b.persistPending(r, userID, session)
}

// persistPending saves the pending bill. On success the slot is cleared;
// on failure it is kept so the next user action retries implicitly.
func (b *Bot) persistPending(r *Replier, userID int64, session *Session) {
	bill := session.PendingBill.Bill

	ctx, cancel := b.callContext()
	err := b.tracker.SaveBill(ctx, bill)
	cancel()
	if err != nil {
		logger.Error("failed to save bill", zap.Int64("user_id", userID), zap.Error(err))
		r.Edit("❌ Failed to save bill. Please try again.")
		return
	}

	session.PendingBill = nil
	b.sessions.Set(userID, session)
	r.Edit(formatSavedSummary(bill))
}
