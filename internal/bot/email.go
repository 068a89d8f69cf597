package bot

import (
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/service"
	"github.com/ivanoskov/billbot/pkg/logger"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (b *Bot) startEmailFlow(r *Replier, userID int64, rangeType RangeType) {
	session := b.session(userID)
	session.Email = &EmailFlow{Step: EmailAwaitingEmail, RangeType: rangeType}
	b.sessions.Set(userID, session)

	title := "📧 Email All Bills"
	if rangeType == RangeDates {
		title = "📅 Email Date Range"
	}
	r.Edit(title + "\n\nPlease enter your email address:\n\nExample: john@example.com")
}

// continueEmailFlow advances an active email flow with the user's text.
func (b *Bot) continueEmailFlow(r *Replier, userID int64, session *Session, text string) {
	flow := session.Email

	switch flow.Step {
	case EmailAwaitingEmail:
		if !emailPattern.MatchString(text) {
			r.Text("❌ Invalid email format. Please enter a valid email address.\n\nExample: john@example.com")
			return
		}
		flow.Email = text

		if flow.RangeType == RangeAll {
			b.sessions.Set(userID, session)
			r.Text(fmt.Sprintf("📧 Sending all bills to %s...", flow.Email))
			b.deliverEmail(r, userID, flow.Email, nil, nil)
			return
		}

		flow.Step = EmailAwaitingStart
		b.sessions.Set(userID, session)
		r.Text(fmt.Sprintf("✅ Email: %s\n\nNow, ", flow.Email) + datePromptText("start"))

	case EmailAwaitingStart:
		date, ok := b.resolveDate(r, text)
		if !ok {
			return
		}
		flow.StartDate = date
		flow.Step = EmailAwaitingEnd
		b.sessions.Set(userID, session)

		r.Text(fmt.Sprintf("✅ Start date: %s\n\n", boundText(date)) + datePromptText("end"))

	case EmailAwaitingEnd:
		date, ok := b.resolveDate(r, text)
		if !ok {
			return
		}
		r.Text(fmt.Sprintf("📧 Sending bills to %s...", flow.Email))
		b.deliverEmail(r, userID, flow.Email, flow.StartDate, date)

	default:
		logger.Error("unknown email step",
			zap.Int("step", int(flow.Step)),
			zap.Int64("user_id", userID))
		session.Email = nil
		b.sessions.Set(userID, session)
		r.Text("❌ Something went wrong with this report. Please run /email again.")
	}
}

// deliverEmail sends the report and clears the flow once it has a final
// outcome. A delivery failure keeps the flow for an implicit retry.
func (b *Bot) deliverEmail(r *Replier, userID int64, email string, startDate, endDate *string) {
	ctx, cancel := b.callContext()
	err := b.tracker.EmailBills(ctx, userID, email, startDate, endDate)
	cancel()

	switch {
	case errors.Is(err, service.ErrNoBills):
		b.clearEmailFlow(userID)
		r.Text("❌ No bills found for this date range.")
	case err != nil:
		logger.Error("email report failed", zap.Int64("user_id", userID), zap.Error(err))
		r.Text("❌ Failed to send email. Please try again.")
	default:
		b.clearEmailFlow(userID)
		r.Text(fmt.Sprintf("✅ Bills sent successfully to %s!", email))
	}
}

func (b *Bot) clearEmailFlow(userID int64) {
	session := b.session(userID)
	if session.Email == nil {
		return
	}
	session.Email = nil
	b.sessions.Set(userID, session)
}
