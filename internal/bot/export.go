package bot

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivanoskov/billbot/internal/service"
	"github.com/ivanoskov/billbot/pkg/logger"
)

func (b *Bot) startExportRange(r *Replier, userID int64) {
	session := b.session(userID)
	session.Export = &ExportFlow{Step: ExportAwaitingStart}
	b.sessions.Set(userID, session)

	r.Edit("📅 Date Range Export\n\n" + datePromptText("start"))
}

// continueExportFlow advances an active export flow with the user's text.
// Unparseable dates re-prompt without advancing the step.
func (b *Bot) continueExportFlow(r *Replier, userID int64, session *Session, text string) {
	flow := session.Export

	switch flow.Step {
	case ExportAwaitingStart:
		date, ok := b.resolveDate(r, text)
		if !ok {
			return
		}
		flow.StartDate = date
		flow.Step = ExportAwaitingEnd
		b.sessions.Set(userID, session)

		r.Text(fmt.Sprintf("✅ Start date: %s\n\n", boundText(date)) + datePromptText("end"))

	case ExportAwaitingEnd:
		date, ok := b.resolveDate(r, text)
		if !ok {
			return
		}
		b.deliverExport(r, userID, flow.StartDate, date)

	default:
		logger.Error("unknown export step",
			zap.Int("step", int(flow.Step)),
			zap.Int64("user_id", userID))
		session.Export = nil
		b.sessions.Set(userID, session)
		r.Text("❌ Something went wrong with this export. Please run /export again.")
	}
}

// deliverExport renders the spreadsheet and sends it with the summary
// chart. The export slot is cleared once the flow has a final outcome.
func (b *Bot) deliverExport(r *Replier, userID int64, startDate, endDate *string) {
	ctx, cancel := b.callContext()
	report, err := b.tracker.ExportBills(ctx, userID, startDate, endDate)
	cancel()

	switch {
	case errors.Is(err, service.ErrNoBills):
		b.clearExportFlow(userID)
		r.Text("❌ No bills found for this date range.")
	case err != nil:
		logger.Error("export failed", zap.Int64("user_id", userID), zap.Error(err))
		r.Text("❌ Error generating export. Please try again.")
	default:
		filename, caption := exportFilename(startDate, endDate)
		if err := r.Document(report.ExcelPath, filename, caption); err != nil {
			logger.Error("failed to send export", zap.Int64("user_id", userID), zap.Error(err))
			r.Text("❌ Error generating export. Please try again.")
			return
		}
		if len(report.ChartPNG) > 0 {
			_ = r.Photo(report.ChartPNG, "summary.png", "Bills by shop type")
		}
		b.clearExportFlow(userID)
	}
}

func (b *Bot) clearExportFlow(userID int64) {
	session := b.session(userID)
	if session.Export == nil {
		return
	}
	session.Export = nil
	b.sessions.Set(userID, session)
}

// resolveDate normalizes one date reply. The false return means the user
// was re-prompted and the flow must not advance.
func (b *Bot) resolveDate(r *Replier, text string) (*string, bool) {
	r.Text("🕒 Parsing your date...")

	ctx, cancel := b.callContext()
	resolved, err := b.resolver.Resolve(ctx, text)
	cancel()
	if err != nil {
		r.Text(invalidDateText())
		return nil, false
	}
	return resolved, true
}
