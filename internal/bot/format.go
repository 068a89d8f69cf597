package bot

import (
	"fmt"
	"strings"

	"github.com/ivanoskov/billbot/internal/model"
)

// menuPreviewLimit caps the line items shown in a parse summary.
const menuPreviewLimit = 5

const welcomeText = `🧾 Welcome to BillBot!

I help you manage your bills automatically. Here's what I can do:

📷 Send Bill Image - Just send me a photo of any bill/receipt
📊 Export to Excel - Use /export
📧 Email Reports - Use /email
📋 View Bills - Use /list to see your recent bills
🗑 Delete a Bill - Use /delete <id>

Just send me a bill image to get started!`

const defaultReplyText = "Please send me a bill image to process. Use /start to see available commands."

func datePromptText(which string) string {
	return fmt.Sprintf(`📅 Please enter the %s date.

You can use:
• Natural language: 12 jan, 1 January 2026
• Format: YYYY-MM-DD or DD-MM-YYYY
• Type NA to leave this side of the range open

Example: 1 jan 2026`, which)
}

func invalidDateText() string {
	return `❌ Invalid date format. Please try again.

Examples: 12 jan, 1 January 2026, 2026-01-01, or NA`
}

func formatParsedSummary(bill *model.Bill, replacedPending bool) string {
	var sb strings.Builder

	sb.WriteString("✅ Bill Parsed Successfully!\n\n")
	if replacedPending {
		sb.WriteString("⚠️ Your previous unsaved bill was discarded.\n\n")
	}
	sb.WriteString(fmt.Sprintf("🏪 Shop: %s\n", orNA(bill.ShopName)))
	sb.WriteString(fmt.Sprintf("📍 Location: %s\n", orNA(bill.Location)))
	sb.WriteString(fmt.Sprintf("🏷️ Type: %s\n", orNA(bill.ShopType)))
	sb.WriteString(fmt.Sprintf("💰 Total: %s %s", bill.Currency, orNAFloat(bill.TotalPrice)))

	if bill.TaxAmount != nil {
		sb.WriteString(fmt.Sprintf("\n💳 Tax: %s %.2f", bill.Currency, *bill.TaxAmount))
	}

	if len(bill.Menu) > 0 {
		sb.WriteString("\n\n📋 Items:\n")
		for i, item := range bill.Menu {
			if i == menuPreviewLimit {
				sb.WriteString(fmt.Sprintf("  ... and %d more items\n", len(bill.Menu)-menuPreviewLimit))
				break
			}
			sb.WriteString(fmt.Sprintf("  • %s x%g - %s%.2f\n", item.Item, item.Quantity, bill.Currency, item.Price))
		}
	}

	sb.WriteString("\n\n📝 How would you like to add a description?")
	return sb.String()
}

func formatSavedSummary(bill *model.Bill) string {
	description := "None"
	if bill.Description != nil {
		description = *bill.Description
	}

	return fmt.Sprintf(`✅ Bill Saved Successfully!

🏪 Shop: %s
📍 Location: %s
💰 Total: %s %s
📝 Description: %s

Use /export to download your bills!`,
		orNA(bill.ShopName),
		orNA(bill.Location),
		bill.Currency,
		orNAFloat(bill.TotalPrice),
		description)
}

func formatBillList(bills []model.Bill) string {
	var sb strings.Builder
	sb.WriteString("📋 Your Recent Bills:\n\n")

	for i, bill := range bills {
		description := "No description"
		if bill.Description != nil && *bill.Description != "" {
			description = *bill.Description
		}

		sb.WriteString(fmt.Sprintf("%d. %s - %s %s\n", i+1, orUnknown(bill.ShopName), bill.Currency, orNAFloat(bill.TotalPrice)))
		sb.WriteString(fmt.Sprintf("   📅 %s\n", bill.CreatedAt.Format("2006-01-02")))
		sb.WriteString(fmt.Sprintf("   📝 %s\n\n", description))
	}

	sb.WriteString("\nUse /export to download all bills as Excel!")
	return sb.String()
}

// exportFilename mirrors the range in the delivered file name.
func exportFilename(startDate, endDate *string) (filename, caption string) {
	switch {
	case startDate != nil && endDate != nil:
		return fmt.Sprintf("bills_%s_to_%s.xlsx", *startDate, *endDate),
			fmt.Sprintf("Your bills from %s to %s", *startDate, *endDate)
	case startDate != nil:
		return fmt.Sprintf("bills_from_%s.xlsx", *startDate),
			fmt.Sprintf("Your bills from %s onwards", *startDate)
	case endDate != nil:
		return fmt.Sprintf("bills_until_%s.xlsx", *endDate),
			fmt.Sprintf("Your bills until %s", *endDate)
	default:
		return "bills_all.xlsx", "All your bills exported successfully"
	}
}

func boundText(date *string) string {
	if date == nil {
		return "open"
	}
	return *date
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return "Unknown"
	}
	return *s
}

func orNAFloat(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *f)
}
