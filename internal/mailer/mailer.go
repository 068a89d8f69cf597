// Package mailer delivers bill reports over SMTP.
package mailer

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/ivanoskov/billbot/pkg/logger"
)

// Sender is the delivery contract consumed by the orchestrator.
type Sender interface {
	SendBillsReport(to string, excelPath string, imagePaths []string, startDate, endDate *string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendBillsReport sends the Excel report and bill images to the recipient.
// Missing attachment files are skipped rather than failing the whole send.
func (m *SMTPMailer) SendBillsReport(to string, excelPath string, imagePaths []string, startDate, endDate *string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)

	subject := "Your Bill Report"
	dateRange := ""
	if startDate != nil && endDate != nil {
		subject = fmt.Sprintf("Your Bill Report - %s to %s", *startDate, *endDate)
		dateRange = fmt.Sprintf(" from %s to %s", *startDate, *endDate)
	}
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", fmt.Sprintf(`Hello!

Please find attached your bill report%s.

This email contains:
- Excel report with all bills and summary
- Individual bill images

If you have any questions, please reply to this email.

Best regards,
BillBot Team
`, dateRange))

	if excelPath != "" && fileExists(excelPath) {
		msg.Attach(excelPath, gomail.Rename("bills_report.xlsx"))
	}

	for i, imagePath := range imagePaths {
		if !fileExists(imagePath) {
			continue
		}
		name := fmt.Sprintf("bill_%d%s", i+1, filepath.Ext(imagePath))
		msg.Attach(imagePath, gomail.Rename(name))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	logger.Info("report email sent", zap.String("to", to))
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
