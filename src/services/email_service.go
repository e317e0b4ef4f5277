package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/cryptotax/src/config"
	"github.com/username/cryptotax/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		logger.L.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{}
	}
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
}

func (s *MailgunEmailService) SendReportReadyEmail(ctx context.Context, toEmail, username, runID string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Your Cryptotax Report Is Ready"
	recipient := toEmail

	plainTextBody := fmt.Sprintf(`Hi %s,

Your capital gains report run %s has completed and is ready to view in your dashboard.

Thanks,
The Cryptotax Team`, username, runID)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>Your capital gains report run <strong>%s</strong> has completed and is ready to view in your dashboard.</p>
			<p>Thanks,<br>The Cryptotax Team</p>
		</body>
	</html>`, username, runID)

	message := s.mg.NewMessage(from, subject, plainTextBody, recipient)
	message.SetHtml(htmlBody)
	message.AddTag("report-ready")

	sendCtx, cancel := context.WithTimeout(ctx, time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(sendCtx, message)
	if err != nil {
		logger.L.Error("Failed to send report-ready email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Report-ready email sent successfully via Mailgun", "to", toEmail, "id", id, "mailgunResp", resp)
	return nil
}

type MockEmailService struct{}

func (m *MockEmailService) SendReportReadyEmail(_ context.Context, toEmail, username, runID string) error {
	logger.L.Info("---- MOCK EMAIL SERVICE ----",
		"action", "SendReportReadyEmail", "to", toEmail, "username", username, "runID", runID)
	return nil
}
