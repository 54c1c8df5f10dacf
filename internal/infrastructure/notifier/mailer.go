package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"text/template"

	"go.uber.org/zap"
	"marketplace.backend/internal/config"
	"marketplace.backend/internal/domain/entities"
	"marketplace.backend/internal/usecases"
	"marketplace.backend/pkg/logger"
)

var emailTemplates = template.Must(template.New("email").Option("missingkey=zero").Parse(`
{{define "` + usecases.TemplateSellerRequestReceived + `"}}Hello {{.name}},

We received your seller application for {{.shopName}}. Our team will review it and get back to you by email.
{{end}}
{{define "` + usecases.TemplateSellerApproved + `"}}Hello {{.name}},

Your seller account for {{.shopName}} is active. You can start a free trial or choose a plan from your dashboard.
{{end}}
{{define "` + usecases.TemplateSellerRejected + `"}}Hello {{.name}},

Your seller application was not approved.

Reason: {{.reason}}

You can correct the information and submit a new application at any time.
{{end}}
{{define "` + usecases.TemplateSubscriptionActivated + `"}}Hello {{.name}},

Your {{.planId}} plan ({{.billingCycle}}) is active until {{.expiresAt}}.
{{end}}
{{define "` + usecases.TemplateSubscriptionExpired + `"}}Hello {{.name}},

Your {{.planId}} plan expired on {{.expiresAt}}. Renew it to keep selling.
{{end}}
`))

var sendMail = smtp.SendMail

// Mailer renders templated emails and relays them over SMTP. With no host
// configured it only logs what it would have sent.
type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Render returns the plain text body for msg
func Render(msg entities.EmailMessage) (string, error) {
	if emailTemplates.Lookup(msg.Template) == nil {
		return "", fmt.Errorf("unknown email template %q", msg.Template)
	}
	var buf bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&buf, msg.Template, msg.Context); err != nil {
		return "", fmt.Errorf("render %s: %w", msg.Template, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// Send renders and delivers one email
func (m *Mailer) Send(ctx context.Context, msg entities.EmailMessage) error {
	if msg.To == "" {
		return fmt.Errorf("email %q has no recipient", msg.Template)
	}
	body, err := Render(msg)
	if err != nil {
		return err
	}

	if !m.cfg.Enabled() {
		logger.Info(ctx, "SMTP disabled, email not sent",
			zap.String("to", msg.To),
			zap.String("template", msg.Template),
		)
		return nil
	}

	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	raw := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", m.cfg.From, msg.To, msg.Subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			strings.ReplaceAll(body, "\n", "\r\n"),
	)

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := sendMail(addr, auth, m.cfg.From, []string{msg.To}, raw); err != nil {
		return fmt.Errorf("smtp send to %s: %w", addr, err)
	}

	logger.Debug(ctx, "Email sent", zap.String("to", msg.To), zap.String("template", msg.Template))
	return nil
}
