package notification

import (
	"account-service/internal/config"
	"account-service/internal/logger"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer sends templates over SMTP. The logo from the assets directory is
// embedded inline when present.
type Mailer struct {
	dialer   sender
	from     string
	logoPath string
}

func NewMailer(cfg config.SMTPConfig, assetsDir string) *Mailer {
	return &Mailer{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.From,
		logoPath: filepath.Join(assetsDir, LogoFile),
	}
}

func (m *Mailer) Send(ctx context.Context, to string, tmpl Template, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rendered, err := Render(tmpl, data)
	if err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", rendered.Subject)
	msg.SetBody("text/plain", rendered.Text)
	msg.AddAlternative("text/html", rendered.HTML)

	if _, err := os.Stat(m.logoPath); err == nil {
		msg.Embed(m.logoPath, gomail.SetHeader(map[string][]string{
			"Content-ID": {"<" + LogoCID + ">"},
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		logger.Error("Failed to send email",
			zap.String("event", "email_send_failed"),
			zap.String("template", string(tmpl)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send %s email: %w", tmpl, err)
	}

	logger.Info("Email sent",
		zap.String("event", "email_sent"),
		zap.String("template", string(tmpl)),
	)
	return nil
}

// LogNotifier renders templates and logs them instead of sending. Used when
// no SMTP host is configured.
type LogNotifier struct{}

func (LogNotifier) Send(ctx context.Context, to string, tmpl Template, data Data) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rendered, err := Render(tmpl, data)
	if err != nil {
		return err
	}

	logger.Info("Email not sent, SMTP disabled",
		zap.String("event", "email_logged"),
		zap.String("to", to),
		zap.String("subject", rendered.Subject),
		zap.String("text", rendered.Text),
	)
	return nil
}

// New picks the SMTP mailer when a host is configured.
func New(cfg *config.Config) Notifier {
	if cfg.SMTP.Enabled() {
		return NewMailer(cfg.SMTP, cfg.Assets.Dir)
	}
	return LogNotifier{}
}
