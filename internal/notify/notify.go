package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/config"
)

// Notifier tells a customer their document is ready. Implementations are
// best-effort: callers log failures and move on.
type Notifier interface {
	DocumentReady(ctx context.Context, to, serviceName, sessionID string) error
}

// NoOpNotifier is used when no SMTP host is configured.
type NoOpNotifier struct{}

func (NoOpNotifier) DocumentReady(context.Context, string, string, string) error {
	return nil
}

// SMTPNotifier sends the ready email over plain SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

func (n *SMTPNotifier) DocumentReady(_ context.Context, to, serviceName, sessionID string) error {
	statusURL := fmt.Sprintf("%s/api/status/%s", n.cfg.PublicURL, sessionID)
	subject := fmt.Sprintf("Your %s is ready", serviceName)
	body := fmt.Sprintf(
		"<p>Your %s has been generated.</p><p><a href=%q>Check status and download</a></p>"+
			"<p>The download link expires after a short while.</p>",
		serviceName, statusURL,
	)

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\n%s\r\n%s", to, subject, mime, body))

	return smtp.SendMail(addr, auth, n.cfg.From, []string{to}, msg)
}

func provideNotifier(cfg config.Config, log *zap.Logger) Notifier {
	if cfg.SMTP.Host == "" {
		log.Info("smtp not configured, ready notifications disabled")
		return NoOpNotifier{}
	}
	return NewSMTP(cfg.SMTP)
}

var Module = fx.Module("notify",
	fx.Provide(provideNotifier),
)
