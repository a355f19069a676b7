package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/papermint/papermint/internal/config"
)

func TestProvideNotifierSelectsBackend(t *testing.T) {
	log := zap.NewNop()

	n := provideNotifier(config.Config{}, log)
	assert.IsType(t, NoOpNotifier{}, n)

	n = provideNotifier(config.Config{
		SMTP: config.SMTPConfig{Host: "smtp.example.com", Port: 587},
	}, log)
	assert.IsType(t, &SMTPNotifier{}, n)
}

func TestNoOpNotifier(t *testing.T) {
	assert.NoError(t, NoOpNotifier{}.DocumentReady(context.Background(), "x@example.com", "Payslip", "sess-1"))
}
