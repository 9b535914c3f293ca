// Package delivery sends rendered notification batches to the user.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/logging"
)

const (
	// BackendSendGrid delivers email through the SendGrid API.
	BackendSendGrid = "sendgrid"
	// BackendTelegram delivers chat messages through a Telegram bot.
	BackendTelegram = "telegram"
	// BackendLog only writes messages to the log.
	BackendLog = "log"
)

// ErrDelivery wraps every failed send.
var ErrDelivery = errors.New("delivery failed")

// Attachment is a file sent along with a message.
type Attachment struct {
	Filename    string
	ContentType string
	// ContentID lets an email body reference the attachment inline.
	ContentID string
	Data      []byte
}

// Message is one rendered batch for one recipient.
type Message struct {
	Subject     string
	Body        string
	Recipient   string
	Attachments []Attachment
}

// Gateway sends messages. Send returns nil only when the backend accepted the message.
type Gateway interface {
	Send(ctx context.Context, msg Message) error
}

// New builds the gateway selected in settings.
func New(settings config.DeliverySettings, log logging.Logger) (Gateway, error) {
	if log == nil {
		log = logging.Nop()
	}
	switch settings.Backend {
	case BackendSendGrid:
		return NewSendGrid(settings.SendGridAPIKey, settings.SendGridFromAddress, settings.SendGridFromName), nil
	case BackendTelegram:
		g, err := NewTelegram(settings.TelegramToken)
		if err != nil {
			return nil, err
		}
		return g, nil
	case BackendLog:
		return NewLog(log), nil
	default:
		return nil, fmt.Errorf("unknown delivery backend %q", settings.Backend)
	}
}
