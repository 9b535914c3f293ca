package delivery

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// mailSender is the part of the SendGrid client used here.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGrid delivers plain-text email.
type SendGrid struct {
	client   mailSender
	fromAddr string
	fromName string
}

// NewSendGrid returns a SendGrid gateway sending from fromAddr.
func NewSendGrid(apiKey, fromAddr, fromName string) *SendGrid {
	return &SendGrid{
		client:   sendgrid.NewSendClient(apiKey),
		fromAddr: fromAddr,
		fromName: fromName,
	}
}

// Send posts msg to the SendGrid mail endpoint. Attachments are inlined.
func (g *SendGrid) Send(ctx context.Context, msg Message) error {
	email := g.build(msg)
	resp, err := g.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("%w: sendgrid: %v", ErrDelivery, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: sendgrid: status %d: %s", ErrDelivery, resp.StatusCode, resp.Body)
	}
	return nil
}

func (g *SendGrid) build(msg Message) *mail.SGMailV3 {
	from := mail.NewEmail(g.fromName, g.fromAddr)
	to := mail.NewEmail("", msg.Recipient)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")
	for _, a := range msg.Attachments {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(a.Data))
		att.SetType(a.ContentType)
		att.SetFilename(a.Filename)
		att.SetDisposition("inline")
		if a.ContentID != "" {
			att.SetContentID(a.ContentID)
		}
		email.AddAttachment(att)
	}
	return email
}
