package delivery

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// telegramTextLimit is the longest text Telegram accepts in one message.
const telegramTextLimit = 4096

// telegramSender is the part of *tele.Bot used here.
type telegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram delivers messages to a chat through a bot. The recipient is the chat id.
type Telegram struct {
	bot telegramSender
}

// NewTelegram connects a bot with token.
func NewTelegram(token string) (*Telegram, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Telegram{bot: b}, nil
}

// Send posts the subject and body as one text message, then each attachment as a photo.
func (g *Telegram) Send(ctx context.Context, msg Message) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(msg.Recipient), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: telegram: bad chat id %q", ErrDelivery, msg.Recipient)
	}
	chat := &tele.Chat{ID: chatID}

	text := msg.Subject
	if msg.Body != "" {
		text += "\n\n" + msg.Body
	}
	if _, err := g.bot.Send(chat, clip(text, telegramTextLimit), &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		return fmt.Errorf("%w: telegram: %v", ErrDelivery, err)
	}

	for _, a := range msg.Attachments {
		if err := ctx.Err(); err != nil {
			return err
		}
		photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(a.Data)), Caption: a.Filename}
		if _, err := g.bot.Send(chat, photo); err != nil {
			return fmt.Errorf("%w: telegram: attachment %s: %v", ErrDelivery, a.Filename, err)
		}
	}
	return nil
}

// clip cuts s to at most limit runes.
func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
