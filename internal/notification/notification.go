// Package notification defines the record produced for every detected unread message.
package notification

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNoConversationID is returned when a thread link carries no trailing numeric id.
var ErrNoConversationID = errors.New("no conversation id in link")

// ErrInvalidNotification is returned by Validate.
var ErrInvalidNotification = errors.New("invalid notification")

var conversationIDPattern = regexp.MustCompile(`/([0-9]+)/?$`)

// Notification is a single detected incoming message. It is not modified after creation.
type Notification struct {
	ConversationID string
	DisplayName    string
	PreviewText    string
	Link           string
	Avatar         []byte
	DetectedAt     time.Time
}

// Entry is a queued notification together with its store sequence number.
type Entry struct {
	Seq int64
	Notification
}

// Validate checks the conversation id, which must be a non-empty run of digits.
func (n Notification) Validate() error {
	if n.ConversationID == "" {
		return fmt.Errorf("%w: empty conversation id", ErrInvalidNotification)
	}
	for _, r := range n.ConversationID {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: conversation id %q is not numeric", ErrInvalidNotification, n.ConversationID)
		}
	}
	return nil
}

// HasAvatar reports whether avatar bytes were fetched.
func (n Notification) HasAvatar() bool {
	return len(n.Avatar) > 0
}

// ExtractConversationID returns the trailing digits of a thread link,
// e.g. "https://www.messenger.com/t/48213/" yields "48213".
func ExtractConversationID(link string) (string, error) {
	m := conversationIDPattern.FindStringSubmatch(strings.TrimSpace(link))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrNoConversationID, link)
	}
	return m[1], nil
}

// ConversationLink builds the canonical link for a conversation id.
func ConversationLink(baseURL, conversationID string) string {
	return fmt.Sprintf("%s/t/%s/", strings.TrimRight(baseURL, "/"), conversationID)
}

// New builds a Notification from raw extracted fields. The conversation id is taken
// from href, and the link is rebuilt in canonical form against baseURL.
func New(baseURL, href, displayName, previewText string, avatar []byte, detectedAt time.Time) (Notification, error) {
	id, err := ExtractConversationID(href)
	if err != nil {
		return Notification{}, err
	}
	n := Notification{
		ConversationID: id,
		DisplayName:    strings.TrimSpace(displayName),
		PreviewText:    strings.TrimSpace(previewText),
		Link:           ConversationLink(baseURL, id),
		Avatar:         avatar,
		DetectedAt:     detectedAt,
	}
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	return n, nil
}
