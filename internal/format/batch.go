// Package format renders notification batches for delivery and queue listings for the CLI.
package format

import (
	"fmt"
	"strings"

	"github.com/cristianoliveira/messenger-mirror/internal/dedup"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
)

// previewIndent prefixes the preview line under each notification.
const previewIndent = "    "

// Subject renders the batch subject: "Message(s) from Alice, Bob".
func Subject(batch []notification.Notification) string {
	return "Message(s) from " + strings.Join(dedup.Names(batch), ", ")
}

// Line renders a single notification as "[name] @ link", followed by the
// indented preview on its own line when there is one.
func Line(n notification.Notification) string {
	line := fmt.Sprintf("[%s] @ %s", n.DisplayName, n.Link)
	if n.PreviewText != "" {
		line += "\n" + previewIndent + n.PreviewText
	}
	return line
}

// Body renders one Line per notification, in batch order.
func Body(batch []notification.Notification) string {
	lines := make([]string, 0, len(batch))
	for _, n := range batch {
		lines = append(lines, Line(n))
	}
	return strings.Join(lines, "\n")
}
