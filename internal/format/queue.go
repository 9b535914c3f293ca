package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cristianoliveira/messenger-mirror/internal/colors"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/dustin/go-humanize"
)

// Column widths for the queue listing.
const (
	seqWidth     = 5
	idWidth      = 18
	nameWidth    = 20
	previewWidth = 36
	avatarWidth  = 8
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ansiColorNumber(colors.Blue)))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// QueueTable renders pending queue entries as a table with relative ages.
func QueueTable(entries []notification.Entry, now time.Time) string {
	if len(entries) == 0 {
		return mutedStyle.Render("Queue is empty")
	}
	var b strings.Builder
	header := fmt.Sprintf("%*s  %-*s  %-*s  %-*s  %-*s  %s",
		seqWidth, "SEQ",
		idWidth, "CONVERSATION",
		nameWidth, "NAME",
		previewWidth, "PREVIEW",
		avatarWidth, "AVATAR",
		"AGE",
	)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%*d  %-*s  %-*s  %-*s  %-*s  %s\n",
			seqWidth, e.Seq,
			idWidth, truncate(e.ConversationID, idWidth),
			nameWidth, truncate(e.DisplayName, nameWidth),
			previewWidth, truncate(e.PreviewText, previewWidth),
			avatarWidth, avatarSize(e.Avatar),
			age(e.DetectedAt, now),
		)
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d pending", len(entries))))
	return b.String()
}

func avatarSize(avatar []byte) string {
	if len(avatar) == 0 {
		return "-"
	}
	return humanize.Bytes(uint64(len(avatar)))
}

func age(at, now time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return humanize.RelTime(at, now, "ago", "from now")
}

// truncate shortens s to width runes, marking the cut with "...".
func truncate(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width < 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// ansiColorNumber extracts the color number from an ANSI escape sequence.
// For example, "\033[0;34m" yields "34".
func ansiColorNumber(ansi string) string {
	if len(ansi) < 2 {
		return ""
	}
	lastSemicolon := strings.LastIndex(ansi, ";")
	if lastSemicolon == -1 {
		return ""
	}
	return ansi[lastSemicolon+1 : len(ansi)-1]
}
