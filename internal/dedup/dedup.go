// Package dedup collapses drained queue entries into one notification per conversation.
package dedup

import "github.com/cristianoliveira/messenger-mirror/internal/notification"

// ByConversation keeps the most recently drained notification for each
// conversation id. Entries must be in drain order, oldest first. The result is
// ordered by the position where each id was first seen.
func ByConversation(entries []notification.Entry) []notification.Notification {
	index := make(map[string]int, len(entries))
	batch := make([]notification.Notification, 0, len(entries))
	for _, e := range entries {
		if i, ok := index[e.ConversationID]; ok {
			batch[i] = e.Notification
			continue
		}
		index[e.ConversationID] = len(batch)
		batch = append(batch, e.Notification)
	}
	return batch
}

// Names returns the display names of a batch in order, skipping repeats.
func Names(batch []notification.Notification) []string {
	seen := make(map[string]bool, len(batch))
	names := make([]string, 0, len(batch))
	for _, n := range batch {
		if seen[n.DisplayName] {
			continue
		}
		seen[n.DisplayName] = true
		names = append(names, n.DisplayName)
	}
	return names
}
