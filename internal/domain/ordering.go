package domain

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortMessagesByCreatedAt returns a copy of msgs ordered by creation time.
// Messages created at the same instant keep ID order.
func SortMessagesByCreatedAt(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}

		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

// SortChatsByName returns a copy of chats ordered by locale-aware name comparison.
// Case still separates otherwise equal names, lower case first. Identical
// names keep ID order.
func SortChatsByName(chats []Chat) []Chat {
	out := make([]Chat, len(chats))
	copy(out, chats)
	// Collator keeps internal buffers, so one per call.
	c := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		if cmp := c.CompareString(out[i].Name, out[j].Name); cmp != 0 {
			return cmp < 0
		}

		return out[i].ID < out[j].ID
	})

	return out
}
