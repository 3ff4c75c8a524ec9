package domain

import (
	"testing"
	"time"
)

func TestSortMessagesByCreatedAt_OrdersCopy(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	fetched := []Message{
		{ID: 2, CreatedAt: day2},
		{ID: 1, CreatedAt: day1},
	}

	sorted := SortMessagesByCreatedAt(fetched)

	if sorted[0].ID != 1 || sorted[1].ID != 2 {
		t.Fatalf("unexpected order: %d, %d", sorted[0].ID, sorted[1].ID)
	}
	if fetched[0].ID != 2 {
		t.Fatalf("input slice was mutated: first id %d", fetched[0].ID)
	}
}

func TestSortMessagesByCreatedAt_TiesUseID(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	sorted := SortMessagesByCreatedAt([]Message{{ID: 9, CreatedAt: at}, {ID: 3, CreatedAt: at}, {ID: 5, CreatedAt: at}})

	for i, want := range []int64{3, 5, 9} {
		if sorted[i].ID != want {
			t.Fatalf("position %d: expected id %d, got %d", i, want, sorted[i].ID)
		}
	}
}

func TestSortMessagesByCreatedAt_Empty(t *testing.T) {
	if got := SortMessagesByCreatedAt(nil); len(got) != 0 {
		t.Fatalf("expected empty result, got %d items", len(got))
	}
}

func TestSortChatsByName_LocaleOrder(t *testing.T) {
	chats := []Chat{{ID: 1, Name: "zeta"}, {ID: 2, Name: "Beta"}, {ID: 3, Name: "alpha"}}

	sorted := SortChatsByName(chats)

	want := []string{"alpha", "Beta", "zeta"}
	for i, name := range want {
		if sorted[i].Name != name {
			t.Fatalf("position %d: expected %q, got %q", i, name, sorted[i].Name)
		}
	}
	if chats[0].Name != "zeta" {
		t.Fatalf("input slice was mutated")
	}
}

func TestSortChatsByName_SameNameKeepsIDOrder(t *testing.T) {
	chats := []Chat{{ID: 7, Name: "general"}, {ID: 2, Name: "general"}, {ID: 5, Name: "alpha"}, {ID: 4, Name: "general"}}

	sorted := SortChatsByName(chats)

	want := []int64{5, 2, 4, 7}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("position %d: expected chat %d, got %d", i, id, sorted[i].ID)
		}
	}
}
