package promo

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func item(id string, mods ...func(*Item)) Item {
	it := Item{
		ID:        id,
		Title:     "Promo " + id,
		ImageURL:  "https://cdn.example.com/" + id + ".png",
		LinkURL:   "https://example.com/" + id,
		StartTime: "2026-01-01T00:00:00Z",
		EndTime:   "2026-12-31T00:00:00Z",
		SizeClass: SizeBanner,
	}
	for _, mod := range mods {
		mod(&it)
	}
	return it
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestActiveSet(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		items []Item
		want  []string
	}{
		{
			name: "within window",
			items: []Item{
				item("a"),
			},
			want: []string{"a"},
		},
		{
			name: "before start excluded",
			items: []Item{
				item("a", func(it *Item) { it.StartTime = "2026-07-01T00:00:00Z" }),
			},
			want: []string{},
		},
		{
			name: "start equal to now is active",
			items: []Item{
				item("a", func(it *Item) { it.StartTime = "2026-06-15T12:00:00Z" }),
			},
			want: []string{"a"},
		},
		{
			name: "end equal to now is expired",
			items: []Item{
				item("a", func(it *Item) { it.EndTime = "2026-06-15T12:00:00Z" }),
			},
			want: []string{},
		},
		{
			name: "past end excluded",
			items: []Item{
				item("a", func(it *Item) { it.EndTime = "2026-02-01T00:00:00Z" }),
			},
			want: []string{},
		},
		{
			name: "privileged without end is active",
			items: []Item{
				item("a", func(it *Item) { it.EndTime = ""; it.Privileged = true }),
			},
			want: []string{"a"},
		},
		{
			name: "non-privileged without end is never active",
			items: []Item{
				item("a", func(it *Item) { it.EndTime = "" }),
			},
			want: []string{},
		},
		{
			name: "malformed start excluded",
			items: []Item{
				item("a", func(it *Item) { it.StartTime = "not a time" }),
				item("b"),
			},
			want: []string{"b"},
		},
		{
			name: "malformed end excluded",
			items: []Item{
				item("a", func(it *Item) { it.EndTime = "later" }),
			},
			want: []string{},
		},
		{
			name: "order preserved",
			items: []Item{
				item("c"),
				item("a", func(it *Item) { it.StartTime = "2026-07-01T00:00:00Z" }),
				item("b"),
				item("d", func(it *Item) { it.Privileged = true; it.EndTime = "" }),
			},
			want: []string{"c", "b", "d"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ids(ActiveSet(tc.items, now))
			if len(got) != len(tc.want) {
				t.Fatalf("ActiveSet returned %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("ActiveSet returned %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestActiveSetEmptyInput(t *testing.T) {
	if got := ActiveSet(nil, time.Now()); len(got) != 0 {
		t.Fatalf("ActiveSet(nil) = %v, want empty", got)
	}
}

func TestWindow(t *testing.T) {
	it := item("a", func(it *Item) {
		it.StartTime = "2026-03-01 09:30:00"
		it.EndTime = ""
	})
	start, end, ok := it.Window()
	if !ok {
		t.Fatal("Window() not ok for legacy local-style timestamp")
	}
	if end != nil {
		t.Fatalf("Window() end = %v, want nil", end)
	}
	want := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	if !start.Equal(want) {
		t.Fatalf("Window() start = %v, want %v", start, want)
	}

	it.EndTime = "garbage"
	if _, _, ok := it.Window(); ok {
		t.Fatal("Window() ok with unparseable end")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		mod   func(*Item)
		field string
	}{
		{"missing title", func(it *Item) { it.Title = "  " }, "title"},
		{"missing link", func(it *Item) { it.LinkURL = "" }, "link_url"},
		{"non-http link", func(it *Item) { it.LinkURL = "ftp://example.com/x" }, "link_url"},
		{"relative link", func(it *Item) { it.LinkURL = "/promo" }, "link_url"},
		{"bad image url", func(it *Item) { it.ImageURL = "not a url" }, "image_url"},
		{"oversized inline image", func(it *Item) { it.ImageURL = "data:image/png;base64," + strings.Repeat("A", maxImageBytes) }, "image_url"},
		{"unknown size class", func(it *Item) { it.SizeClass = "billboard" }, "size_class"},
		{"unparseable start", func(it *Item) { it.StartTime = "tomorrow" }, "start_time"},
		{"unparseable end", func(it *Item) { it.EndTime = "next week" }, "end_time"},
		{"end before start", func(it *Item) { it.StartTime = "2026-06-01T00:00:00Z"; it.EndTime = "2026-05-01T00:00:00Z" }, "end_time"},
		{"end equal to start", func(it *Item) { it.StartTime = "2026-06-01T00:00:00Z"; it.EndTime = "2026-06-01T00:00:00Z" }, "end_time"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(item("x", tc.mod))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("Validate() rejected field %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestValidateAccepts(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Item)
	}{
		{"complete item", func(it *Item) {}},
		{"empty image url", func(it *Item) { it.ImageURL = "" }},
		{"small inline image", func(it *Item) { it.ImageURL = "data:image/png;base64,iVBORw0KGgo=" }},
		{"empty size class", func(it *Item) { it.SizeClass = "" }},
		{"no end time", func(it *Item) { it.EndTime = "" }},
		{"date-only times", func(it *Item) { it.StartTime = "2026-01-01"; it.EndTime = "2026-01-02" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := Validate(item("x", tc.mod)); err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}
