package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestProductWireShape(t *testing.T) {
	p := Product{
		ID:          "p1",
		Title:       "Apples",
		Category:    "fruit",
		Unit:        "kg",
		OriginPrice: 100,
		Price:       80,
		IsEnabled:   1,
		ImageURL:    "https://img.example.com/main.jpg",
	}
	p.ImagesURL[0] = "https://img.example.com/a.jpg"

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Empty slots travel as empty strings, never dropped: the API always
	// sees the full fixed-size gallery.
	if !strings.Contains(string(data), `"imagesUrl":["https://img.example.com/a.jpg","","","",""]`) {
		t.Errorf("imagesUrl not serialized as fixed slots: %s", data)
	}
	if !strings.Contains(string(data), `"is_enabled":1`) {
		t.Errorf("is_enabled not serialized as number: %s", data)
	}

	var back Product
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != p {
		t.Errorf("round trip mismatch: %+v != %+v", back, p)
	}
}

func TestEnabled(t *testing.T) {
	if (Product{IsEnabled: 0}).Enabled() {
		t.Error("IsEnabled 0 should be disabled")
	}
	if !(Product{IsEnabled: 1}).Enabled() {
		t.Error("IsEnabled 1 should be enabled")
	}
}

func TestNewDraftDefaults(t *testing.T) {
	d := NewDraft()
	if d.IsEnabled != 1 {
		t.Errorf("new draft IsEnabled = %d, want 1", d.IsEnabled)
	}
	if d.ID != "" || d.Title != "" {
		t.Errorf("new draft should be empty: %+v", d)
	}
}

func TestDraftFromRoundTrip(t *testing.T) {
	p := Product{
		ID:       "p1",
		Title:    "Beef",
		Category: "meat",
		Unit:     "kg",
		Price:    300,
	}
	p.ImagesURL[2] = "https://img.example.com/c.jpg"

	d := DraftFrom(p)
	if d.ID != p.ID || d.Title != p.Title || d.ImagesURL != p.ImagesURL {
		t.Errorf("DraftFrom() = %+v", d)
	}
}

func TestSetImageBounds(t *testing.T) {
	d := NewDraft()
	d.SetImage(-1, "ignored")
	d.SetImage(ImageSlotCount, "ignored")
	d.SetImage(0, "https://img.example.com/a.jpg")
	d.SetImage(ImageSlotCount-1, "https://img.example.com/e.jpg")

	if d.ImagesURL[0] != "https://img.example.com/a.jpg" {
		t.Errorf("slot 0 = %q", d.ImagesURL[0])
	}
	if d.ImagesURL[ImageSlotCount-1] != "https://img.example.com/e.jpg" {
		t.Errorf("last slot = %q", d.ImagesURL[ImageSlotCount-1])
	}
}

func TestImageSlotsURLs(t *testing.T) {
	var s ImageSlots
	if got := s.URLs(); len(got) != 0 {
		t.Errorf("empty slots URLs() = %v", got)
	}
	s[1] = "b"
	s[3] = "d"
	got := s.URLs()
	if len(got) != 2 || got[0] != "b" || got[1] != "d" {
		t.Errorf("URLs() = %v", got)
	}
}

func TestSetEnabled(t *testing.T) {
	d := NewDraft()
	d.SetEnabled(false)
	if d.IsEnabled != 0 {
		t.Errorf("IsEnabled = %d, want 0", d.IsEnabled)
	}
	d.SetEnabled(true)
	if d.IsEnabled != 1 {
		t.Errorf("IsEnabled = %d, want 1", d.IsEnabled)
	}
}
