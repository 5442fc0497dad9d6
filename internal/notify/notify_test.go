package notify

import (
	"strings"
	"testing"
)

func TestTerminalWrite(t *testing.T) {
	var out strings.Builder
	term := NewTerminal(strings.NewReader(""), &out)

	term.Success("Product created", "")
	term.Error("Update failed", "API error (status: 500)")
	term.Info("currently logged in", "")

	got := out.String()
	for _, want := range []string{
		"[OK] Product created\n",
		"[ERROR] Update failed: API error (status: 500)\n",
		"[INFO] currently logged in\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestTerminalConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{"yes\n", true},
		{"  y  \n", true},
		{"n\n", false},
		{"no\n", false},
		{"\n", false},
		{"whatever\n", false},
		{"", false}, // EOF declines
	}

	for _, tt := range tests {
		var out strings.Builder
		term := NewTerminal(strings.NewReader(tt.input), &out)
		if got := term.Confirm("Delete product?"); got != tt.want {
			t.Errorf("Confirm with input %q = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(out.String(), "Delete product? [y/N]:") {
			t.Errorf("prompt not written: %q", out.String())
		}
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{Answers: []bool{true, false}}

	r.Success("a", "1")
	r.Error("b", "2")

	items := r.Notifications()
	if len(items) != 2 {
		t.Fatalf("got %d notifications, want 2", len(items))
	}
	if items[0].Level != LevelSuccess || items[1].Level != LevelError {
		t.Errorf("unexpected levels: %+v", items)
	}

	if !r.Confirm("first") {
		t.Error("first canned answer should be true")
	}
	if r.Confirm("second") {
		t.Error("second canned answer should be false")
	}
	if r.Confirm("third") {
		t.Error("exhausted answers should decline")
	}
	if got := r.Prompts(); len(got) != 3 || got[0] != "first" {
		t.Errorf("prompts = %v", got)
	}
}
