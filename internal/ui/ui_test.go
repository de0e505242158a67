package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

func plain(t *testing.T) (*bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	SetColorMode("never")
	t.Cleanup(func() {
		SetOutput(nil, nil)
		SetTheme("classic")
	})
	return &out, &errOut
}

func TestOKFail(t *testing.T) {
	out, errOut := plain(t)
	OK("added")
	Fail("boom")
	Hint("try again")

	if got := out.String(); got != "✔ added\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := errOut.String(); got != "✖ boom\ntry again\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestSetTheme_Mono(t *testing.T) {
	out, _ := plain(t)
	SetTheme("mono")
	OK("done")
	if got := out.String(); got != "x done\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := TodoLine(model.Todo{Description: "write", Done: true}); got != "[x] write" {
		t.Errorf("TodoLine = %q", got)
	}
	if got := RenderPanel([]string{"hi"}); !strings.HasPrefix(got, "+") {
		t.Errorf("mono panel should use ascii corners: %q", got)
	}
}

func TestSetTheme_UnknownIsClassic(t *testing.T) {
	plain(t)
	SetTheme("sparkly")
	if Current().Name != "classic" {
		t.Errorf("theme = %q, want classic", Current().Name)
	}
}

func TestProgressBar(t *testing.T) {
	plain(t)
	tests := []struct {
		done, total, width int
		want               string
	}{
		{0, 0, 10, "░░░░░░░░░░   0%"},
		{5, 10, 10, "█████░░░░░  50%"},
		{3, 2, 5, "█████ 150%"},
		{1, 1, 1, "█████ 100%"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.done, tt.total, tt.width); got != tt.want {
			t.Errorf("ProgressBar(%d, %d, %d) = %q, want %q", tt.done, tt.total, tt.width, got, tt.want)
		}
	}
}

func TestListLines(t *testing.T) {
	plain(t)
	created := time.Date(2024, 3, 4, 9, 30, 0, 0, time.Local)
	doneAt := created.Add(time.Hour)
	lines := ListLines([]model.Todo{
		{ID: "0123456789abcdef", Description: "buy milk", CreatedAt: created},
		{ID: "42", Description: "ship", Done: true, CreatedAt: created, DoneAt: &doneAt},
	})
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if want := "01234567 ☐ buy milk  created Mar 4 09:30"; lines[0] != want {
		t.Errorf("line 0 = %q, want %q", lines[0], want)
	}
	if want := "42 ☑ ship  created Mar 4 09:30, done Mar 4 10:30"; lines[1] != want {
		t.Errorf("line 1 = %q, want %q", lines[1], want)
	}

	empty := ListLines(nil)
	if len(empty) != 1 || empty[0] != "nothing here" {
		t.Errorf("empty = %q", empty)
	}
}

func TestCountFooterAndTabs(t *testing.T) {
	plain(t)
	if got := CountFooter(3); got != "3 items left" {
		t.Errorf("CountFooter = %q", got)
	}
	if got := Tabs(model.StatusDone); got != "1 All  2 Active  3 Completed" {
		t.Errorf("Tabs = %q", got)
	}
}

func TestAge(t *testing.T) {
	tests := map[time.Duration]string{
		0:                "just now",
		12 * time.Second: "12s ago",
		5 * time.Minute:  "5m ago",
		3 * time.Hour:    "3h ago",
	}
	for d, want := range tests {
		if got := Age(d); got != want {
			t.Errorf("Age(%v) = %q, want %q", d, got, want)
		}
	}
}
