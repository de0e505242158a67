package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

const timeLayout = "Jan 2 15:04"

// ShortID is the id prefix shown next to each todo.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Checkbox renders the done box for t.
func Checkbox(t model.Todo) string {
	if t.Done {
		return current.Success.Render(current.BoxChecked)
	}
	return current.Muted.Render(current.BoxUnchecked)
}

// TodoLine renders "☐ description" with done todos struck through.
func TodoLine(t model.Todo) string {
	text := t.Description
	if t.Done {
		text = current.Done.Render(text)
	}
	return Checkbox(t) + " " + text
}

// Timestamps renders "created Jan 2 15:04" and the done time when set.
func Timestamps(t model.Todo) string {
	var parts []string
	if !t.CreatedAt.IsZero() {
		parts = append(parts, "created "+t.CreatedAt.Local().Format(timeLayout))
	}
	if t.DoneAt != nil && !t.DoneAt.IsZero() {
		parts = append(parts, "done "+t.DoneAt.Local().Format(timeLayout))
	}
	return current.Muted.Render(strings.Join(parts, ", "))
}

// ListLines renders each todo with its short id and timestamps.
func ListLines(items []model.Todo) []string {
	if len(items) == 0 {
		return []string{current.Muted.Render("nothing here")}
	}
	lines := make([]string, 0, len(items))
	for _, t := range items {
		line := fmt.Sprintf("%s %s", current.Muted.Render(ShortID(t.ID)), TodoLine(t))
		if ts := Timestamps(t); ts != "" {
			line += "  " + ts
		}
		lines = append(lines, line)
	}
	return lines
}

// CountFooter renders "N items left".
func CountFooter(n int) string {
	return current.Title.Render(fmt.Sprint(n)) + " items left"
}

// Tabs renders the filter labels with active highlighted.
func Tabs(active model.Status) string {
	labels := make([]string, 0, len(model.Statuses))
	for i, s := range model.Statuses {
		label := fmt.Sprintf("%d %s", i+1, s.Label())
		if s == active {
			label = current.Accent.Underline(true).Render(label)
		} else {
			label = current.Muted.Render(label)
		}
		labels = append(labels, label)
	}
	return strings.Join(labels, "  ")
}

// Stats renders the done/pending summary with a progress bar.
func Stats(items []model.Todo) string {
	done, pending := model.Stats(items)
	return fmt.Sprintf("%s %d  %s %d  %s",
		current.Success.Render(current.SymDone), done,
		current.Pending.Render(current.SymPending), pending,
		ProgressBar(done, done+pending, 20),
	)
}

// Age formats d coarsely for status lines.
func Age(d time.Duration) string {
	switch {
	case d < time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
