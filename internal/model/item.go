package model

import (
	"fmt"
	"strings"
	"time"
)

// Todo is the domain model for a todo entry as served by the API.
type Todo struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	DoneAt      *time.Time `json:"doneAt,omitempty"`
}

// Status selects which todos a list or count covers.
type Status string

const (
	StatusAll     Status = "all"
	StatusPending Status = "pending"
	StatusDone    Status = "done"
)

// Statuses lists every filter in display order.
var Statuses = []Status{StatusAll, StatusPending, StatusDone}

// ParseStatus maps a user-supplied filter to a Status. Empty means all.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "pending", "active":
		return StatusPending, nil
	case "done", "completed":
		return StatusDone, nil
	}
	return "", fmt.Errorf("unknown status %q (want all, pending or done)", s)
}

func (s Status) String() string { return string(s) }

// Label is the name shown on filter tabs.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Active"
	case StatusDone:
		return "Completed"
	default:
		return "All"
	}
}

// Matches reports whether t belongs to the view filtered by s.
func (s Status) Matches(t Todo) bool {
	switch s {
	case StatusPending:
		return !t.Done
	case StatusDone:
		return t.Done
	default:
		return true
	}
}

// TodoList is a cached list view. Items keep server order; new items go first.
// Total mirrors informations.total when the server sends it.
type TodoList struct {
	Items  []Todo `json:"items"`
	Total  int    `json:"total"`
	Status string `json:"status,omitempty"`
}

// Index returns the position of the todo with the given id, or -1.
func (l TodoList) Index(id string) int {
	for i, t := range l.Items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Prepend returns a copy of l with t in front.
func (l TodoList) Prepend(t Todo) TodoList {
	items := make([]Todo, 0, len(l.Items)+1)
	items = append(items, t)
	items = append(items, l.Items...)
	l.Items = items
	if l.Total != 0 {
		l.Total++
	}
	return l
}

// Without returns a copy of l without the todo with the given id.
func (l TodoList) Without(id string) TodoList {
	items := make([]Todo, 0, len(l.Items))
	for _, t := range l.Items {
		if t.ID != id {
			items = append(items, t)
		}
	}
	l.Items = items
	if l.Total != 0 {
		l.Total--
	}
	return l
}

// Replace returns a copy of l with the todo sharing t's id swapped for t.
func (l TodoList) Replace(t Todo) TodoList {
	items := make([]Todo, len(l.Items))
	copy(items, l.Items)
	for i := range items {
		if items[i].ID == t.ID {
			items[i] = t
		}
	}
	l.Items = items
	return l
}

// Stats counts done and pending items.
func Stats(items []Todo) (done, pending int) {
	for _, it := range items {
		if it.Done {
			done++
		} else {
			pending++
		}
	}
	return
}
