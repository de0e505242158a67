package querycache

import (
	"time"

	"github.com/Makepad-fr/tada/internal/model"
)

// Snapshot is the serializable form of a Cache.
type Snapshot struct {
	SavedAt time.Time       `json:"saved_at"`
	Entries []SnapshotEntry `json:"entries"`
}

// SnapshotEntry carries either a list or a count, depending on Resource.
type SnapshotEntry struct {
	Resource  Resource        `json:"resource"`
	Status    model.Status    `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
	Invalid   bool            `json:"invalid,omitempty"`
	List      *model.TodoList `json:"list,omitempty"`
	Count     *int            `json:"count,omitempty"`
}

// Snapshot copies every list and count entry.
func (c *Cache) Snapshot() Snapshot {
	c.RLock()
	defer c.RUnlock()
	s := Snapshot{SavedAt: c.now()}
	for k, e := range c.entries {
		se := SnapshotEntry{
			Resource:  k.Resource,
			Status:    k.Status,
			UpdatedAt: e.updatedAt,
			Invalid:   e.invalid,
		}
		switch v := e.value.(type) {
		case model.TodoList:
			se.List = &v
		case int:
			se.Count = &v
		default:
			continue
		}
		s.Entries = append(s.Entries, se)
	}
	return s
}

// Restore loads entries from s, replacing keys it names. Entries whose
// payload does not match their resource are skipped.
func (c *Cache) Restore(s Snapshot) int {
	c.Lock()
	defer c.Unlock()
	n := 0
	for _, se := range s.Entries {
		var v any
		switch {
		case se.Resource == Todos && se.List != nil:
			v = *se.List
		case se.Resource == Counts && se.Count != nil:
			v = *se.Count
		default:
			continue
		}
		key := Key{Resource: se.Resource, Status: se.Status}
		c.entries[key] = &entry{
			value:     v,
			updatedAt: se.UpdatedAt,
			invalid:   se.Invalid,
		}
		c.supersede(key)
		n++
	}
	return n
}
