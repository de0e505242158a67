package todos

import (
	"fmt"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
)

// Op is a mutation that patches the cache on success.
type Op int

const (
	OpMarkDone Op = iota
	OpMarkUndone
	OpRemove
	OpCreate
)

func (o Op) String() string {
	switch o {
	case OpMarkDone:
		return "mark-done"
	case OpMarkUndone:
		return "mark-undone"
	case OpRemove:
		return "remove"
	case OpCreate:
		return "create"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// PatchKind says how a patch changes its cache entry.
type PatchKind int

const (
	ListRemove PatchKind = iota
	ListReplace
	ListPrepend
	CountAdd
)

func (k PatchKind) String() string {
	switch k {
	case ListRemove:
		return "remove"
	case ListReplace:
		return "replace"
	case ListPrepend:
		return "prepend"
	case CountAdd:
		return "add"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Patch is one change to one cache entry.
type Patch struct {
	Key   querycache.Key
	Kind  PatchKind
	Delta int
}

func (p Patch) String() string {
	if p.Kind == CountAdd {
		return fmt.Sprintf("%s%+d", p.Key, p.Delta)
	}
	return fmt.Sprintf("%s %s", p.Key, p.Kind)
}

func list(s model.Status, k PatchKind) Patch {
	return Patch{Key: querycache.ListKey(s), Kind: k}
}

func count(s model.Status, delta int) Patch {
	return Patch{Key: querycache.CountKey(s), Kind: CountAdd, Delta: delta}
}

// Rules returns the patches op applies while active is the viewed filter.
// Only the active list and the aggregate counts are touched; create always
// feeds the all and pending views.
func Rules(op Op, active model.Status) []Patch {
	switch op {
	case OpMarkDone:
		switch active {
		case model.StatusPending:
			return []Patch{
				list(model.StatusPending, ListRemove),
				count(model.StatusPending, -1),
				count(model.StatusDone, +1),
			}
		case model.StatusDone:
			return []Patch{list(model.StatusDone, ListReplace)}
		default:
			return []Patch{list(model.StatusAll, ListReplace)}
		}

	case OpMarkUndone:
		switch active {
		case model.StatusPending:
			return []Patch{list(model.StatusPending, ListReplace)}
		case model.StatusDone:
			return []Patch{
				list(model.StatusDone, ListRemove),
				count(model.StatusDone, -1),
				count(model.StatusPending, +1),
			}
		default:
			return []Patch{list(model.StatusAll, ListReplace)}
		}

	case OpRemove:
		switch active {
		case model.StatusDone:
			return []Patch{
				list(model.StatusDone, ListRemove),
				count(model.StatusDone, -1),
			}
		case model.StatusPending:
			return []Patch{
				list(model.StatusPending, ListRemove),
				count(model.StatusAll, -1),
				count(model.StatusPending, -1),
			}
		default:
			return []Patch{
				list(model.StatusAll, ListRemove),
				count(model.StatusAll, -1),
				count(model.StatusPending, -1),
			}
		}

	case OpCreate:
		return []Patch{
			list(model.StatusAll, ListPrepend),
			list(model.StatusPending, ListPrepend),
			count(model.StatusAll, +1),
			count(model.StatusPending, +1),
		}
	}
	return nil
}

// Apply writes patches to c. For list patches t is the server-returned
// entity; removals only need its ID.
func Apply(c *querycache.Cache, patches []Patch, t model.Todo) {
	for _, p := range patches {
		switch p.Kind {
		case ListRemove:
			querycache.PatchTyped(c, p.Key, func(old model.TodoList) model.TodoList { return old.Without(t.ID) })
		case ListReplace:
			querycache.PatchTyped(c, p.Key, func(old model.TodoList) model.TodoList { return old.Replace(t) })
		case ListPrepend:
			querycache.PatchTyped(c, p.Key, func(old model.TodoList) model.TodoList { return old.Prepend(t) })
		case CountAdd:
			delta := p.Delta
			querycache.PatchTyped(c, p.Key, func(old int) int { return old + delta })
		}
	}
}
