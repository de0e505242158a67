package todos

import (
	"reflect"
	"testing"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
)

func TestRules(t *testing.T) {
	var (
		all     = model.StatusAll
		pending = model.StatusPending
		done    = model.StatusDone
	)
	tests := []struct {
		op     Op
		active model.Status
		want   []string
	}{
		{OpMarkDone, pending, []string{"todos:pending remove", "todos-count:pending-1", "todos-count:done+1"}},
		{OpMarkDone, done, []string{"todos:done replace"}},
		{OpMarkDone, all, []string{"todos:all replace"}},

		{OpMarkUndone, pending, []string{"todos:pending replace"}},
		{OpMarkUndone, done, []string{"todos:done remove", "todos-count:done-1", "todos-count:pending+1"}},
		{OpMarkUndone, all, []string{"todos:all replace"}},

		{OpRemove, pending, []string{"todos:pending remove", "todos-count:all-1", "todos-count:pending-1"}},
		{OpRemove, done, []string{"todos:done remove", "todos-count:done-1"}},
		{OpRemove, all, []string{"todos:all remove", "todos-count:all-1", "todos-count:pending-1"}},

		{OpCreate, pending, []string{"todos:all prepend", "todos:pending prepend", "todos-count:all+1", "todos-count:pending+1"}},
		{OpCreate, done, []string{"todos:all prepend", "todos:pending prepend", "todos-count:all+1", "todos-count:pending+1"}},
		{OpCreate, all, []string{"todos:all prepend", "todos:pending prepend", "todos-count:all+1", "todos-count:pending+1"}},
	}
	for _, tt := range tests {
		t.Run(tt.op.String()+"/"+tt.active.String(), func(t *testing.T) {
			var got []string
			for _, p := range Rules(tt.op, tt.active) {
				got = append(got, p.String())
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rules(%s, %s) = %v, want %v", tt.op, tt.active, got, tt.want)
			}
		})
	}
}

func TestApply_StartsFromEmptyValues(t *testing.T) {
	c := querycache.New()
	todo := model.Todo{ID: "n", Description: "new"}

	Apply(c, Rules(OpCreate, model.StatusAll), todo)

	for _, s := range []model.Status{model.StatusAll, model.StatusPending} {
		l, ok := querycache.Peek[model.TodoList](c, querycache.ListKey(s))
		if !ok || len(l.Items) != 1 || l.Items[0].ID != "n" {
			t.Errorf("%s list = %+v, want [n]", s, l.Items)
		}
		n, _ := querycache.Peek[int](c, querycache.CountKey(s))
		if n != 1 {
			t.Errorf("%s count = %d, want 1", s, n)
		}
	}
	if _, ok := c.Get(querycache.ListKey(model.StatusDone)); ok {
		t.Error("create must not touch the done list")
	}
}

func TestApply_ReplaceUsesServerEntity(t *testing.T) {
	c := querycache.New()
	c.Set(querycache.ListKey(model.StatusAll), model.TodoList{Items: []model.Todo{{ID: "a"}, {ID: "b"}}})

	Apply(c, Rules(OpMarkDone, model.StatusAll), model.Todo{ID: "b", Done: true, Description: "server"})

	l, _ := querycache.Peek[model.TodoList](c, querycache.ListKey(model.StatusAll))
	if !l.Items[1].Done || l.Items[1].Description != "server" {
		t.Errorf("item b = %+v, want server entity", l.Items[1])
	}
	if l.Items[0].Done {
		t.Error("item a should be unchanged")
	}
}
