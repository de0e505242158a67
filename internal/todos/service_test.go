package todos

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/apitest"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
)

func newTestService(t *testing.T, srv *apitest.Server) *Service {
	t.Helper()
	quiet := log.New(io.Discard)
	client, err := api.New(srv.URL, api.WithLogger(quiet))
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	cache := querycache.New(querycache.WithStaleTime(time.Hour), querycache.WithLogger(quiet))
	return NewService(client, cache, quiet)
}

func mustList(t *testing.T, s *Service, status model.Status) model.TodoList {
	t.Helper()
	l, err := s.List(context.Background(), status)
	if err != nil {
		t.Fatalf("List(%s) error = %v", status, err)
	}
	return l
}

func mustCount(t *testing.T, s *Service, status model.Status) int {
	t.Helper()
	n, err := s.Count(context.Background(), status)
	if err != nil {
		t.Fatalf("Count(%s) error = %v", status, err)
	}
	return n
}

func ids(l model.TodoList) []string {
	out := make([]string, 0, len(l.Items))
	for _, t := range l.Items {
		out = append(out, t.Description)
	}
	return out
}

func warm(t *testing.T, s *Service) {
	t.Helper()
	for _, st := range model.Statuses {
		mustList(t, s, st)
		mustCount(t, s, st)
	}
}

func TestService_ListIsCached(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("one", "two")
	s := newTestService(t, srv)

	mustList(t, s, model.StatusAll)
	mustList(t, s, model.StatusAll)
	if hits := srv.Hits("GET /api/todos"); hits != 1 {
		t.Errorf("GET /api/todos hits = %d, want 1", hits)
	}
}

func TestService_CreatePrependsAndCounts(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("old")
	s := newTestService(t, srv)
	warm(t, s)

	created, err := s.Create(context.Background(), "  fresh item ")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.Description != "fresh item" {
		t.Errorf("description = %q, want trimmed", created.Description)
	}

	cache := s.Cache()
	for _, st := range []model.Status{model.StatusAll, model.StatusPending} {
		l, _ := querycache.Peek[model.TodoList](cache, querycache.ListKey(st))
		if len(l.Items) != 2 || l.Items[0].ID != created.ID {
			t.Errorf("%s list = %v, want new item first", st, ids(l))
		}
		n, _ := querycache.Peek[int](cache, querycache.CountKey(st))
		if n != 2 {
			t.Errorf("%s count = %d, want 2", st, n)
		}
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusDone)); n != 0 {
		t.Errorf("done count = %d, want 0", n)
	}
}

func TestService_CreateRejectsShortDescription(t *testing.T) {
	srv := apitest.New(t)
	s := newTestService(t, srv)

	if _, err := s.Create(context.Background(), " ab "); !errors.Is(err, ErrDescriptionTooShort) {
		t.Fatalf("Create() error = %v, want ErrDescriptionTooShort", err)
	}
	if hits := srv.Hits("POST /api/todos"); hits != 0 {
		t.Errorf("POST hits = %d, want 0", hits)
	}
}

func TestService_MarkDoneWhileViewingPending(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("B", "A")
	a := seeded[0]
	s := newTestService(t, srv)

	if got := ids(mustList(t, s, model.StatusPending)); strings.Join(got, ",") != "A,B" {
		t.Fatalf("pending = %v, want [A B]", got)
	}
	mustCount(t, s, model.StatusPending)
	mustCount(t, s, model.StatusDone)

	if _, err := s.MarkDone(context.Background(), model.StatusPending, a.ID); err != nil {
		t.Fatalf("MarkDone() error = %v", err)
	}

	cache := s.Cache()
	l, _ := querycache.Peek[model.TodoList](cache, querycache.ListKey(model.StatusPending))
	if got := ids(l); strings.Join(got, ",") != "B" {
		t.Errorf("pending after done = %v, want [B]", got)
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusPending)); n != 1 {
		t.Errorf("pending count = %d, want 1", n)
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusDone)); n != 1 {
		t.Errorf("done count = %d, want 1", n)
	}

	// The done list was never fetched, so switching to it goes to the server.
	before := srv.Hits("GET /api/todos")
	done := mustList(t, s, model.StatusDone)
	if got := ids(done); strings.Join(got, ",") != "A" {
		t.Errorf("done list = %v, want [A]", got)
	}
	if srv.Hits("GET /api/todos") != before+1 {
		t.Error("switching to done should refetch from the server")
	}
}

func TestService_MarkUndoneWhileViewingDone(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("A")
	s := newTestService(t, srv)
	ctx := context.Background()
	if _, err := s.MarkDone(ctx, model.StatusAll, seeded[0].ID); err != nil {
		t.Fatal(err)
	}
	warm(t, s)

	if _, err := s.MarkUndone(ctx, model.StatusDone, seeded[0].ID); err != nil {
		t.Fatalf("MarkUndone() error = %v", err)
	}
	cache := s.Cache()
	l, _ := querycache.Peek[model.TodoList](cache, querycache.ListKey(model.StatusDone))
	if len(l.Items) != 0 {
		t.Errorf("done list = %v, want empty", ids(l))
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusDone)); n != 0 {
		t.Errorf("done count = %d, want 0", n)
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusPending)); n != 1 {
		t.Errorf("pending count = %d, want 1", n)
	}
}

func TestService_MarkDoneWhileViewingAllReplaces(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("A", "B")
	s := newTestService(t, srv)
	warm(t, s)

	if _, err := s.MarkDone(context.Background(), model.StatusAll, seeded[1].ID); err != nil {
		t.Fatal(err)
	}
	l, _ := querycache.Peek[model.TodoList](s.Cache(), querycache.ListKey(model.StatusAll))
	if len(l.Items) != 2 || !l.Items[1].Done || l.Items[1].DoneAt == nil {
		t.Errorf("all list = %+v, want A replaced by the done entity", l.Items)
	}
}

func TestService_RemoveWhileViewingDone(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("A", "B")
	s := newTestService(t, srv)
	ctx := context.Background()
	if _, err := s.MarkDone(ctx, model.StatusAll, seeded[0].ID); err != nil {
		t.Fatal(err)
	}
	warm(t, s)
	allBefore := mustCount(t, s, model.StatusAll)
	pendingBefore := mustCount(t, s, model.StatusPending)

	if err := s.Remove(ctx, model.StatusDone, seeded[0].ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	cache := s.Cache()
	l, _ := querycache.Peek[model.TodoList](cache, querycache.ListKey(model.StatusDone))
	if l.Index(seeded[0].ID) != -1 {
		t.Error("removed item still in done list")
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusDone)); n != 0 {
		t.Errorf("done count = %d, want 0", n)
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusAll)); n != allBefore {
		t.Errorf("all count = %d, want unchanged %d", n, allBefore)
	}
	if n, _ := querycache.Peek[int](cache, querycache.CountKey(model.StatusPending)); n != pendingBefore {
		t.Errorf("pending count = %d, want unchanged %d", n, pendingBefore)
	}
}

func TestService_FailedMutationLeavesCache(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("A")
	s := newTestService(t, srv)
	warm(t, s)
	snapBefore := s.Cache().Snapshot()

	srv.FailNext(1)
	if _, err := s.MarkDone(context.Background(), model.StatusPending, seeded[0].ID); err == nil {
		t.Fatal("MarkDone() should fail")
	}
	srv.FailNext(1)
	if err := s.Remove(context.Background(), model.StatusAll, seeded[0].ID); err == nil {
		t.Fatal("Remove() should fail")
	}

	l, _ := querycache.Peek[model.TodoList](s.Cache(), querycache.ListKey(model.StatusPending))
	if len(l.Items) != 1 {
		t.Errorf("pending list = %v, want untouched", ids(l))
	}
	if got := len(s.Cache().Snapshot().Entries); got != len(snapBefore.Entries) {
		t.Errorf("entries = %d, want %d", got, len(snapBefore.Entries))
	}
	if n, _ := querycache.Peek[int](s.Cache(), querycache.CountKey(model.StatusDone)); n != 0 {
		t.Errorf("done count = %d, want 0", n)
	}
}

func TestService_PurgeEmptiesCache(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("A")
	s := newTestService(t, srv)
	warm(t, s)

	if n := s.Purge(); n != 6 {
		t.Errorf("Purge() dropped %d entries, want 6", n)
	}
	if keys := s.Cache().Keys(); len(keys) != 0 {
		t.Errorf("keys after purge = %v", keys)
	}
	listHits := srv.Hits("GET /api/todos")
	mustList(t, s, model.StatusAll)
	if got := srv.Hits("GET /api/todos"); got != listHits+1 {
		t.Errorf("list hits = %d, want a refetch", got)
	}
}

func TestService_RefreshForcesRefetch(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("A")
	s := newTestService(t, srv)
	warm(t, s)
	listHits := srv.Hits("GET /api/todos")
	countHits := srv.Hits("GET /api/todos/count")

	if n := s.Refresh(); n != 6 {
		t.Errorf("Refresh() invalidated %d entries, want 6", n)
	}
	warm(t, s)
	if got := srv.Hits("GET /api/todos"); got != listHits+3 {
		t.Errorf("list hits = %d, want %d", got, listHits+3)
	}
	if got := srv.Hits("GET /api/todos/count"); got != countHits+3 {
		t.Errorf("count hits = %d, want %d", got, countHits+3)
	}
}

func TestService_ResyncCorrectsDrift(t *testing.T) {
	srv := apitest.New(t)
	seeded := srv.Seed("A", "B")
	var buf bytes.Buffer
	s := newTestService(t, srv)
	s.logger = log.New(&buf)
	warm(t, s)

	// A change the client never saw.
	if err := s.api.DeleteTodo(context.Background(), seeded[0].ID); err != nil {
		t.Fatal(err)
	}

	counts, err := s.Resync(context.Background())
	if err != nil {
		t.Fatalf("Resync() error = %v", err)
	}
	if counts[model.StatusAll] != 1 || counts[model.StatusPending] != 1 || counts[model.StatusDone] != 0 {
		t.Errorf("Resync() = %v", counts)
	}
	if n, _ := querycache.Peek[int](s.Cache(), querycache.CountKey(model.StatusAll)); n != 1 {
		t.Errorf("cached all count = %d, want 1", n)
	}
	if !strings.Contains(buf.String(), "count drift corrected") {
		t.Errorf("log = %q, want drift message", buf.String())
	}
}

func TestService_SearchIsNotCached(t *testing.T) {
	srv := apitest.New(t)
	srv.Seed("Buy milk", "Walk dog")
	s := newTestService(t, srv)

	for i := 0; i < 2; i++ {
		l, err := s.Search(context.Background(), "milk")
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(l.Items) != 1 {
			t.Errorf("Search(milk) = %v", ids(l))
		}
	}
	if hits := srv.Hits("GET /api/todos"); hits != 2 {
		t.Errorf("hits = %d, want 2", hits)
	}
	if len(s.Cache().Keys()) != 0 {
		t.Error("search results must not be cached")
	}
}

func TestService_EmptyID(t *testing.T) {
	s := newTestService(t, apitest.New(t))
	if _, err := s.MarkDone(context.Background(), model.StatusAll, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("MarkDone(\"\") error = %v", err)
	}
	if err := s.Remove(context.Background(), model.StatusAll, ""); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Remove(\"\") error = %v", err)
	}
}
