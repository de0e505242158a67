// Package todos runs the list/count queries through the query cache and
// patches the cache after each successful mutation.
package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
)

// MinDescriptionLength is the shortest description accepted by Create.
const MinDescriptionLength = 3

// ErrDescriptionTooShort is returned by Create before any request is sent.
var ErrDescriptionTooShort = fmt.Errorf("description must be at least %d characters", MinDescriptionLength)

// ErrEmptyID is returned by mutations called without an id.
var ErrEmptyID = errors.New("empty todo id")

// API is the remote side of the service.
type API interface {
	ListTodos(ctx context.Context, status model.Status) (model.TodoList, error)
	SearchTodos(ctx context.Context, term string) (model.TodoList, error)
	CountTodos(ctx context.Context, status model.Status) (int, error)
	CreateTodo(ctx context.Context, description string) (model.Todo, error)
	MarkAsDone(ctx context.Context, id string) (model.Todo, error)
	MarkAsUndone(ctx context.Context, id string) (model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

// Service pairs the API with a query cache.
type Service struct {
	api    API
	cache  *querycache.Cache
	logger *log.Logger
}

// NewService builds a Service. A nil logger means log.Default().
func NewService(api API, cache *querycache.Cache, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.Default()
	}
	return &Service{api: api, cache: cache, logger: logger}
}

// Cache exposes the underlying cache to views.
func (s *Service) Cache() *querycache.Cache { return s.cache }

// List returns the todos for status, from cache when fresh.
func (s *Service) List(ctx context.Context, status model.Status) (model.TodoList, error) {
	return querycache.Fetch(ctx, s.cache, querycache.ListKey(status), func(ctx context.Context) (model.TodoList, error) {
		return s.api.ListTodos(ctx, status)
	})
}

// Count returns the number of todos for status, from cache when fresh.
func (s *Service) Count(ctx context.Context, status model.Status) (int, error) {
	return querycache.Fetch(ctx, s.cache, querycache.CountKey(status), func(ctx context.Context) (int, error) {
		return s.api.CountTodos(ctx, status)
	})
}

// Search always asks the server; results are not cached.
func (s *Service) Search(ctx context.Context, term string) (model.TodoList, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return s.List(ctx, model.StatusAll)
	}
	return s.api.SearchTodos(ctx, term)
}

// Create adds a todo and prepends it to the all and pending views.
func (s *Service) Create(ctx context.Context, description string) (model.Todo, error) {
	description = strings.TrimSpace(description)
	if len([]rune(description)) < MinDescriptionLength {
		return model.Todo{}, ErrDescriptionTooShort
	}
	t, err := s.api.CreateTodo(ctx, description)
	if err != nil {
		return model.Todo{}, fmt.Errorf("create: %w", err)
	}
	s.apply(OpCreate, model.StatusAll, t)
	return t, nil
}

// MarkDone completes id while active is the viewed filter.
func (s *Service) MarkDone(ctx context.Context, active model.Status, id string) (model.Todo, error) {
	if id == "" {
		return model.Todo{}, ErrEmptyID
	}
	t, err := s.api.MarkAsDone(ctx, id)
	if err != nil {
		return model.Todo{}, fmt.Errorf("mark done: %w", err)
	}
	s.apply(OpMarkDone, active, t)
	return t, nil
}

// MarkUndone reopens id while active is the viewed filter.
func (s *Service) MarkUndone(ctx context.Context, active model.Status, id string) (model.Todo, error) {
	if id == "" {
		return model.Todo{}, ErrEmptyID
	}
	t, err := s.api.MarkAsUndone(ctx, id)
	if err != nil {
		return model.Todo{}, fmt.Errorf("mark undone: %w", err)
	}
	s.apply(OpMarkUndone, active, t)
	return t, nil
}

// Toggle flips t between done and pending.
func (s *Service) Toggle(ctx context.Context, active model.Status, t model.Todo) (model.Todo, error) {
	if t.Done {
		return s.MarkUndone(ctx, active, t.ID)
	}
	return s.MarkDone(ctx, active, t.ID)
}

// Remove deletes id while active is the viewed filter.
func (s *Service) Remove(ctx context.Context, active model.Status, id string) error {
	if id == "" {
		return ErrEmptyID
	}
	if err := s.api.DeleteTodo(ctx, id); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	s.apply(OpRemove, active, model.Todo{ID: id})
	return nil
}

// Refresh invalidates every list and count so the next read refetches.
func (s *Service) Refresh() int {
	return s.cache.Invalidate(querycache.Todos, querycache.Counts)
}

// Purge drops every cached list and count and returns how many went.
func (s *Service) Purge() int {
	keys := s.cache.Keys()
	for _, k := range keys {
		s.cache.Remove(k)
	}
	return len(keys)
}

// Resync refetches every count from the server, replacing values that may
// have drifted through incremental patches.
func (s *Service) Resync(ctx context.Context) (map[model.Status]int, error) {
	out := make(map[model.Status]int, len(model.Statuses))
	for _, st := range model.Statuses {
		n, err := s.api.CountTodos(ctx, st)
		if err != nil {
			return out, fmt.Errorf("resync %s: %w", st, err)
		}
		key := querycache.CountKey(st)
		if old, ok := querycache.Peek[int](s.cache, key); ok && old != n {
			s.logger.Info("count drift corrected", "status", st, "cached", old, "server", n)
		}
		s.cache.Set(key, n)
		out[st] = n
	}
	if out[model.StatusPending]+out[model.StatusDone] != out[model.StatusAll] {
		s.logger.Warn("server counts disagree",
			"all", out[model.StatusAll],
			"pending", out[model.StatusPending],
			"done", out[model.StatusDone])
	}
	return out, nil
}

func (s *Service) apply(op Op, active model.Status, t model.Todo) {
	patches := Rules(op, active)
	Apply(s.cache, patches, t)
	s.logger.Debug("cache patched", "op", op, "active", active, "id", t.ID, "patches", patches)
}
