package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/querycache"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

// app is the per-invocation environment shared by every subcommand. The
// service is built on first use so auth and version never touch the network.
type app struct {
	root   *Root
	opt    Options
	cfg    *config.Config
	logger *log.Logger
	stdin  *bufio.Reader

	svc   *todos.Service
	cache *querycache.Cache
	store *jsonstore.Store

	ctx    context.Context
	cancel context.CancelFunc
}

func newApp(root *Root, opt Options) *app {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	return &app{
		root:   root,
		opt:    opt,
		stdin:  bufio.NewReader(opt.Stdin),
		ctx:    ctx,
		cancel: cancel,
	}
}

// configure layers defaults, config files, environment and flags.
func (a *app) configure() error {
	paths := config.DefaultPaths()
	if a.root.Config != "" {
		if _, err := os.Stat(a.root.Config); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		paths = append(paths, a.root.Config)
	}
	cfg, err := config.LoadLayered(paths...)
	if err != nil {
		return err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	if a.root.APIURL != "" {
		cfg.API.URL = a.root.APIURL
	}
	if a.root.LogLevel != "" {
		cfg.Log.Level = strings.ToLower(a.root.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	ui.SetTheme(cfg.UI.Theme)
	ui.SetColorMode(cfg.UI.Color)
	a.logger = logging.FromConfig(a.opt.Stderr, cfg.Log.Level, cfg.Log.Format)
	return nil
}

// service wires the API client, the cache and its snapshot store.
func (a *app) service() (*todos.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	opts := []api.Option{
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithLogger(a.logger),
		api.WithStrict(a.cfg.API.Strict),
	}
	ti, err := auth.GetToken()
	if err != nil {
		a.logger.Warn("ignoring credentials", "err", err)
	}
	if ti != nil {
		if ti.Expired(time.Now()) {
			a.logger.Warn("token expired", "expires", ti.ExpiresAt)
		}
		opts = append(opts, api.WithToken(ti.Token))
	}
	client, err := api.New(a.cfg.API.URL, opts...)
	if err != nil {
		return nil, err
	}

	a.cache = querycache.New(
		querycache.WithStaleTime(a.cfg.Cache.StaleTime),
		querycache.WithLogger(a.logger),
	)
	if a.cfg.Cache.Persist {
		a.restore()
	}
	a.svc = todos.NewService(client, a.cache, a.logger)
	return a.svc, nil
}

func (a *app) restore() {
	store, err := jsonstore.Default()
	if err != nil {
		a.logger.Warn("cache snapshot disabled", "err", err)
		return
	}
	a.store = store
	snap, err := store.Load()
	if err != nil {
		a.logger.Warn("ignoring cache snapshot", "path", store.Path(), "err", err)
		return
	}
	n := a.cache.Restore(snap)
	a.logger.Debug("cache restored", "entries", n, "saved", snap.SavedAt)
}

// purge empties the cache and removes the snapshot so close does not
// write it back.
func (a *app) purge(svc *todos.Service) error {
	n := svc.Purge()
	store := a.store
	if store == nil {
		s, err := jsonstore.Default()
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		store = s
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("purge: %w", err)
	}
	a.store = nil
	ui.OK(fmt.Sprintf("dropped %d cached entries", n))
	return nil
}

func (a *app) close() {
	defer a.cancel()
	if a.store == nil || a.cache == nil {
		return
	}
	if err := a.store.Save(a.cache.Snapshot()); err != nil {
		a.logger.Warn("saving cache snapshot", "path", a.store.Path(), "err", err)
	}
}

// status resolves a --status flag, falling back to ui.status from config.
func (a *app) status(flag string) (model.Status, error) {
	if flag == "" {
		flag = a.cfg.UI.Status
	}
	s, err := model.ParseStatus(flag)
	if err != nil {
		return "", usageError{err}
	}
	return s, nil
}

// resolveID expands a unique id prefix, as printed by ls, to the full todo.
// Unknown ids pass through so the server can reject them.
func (a *app) resolveID(svc *todos.Service, id string) (model.Todo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Todo{}, todos.ErrEmptyID
	}
	l, err := svc.List(a.ctx, model.StatusAll)
	if err != nil {
		return model.Todo{}, err
	}
	var matches []model.Todo
	for _, t := range l.Items {
		if t.ID == id {
			return t, nil
		}
		if strings.HasPrefix(t.ID, id) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Todo{ID: id}, nil
	case 1:
		return matches[0], nil
	}
	return model.Todo{}, usagef("id %q is ambiguous: matches %d todos", id, len(matches))
}

// confirm asks a yes/no question on stdin. Anything but y/yes is no.
func (a *app) confirm(question string) bool {
	fmt.Fprint(a.opt.Stdout, question+" [y/N] ")
	line, _ := a.stdin.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
