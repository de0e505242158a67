package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// LsCmd prints the list and count for one filter.
type LsCmd struct {
	Status string `short:"s" help:"Filter: all, pending or done (defaults to ui.status)."`
	JSON   bool   `help:"Print the list as JSON."`
}

func (c *LsCmd) Run(a *app) error {
	status, err := a.status(c.Status)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}
	l, err := svc.List(a.ctx, status)
	if err != nil {
		return fmt.Errorf("ls: %w", err)
	}
	if c.JSON {
		enc := json.NewEncoder(ui.Stdout())
		enc.SetIndent("", "  ")
		return enc.Encode(l.Items)
	}
	n, err := svc.Count(a.ctx, status)
	if err != nil {
		return fmt.Errorf("ls: %w", err)
	}

	lines := []string{
		ui.Current().Title.Render("Todos") + "  " + ui.Tabs(status),
		"",
	}
	lines = append(lines, ui.ListLines(l.Items)...)
	lines = append(lines, "", ui.CountFooter(n))
	if len(l.Items) > 0 {
		lines = append(lines, ui.Stats(l.Items))
	}
	ui.Panel(lines)
	return nil
}

// AddCmd creates a todo from the joined arguments.
type AddCmd struct {
	Description []string `arg:"" help:"Description (multiple words are joined)."`
}

func (c *AddCmd) Run(a *app) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	t, err := svc.Create(a.ctx, strings.Join(c.Description, " "))
	if err != nil {
		if api.IsConflict(err) {
			return fmt.Errorf("add: a todo with that description already exists")
		}
		return fmt.Errorf("add: %w", err)
	}
	ui.OK(fmt.Sprintf("added %s (%s)", t.Description, ui.ShortID(t.ID)))
	return nil
}

// DoneCmd marks a todo as done.
type DoneCmd struct {
	ID     string `arg:"" help:"Todo id or unique id prefix."`
	Status string `short:"s" help:"Active filter whose cached views are patched."`
}

func (c *DoneCmd) Run(a *app) error {
	return mark(a, c.ID, c.Status, true)
}

// UndoneCmd marks a todo as pending.
type UndoneCmd struct {
	ID     string `arg:"" help:"Todo id or unique id prefix."`
	Status string `short:"s" help:"Active filter whose cached views are patched."`
}

func (c *UndoneCmd) Run(a *app) error {
	return mark(a, c.ID, c.Status, false)
}

func mark(a *app, id, flag string, done bool) error {
	status, err := a.status(flag)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}
	target, err := a.resolveID(svc, id)
	if err != nil {
		return err
	}
	var t model.Todo
	if done {
		t, err = svc.MarkDone(a.ctx, status, target.ID)
	} else {
		t, err = svc.MarkUndone(a.ctx, status, target.ID)
	}
	if err != nil {
		return notFoundHint(err, id)
	}
	if done {
		ui.OK("completed " + t.Description)
	} else {
		ui.OK("reopened " + t.Description)
	}
	return nil
}

// RmCmd deletes a todo after confirmation.
type RmCmd struct {
	ID     string `arg:"" help:"Todo id or unique id prefix."`
	Yes    bool   `short:"y" help:"Do not ask for confirmation."`
	Status string `short:"s" help:"Active filter whose cached views are patched."`
}

func (c *RmCmd) Run(a *app) error {
	status, err := a.status(c.Status)
	if err != nil {
		return err
	}
	svc, err := a.service()
	if err != nil {
		return err
	}
	target, err := a.resolveID(svc, c.ID)
	if err != nil {
		return err
	}
	label := target.Description
	if label == "" {
		label = target.ID
	}
	if !c.Yes && !a.confirm(fmt.Sprintf("Delete %q?", label)) {
		ui.Println(ui.Current().Muted.Render("not removed"))
		return nil
	}
	if err := svc.Remove(a.ctx, status, target.ID); err != nil {
		return notFoundHint(err, c.ID)
	}
	ui.OK("removed " + label)
	return nil
}

func notFoundHint(err error, id string) error {
	if api.IsNotFound(err) {
		ui.Hint("Hint: run `tada ls` to see valid ids")
		return fmt.Errorf("no todo with id %q", id)
	}
	return err
}

// SearchCmd lists todos whose description contains the term.
type SearchCmd struct {
	Term []string `arg:"" help:"Text to look for."`
}

func (c *SearchCmd) Run(a *app) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	term := strings.Join(c.Term, " ")
	l, err := svc.Search(a.ctx, term)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	lines := []string{ui.Current().Title.Render("Search") + "  " + ui.Current().Muted.Render(term), ""}
	lines = append(lines, ui.ListLines(l.Items)...)
	lines = append(lines, "", fmt.Sprintf("%d matches", len(l.Items)))
	ui.Panel(lines)
	return nil
}

// RefreshCmd marks every cached entry stale.
type RefreshCmd struct {
	Verbose bool `short:"v" help:"List cached entries and whether they were fresh."`
	Purge   bool `help:"Drop the cache and delete its snapshot file."`
}

func (c *RefreshCmd) Run(a *app) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	if c.Verbose {
		cache := svc.Cache()
		for _, k := range cache.Keys() {
			state := ui.Current().Muted.Render("stale")
			if cache.Fresh(k) {
				state = ui.Current().Success.Render("fresh")
			}
			ui.Println(fmt.Sprintf("%-20s %s", k, state))
		}
	}
	if c.Purge {
		return a.purge(svc)
	}
	n := svc.Refresh()
	ui.OK(fmt.Sprintf("invalidated %d cached entries", n))
	return nil
}

// SyncCmd refetches every count.
type SyncCmd struct{}

func (c *SyncCmd) Run(a *app) error {
	svc, err := a.service()
	if err != nil {
		return err
	}
	counts, err := svc.Resync(a.ctx)
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	parts := make([]string, 0, len(model.Statuses))
	for _, s := range model.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", s, counts[s]))
	}
	ui.OK("counts " + strings.Join(parts, "  "))
	return nil
}

// TUICmd opens the interactive view. Logs go to a file while it runs.
type TUICmd struct {
	Status string `short:"s" help:"Initial filter."`
}

func (c *TUICmd) Run(a *app) error {
	status, err := a.status(c.Status)
	if err != nil {
		return err
	}
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	logPath := filepath.Join(dir, "tada.log")
	logger, f, err := logging.OpenFile(logPath, a.cfg.Log.Level)
	if err != nil {
		a.logger.Warn("logging disabled", "path", logPath, "err", err)
		logger = logging.Discard()
	}
	prev := a.logger
	a.logger = logger
	defer func() {
		a.logger = prev
		if f != nil {
			f.Close()
		}
	}()

	svc, err := a.service()
	if err != nil {
		return err
	}
	return tui.Run(a.ctx, svc, tui.Options{
		Status:         status,
		ResyncInterval: a.cfg.Cache.ResyncInterval,
		Logger:         logger,
	})
}
