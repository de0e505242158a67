package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/Makepad-fr/tada/internal/todos"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options carry the process streams and build info into Run.
type Options struct {
	Version string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Root is the kong command tree.
type Root struct {
	Config   string           `help:"Config file (YAML or TOML), applied after the default lookup." type:"path" placeholder:"PATH"`
	APIURL   string           `name:"api-url" help:"API base URL." placeholder:"URL"`
	LogLevel string           `help:"Log level: debug, info, warn or error." placeholder:"LEVEL"`
	Version  kong.VersionFlag `help:"Show version." short:"V"`

	Ls      LsCmd      `cmd:"" help:"List todos."`
	Add     AddCmd     `cmd:"" help:"Add a todo."`
	Done    DoneCmd    `cmd:"" help:"Mark a todo as done."`
	Undone  UndoneCmd  `cmd:"" help:"Mark a todo as pending again."`
	Rm      RmCmd      `cmd:"" help:"Delete a todo."`
	Search  SearchCmd  `cmd:"" help:"Search todos by description."`
	Refresh RefreshCmd `cmd:"" help:"Invalidate cached lists and counts."`
	Sync    SyncCmd    `cmd:"" help:"Refetch counts from the server."`
	TUI     TUICmd     `cmd:"" name:"tui" help:"Open the interactive view."`
	Auth    AuthCmd    `cmd:"" help:"Token authentication."`
	Info    VersionCmd `cmd:"" name:"version" help:"Print the version."`
}

// exitSignal carries kong's exit code out of a panic.
type exitSignal struct{ code int }

// Run parses args and dispatches a subcommand. It returns an exit code:
// 0 ok, 1 error, 2 usage.
func Run(args []string, opt Options) (code int) {
	opt = opt.withDefaults()
	ui.SetOutput(opt.Stdout, opt.Stderr)

	var root Root
	k, err := kong.New(&root,
		kong.Name("tada"),
		kong.Description("A terminal client for the todos API."),
		kong.Vars{"version": "tada " + opt.Version},
		kong.Writers(opt.Stdout, opt.Stderr),
		kong.Exit(func(c int) { panic(exitSignal{c}) }),
	)
	if err != nil {
		ui.Fail(err.Error())
		return 1
	}

	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(exitSignal); ok {
				code = e.code
				return
			}
			panic(r)
		}
	}()

	if len(args) == 0 {
		_ = kong.DefaultHelpPrinter(kong.HelpOptions{Compact: true}, mustContext(k))
		return 2
	}

	kctx, err := k.Parse(args)
	if err != nil {
		ui.Fail(err.Error())
		ui.Hint("Run `tada --help` for usage")
		return 2
	}

	a := newApp(&root, opt)
	defer a.close()
	if err := a.configure(); err != nil {
		ui.Fail(err.Error())
		return 2
	}
	if err := kctx.Run(a); err != nil {
		ui.Fail(err.Error())
		return exitCode(err)
	}
	return 0
}

func mustContext(k *kong.Kong) *kong.Context {
	ctx, err := kong.Trace(k, nil)
	if err != nil {
		panic(err)
	}
	return ctx
}

func (o Options) withDefaults() Options {
	if o.Version == "" {
		o.Version = "dev"
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// usageError marks errors caused by bad input rather than a failed request.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

func exitCode(err error) int {
	var ue usageError
	switch {
	case errors.As(err, &ue),
		errors.Is(err, todos.ErrDescriptionTooShort),
		errors.Is(err, todos.ErrEmptyID):
		return 2
	}
	return 1
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (c *VersionCmd) Run(a *app) error {
	ui.Println("tada " + a.opt.Version)
	return nil
}
