package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// SetOutput redirects OK, Fail, Println and Panel. Nil restores the default.
func SetOutput(out, errOut io.Writer) {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	stdout, stderr = out, errOut
}

// Stdout is where OK and Panel write.
func Stdout() io.Writer { return stdout }

// IsTTY reports whether w is connected to a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetColorMode applies "auto", "always" or "never". Auto colors only when
// stdout is a terminal and NO_COLOR is unset.
func SetColorMode(mode string) {
	switch mode {
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		if os.Getenv("NO_COLOR") != "" || !IsTTY(stdout) {
			lipgloss.SetColorProfile(termenv.Ascii)
		} else {
			lipgloss.SetColorProfile(termenv.EnvColorProfile())
		}
	}
}

func OK(msg string)   { fmt.Fprintln(stdout, current.Success.Render(current.SymDone+" "+msg)) }
func Fail(msg string) { fmt.Fprintln(stderr, current.Error.Render(current.SymCross+" "+msg)) }

// Hint prints a muted line on stderr, below a Fail.
func Hint(msg string) { fmt.Fprintln(stderr, current.Muted.Render(msg)) }

// Println writes plain lines to stdout.
func Println(a ...any) { fmt.Fprintln(stdout, a...) }
