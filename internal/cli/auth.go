package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

// AuthCmd groups the token subcommands.
type AuthCmd struct {
	Login  AuthLoginCmd  `cmd:"" help:"Save a bearer token."`
	Logout AuthLogoutCmd `cmd:"" help:"Delete the saved token."`
	Status AuthStatusCmd `cmd:"" help:"Show where the token comes from."`
	Whoami AuthWhoamiCmd `cmd:"" help:"Decode the token payload locally."`
}

type AuthLoginCmd struct {
	Token string `help:"Token to save; read from stdin when empty."`
}

func (c *AuthLoginCmd) Run(a *app) error {
	token := c.Token
	if token == "" {
		fmt.Fprint(a.opt.Stdout, "Paste your token: ")
		line, err := a.stdin.ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = line
	}
	if err := auth.SetToken(token, nil); err != nil {
		if errors.Is(err, auth.ErrEmptyToken) {
			return usageError{err}
		}
		return fmt.Errorf("save token: %w", err)
	}
	ui.OK("logged in")
	return nil
}

type AuthLogoutCmd struct{}

func (c *AuthLogoutCmd) Run(a *app) error {
	ti, _ := auth.GetToken()
	if ti != nil && ti.Source == "env" {
		ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
		return nil
	}
	if err := auth.DeleteToken(); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	ui.OK("logged out")
	return nil
}

type AuthStatusCmd struct{}

func (c *AuthStatusCmd) Run(a *app) error {
	ti, err := auth.GetToken()
	if err != nil {
		return err
	}
	if ti == nil {
		ui.Println(ui.Current().Muted.Render("not logged in"))
		ui.Println("Run: tada auth login")
		return nil
	}
	ui.Println("source: " + ti.Source)
	if ti.ExpiresAt != nil {
		line := "expires: " + ti.ExpiresAt.UTC().Format(time.RFC3339)
		if now := time.Now(); ti.Expired(now) {
			line += " " + ui.Current().Error.Render("(expired "+ui.Age(now.Sub(*ti.ExpiresAt))+")")
		}
		ui.Println(line)
	} else {
		ui.Println("expires: (unknown)")
	}
	ui.Println("env override: " + auth.EnvToken)
	return nil
}

// AuthWhoamiCmd decodes a JWT locally (unsigned); opaque tokens print basic info.
type AuthWhoamiCmd struct{}

func (c *AuthWhoamiCmd) Run(a *app) error {
	ti, _ := auth.GetToken()
	if ti == nil {
		return usageError{errors.New("not logged in. Run: tada auth login")}
	}
	claims, err := auth.DecodeClaims(ti.Token)
	if err != nil {
		ui.Println("Opaque token (cannot introspect locally).")
		ui.Println("source: " + ti.Source)
		return nil
	}
	if sub, _ := claims.GetSubject(); sub != "" {
		ui.Println("subject: " + sub)
	}
	b, err := json.MarshalIndent(claims, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal claims: %w", err)
	}
	ui.Println("JWT payload:")
	ui.Println(string(b))
	return nil
}
