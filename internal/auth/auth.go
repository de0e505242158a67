// Package auth stores the API bearer token.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/tada/internal/config"
)

const credFileName = "credentials.json"

// EnvToken overrides the credentials file when set.
const EnvToken = "TADA_TOKEN"

// ErrEmptyToken is returned by SetToken for blank input.
var ErrEmptyToken = errors.New("empty token")

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // optional, from the JWT exp claim
}

// Expired reports whether the token carries an expiry before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && now.After(*ti.ExpiresAt)
}

func credFilePath() (string, error) {
	return config.Path(credFileName)
}

// GetToken returns the active token, or nil when not logged in.
func GetToken() (*TokenInfo, error) {
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" {
		return &TokenInfo{Token: stripBearer(env), Source: "env"}, nil
	}

	p, err := credFilePath()
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	return &ti, nil
}

// SetToken writes token to the credentials file. When expires is nil and the
// token is a JWT with an exp claim, that claim is used.
func SetToken(token string, expires *time.Time) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	if expires == nil {
		expires = expiry(token)
	}
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: time.Now(),
		ExpiresAt: expires,
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// owner-only
	if err := os.WriteFile(filepath.Join(dir, credFileName), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// DeleteToken removes the credentials file. Missing is fine.
func DeleteToken() error {
	p, err := credFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}

// ErrOpaqueToken means the token is not a JWT.
var ErrOpaqueToken = errors.New("opaque token")

// DecodeClaims reads the payload of a JWT without checking its signature;
// the server does that.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	claims := jwt.MapClaims{}
	p := jwt.NewParser(jwt.WithPaddingAllowed())
	if _, _, err := p.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// expiry returns the exp claim of a JWT, or nil.
func expiry(token string) *time.Time {
	c, err := DecodeClaims(token)
	if err != nil {
		return nil
	}
	exp, err := c.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time.UTC()
	return &t
}
