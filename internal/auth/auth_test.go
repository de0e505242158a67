package auth

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fakeJWT(t *testing.T, payload string) string {
	t.Helper()
	enc := base64.RawURLEncoding.EncodeToString
	return enc([]byte(`{"alg":"none","typ":"JWT"}`)) + "." + enc([]byte(payload)) + "." + enc([]byte("sig"))
}

func TestTokenRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TADA_HOME", home)
	t.Setenv(EnvToken, "")

	ti, err := GetToken()
	if err != nil || ti != nil {
		t.Fatalf("GetToken() before login = %+v, %v", ti, err)
	}

	if err := SetToken("Bearer abc123", nil); err != nil {
		t.Fatal(err)
	}
	fi, err := os.Stat(filepath.Join(home, credFileName))
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", fi.Mode().Perm())
	}

	ti, err = GetToken()
	if err != nil {
		t.Fatal(err)
	}
	if ti.Token != "abc123" || ti.Source != "file" {
		t.Errorf("token = %+v", ti)
	}

	if err := DeleteToken(); err != nil {
		t.Fatal(err)
	}
	if err := DeleteToken(); err != nil {
		t.Errorf("second delete should be a no-op: %v", err)
	}
	if ti, _ := GetToken(); ti != nil {
		t.Errorf("token after logout = %+v", ti)
	}
}

func TestGetToken_EnvWins(t *testing.T) {
	t.Setenv("TADA_HOME", t.TempDir())
	if err := SetToken("from-file", nil); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "bearer from-env")

	ti, err := GetToken()
	if err != nil {
		t.Fatal(err)
	}
	if ti.Token != "from-env" || ti.Source != "env" {
		t.Errorf("token = %+v, want env token", ti)
	}
}

func TestSetToken_Empty(t *testing.T) {
	t.Setenv("TADA_HOME", t.TempDir())
	if err := SetToken("  Bearer  ", nil); err != ErrEmptyToken {
		t.Errorf("err = %v, want ErrEmptyToken", err)
	}
}

func TestSetToken_ExpiryFromJWT(t *testing.T) {
	t.Setenv("TADA_HOME", t.TempDir())
	t.Setenv(EnvToken, "")

	if err := SetToken(fakeJWT(t, `{"sub":"ada","exp":1700000000}`), nil); err != nil {
		t.Fatal(err)
	}
	ti, err := GetToken()
	if err != nil {
		t.Fatal(err)
	}
	want := time.Unix(1700000000, 0).UTC()
	if ti.ExpiresAt == nil || !ti.ExpiresAt.Equal(want) {
		t.Fatalf("expires = %v, want %v", ti.ExpiresAt, want)
	}
	if !ti.Expired(want.Add(time.Second)) || ti.Expired(want.Add(-time.Second)) {
		t.Error("Expired() disagrees with exp claim")
	}
}

func TestDecodeClaims(t *testing.T) {
	c, err := DecodeClaims(fakeJWT(t, `{"sub":"ada"}`))
	if err != nil {
		t.Fatal(err)
	}
	if sub, _ := c.GetSubject(); sub != "ada" {
		t.Errorf("sub = %q", sub)
	}
	if exp, _ := c.GetExpirationTime(); exp != nil {
		t.Error("no exp claim should give nil expiry")
	}

	if _, err := DecodeClaims("opaque-token"); err != ErrOpaqueToken {
		t.Errorf("err = %v, want ErrOpaqueToken", err)
	}
	if _, err := DecodeClaims("a.!!!.c"); err == nil {
		t.Error("expected decode error")
	}
}

func TestExpiry(t *testing.T) {
	want := time.Unix(1700000000, 0).UTC()
	padded := func(payload string) string {
		enc := base64.URLEncoding.EncodeToString
		return enc([]byte(`{"alg":"none"}`)) + "." + enc([]byte(payload)) + "." + enc([]byte("sig"))
	}
	tests := map[string]struct {
		token string
		want  *time.Time
	}{
		"integer exp":     {fakeJWT(t, `{"exp":1700000000}`), &want},
		"fractional exp":  {fakeJWT(t, `{"exp":1700000000.0}`), &want},
		"padded segments": {padded(`{"exp":1700000000,"sub":"a"}`), &want},
		"no exp":          {fakeJWT(t, `{"sub":"ada"}`), nil},
		"opaque":          {"opaque-token", nil},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := expiry(tt.token)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("expiry() = %v, want nil", got)
			case tt.want != nil && (got == nil || !got.Equal(*tt.want)):
				t.Errorf("expiry() = %v, want %v", got, tt.want)
			}
		})
	}
}
