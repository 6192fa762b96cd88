package auth

import (
	"errors"
	"testing"

	"github.com/seenimoa/coinscope/internal/store"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	st, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return NewGate(st)
}

func TestAuthenticate(t *testing.T) {
	stored := Credentials{Username: "admin", Password: "s3cret"}

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{"exact match", "admin", "s3cret", true},
		{"wrong password", "admin", "guess", false},
		{"wrong username", "root", "s3cret", false},
		{"case sensitive username", "Admin", "s3cret", false},
		{"case sensitive password", "admin", "S3cret", false},
		{"both empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Authenticate(tc.username, tc.password, stored); got != tc.want {
				t.Fatalf("Authenticate(%q, %q) = %v, want %v", tc.username, tc.password, got, tc.want)
			}
		})
	}
}

func TestGateDefaultCredentials(t *testing.T) {
	g := newTestGate(t)

	token, err := g.Login("admin", "admin")
	if err != nil {
		t.Fatalf("Login with seeded credentials: %v", err)
	}
	if token == "" {
		t.Fatal("Login returned empty token")
	}
	if !g.CapabilityFor(token).Privileged {
		t.Fatal("minted token is not privileged")
	}
}

func TestGateLoginFailure(t *testing.T) {
	g := newTestGate(t)

	if _, err := g.Login("admin", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("Login: %v, want ErrBadCredentials", err)
	}
}

func TestGateLogout(t *testing.T) {
	g := newTestGate(t)

	token, err := g.Login("admin", "admin")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	g.Logout(token)
	if g.CapabilityFor(token).Privileged {
		t.Fatal("revoked token still privileged")
	}

	// Revoking twice, or revoking garbage, is a no-op.
	g.Logout(token)
	g.Logout("nonsense")
}

func TestGateCapabilityForUnknownToken(t *testing.T) {
	g := newTestGate(t)
	if c := g.CapabilityFor("never-issued"); c.Privileged {
		t.Fatal("unknown token resolved to a privileged capability")
	}
}

func TestGateRotate(t *testing.T) {
	g := newTestGate(t)

	if err := g.Rotate(Credentials{Username: "ops", Password: "hunter2"}); err != nil {
		t.Fatalf("Rotate: %v", err)
	}

	if _, err := g.Login("admin", "admin"); !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("Login with old credentials: %v, want ErrBadCredentials", err)
	}
	if _, err := g.Login("ops", "hunter2"); err != nil {
		t.Fatalf("Login with rotated credentials: %v", err)
	}
}

func TestGateRotateValidation(t *testing.T) {
	g := newTestGate(t)

	if err := g.Rotate(Credentials{Username: " ", Password: "x"}); err == nil {
		t.Fatal("Rotate accepted blank username")
	}
	if err := g.Rotate(Credentials{Username: "x", Password: ""}); err == nil {
		t.Fatal("Rotate accepted empty password")
	}

	// Failed rotations must not clobber the stored pair.
	if _, err := g.Login("admin", "admin"); err != nil {
		t.Fatalf("Login after rejected rotation: %v", err)
	}
}

func TestGateRotateKeepsExistingTokens(t *testing.T) {
	g := newTestGate(t)

	token, err := g.Login("admin", "admin")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := g.Rotate(Credentials{Username: "ops", Password: "hunter2"}); err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if !g.CapabilityFor(token).Privileged {
		t.Fatal("rotation revoked an issued token")
	}
}
