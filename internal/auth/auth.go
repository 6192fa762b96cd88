// Package auth implements the admin access gate: a single stored
// credential pair and the capability value that successful login mints.
// This is a demo-grade gate, not a security boundary — no hashing, no
// lockout, no multi-user model.
package auth

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/seenimoa/coinscope/internal/store"
)

// Credentials is the stored username/password pair.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DefaultCredentials is the seeded pair used until the admin rotates it.
func DefaultCredentials() Credentials {
	return Credentials{Username: "admin", Password: "admin"}
}

// Capability is the privileged-mode value handed to consumers after a
// successful login. It is threaded explicitly through component inputs
// rather than held as ambient global state.
type Capability struct {
	Privileged bool `json:"privileged"`
}

// ErrBadCredentials is returned on a failed login. The caller surfaces it
// inline and clears the password field; there is no lockout or backoff.
var ErrBadCredentials = fmt.Errorf("invalid username or password")

// Gate authenticates against the persisted credential pair and tracks
// issued capability tokens for the HTTP layer.
type Gate struct {
	mu     sync.Mutex
	st     *store.Store
	tokens map[string]Capability
}

// NewGate opens the gate backed by st.
func NewGate(st *store.Store) *Gate {
	return &Gate{
		st:     st,
		tokens: make(map[string]Capability),
	}
}

// credentials loads the stored pair, falling back to the default.
func (g *Gate) credentials() Credentials {
	creds := DefaultCredentials()
	g.st.Load(store.KeyCredentials, &creds)
	return creds
}

// Authenticate is an exact-match comparison on both fields. Privileged
// mode is untouched on failure.
func Authenticate(username, password string, stored Credentials) bool {
	return username == stored.Username && password == stored.Password
}

// Login authenticates and, on success, mints an opaque token bound to a
// privileged capability.
func (g *Gate) Login(username, password string) (string, error) {
	if !Authenticate(username, password, g.credentials()) {
		return "", ErrBadCredentials
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	token := uuid.NewString()
	g.tokens[token] = Capability{Privileged: true}
	return token, nil
}

// Logout revokes a token. Unknown tokens are ignored.
func (g *Gate) Logout(token string) {
	g.mu.Lock()
	delete(g.tokens, token)
	g.mu.Unlock()
}

// CapabilityFor resolves a token to its capability. Absent or revoked
// tokens yield the zero (unprivileged) capability.
func (g *Gate) CapabilityFor(token string) Capability {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tokens[token]
}

// Rotate replaces the stored credential pair. Existing tokens stay valid;
// only future logins are checked against the new pair.
func (g *Gate) Rotate(creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" {
		return fmt.Errorf("username required")
	}
	if strings.TrimSpace(creds.Password) == "" {
		return fmt.Errorf("password required")
	}
	return g.st.Save(store.KeyCredentials, creds)
}
