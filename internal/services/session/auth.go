package session

import (
	"crypto/subtle"

	"github.com/fgeck/gopower-homelab/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Authenticator checks a login line against the shared secret.
type Authenticator interface {
	Verify(line string) bool
}

// SecretAuthenticator compares against a plain secret or a bcrypt hash.
type SecretAuthenticator struct {
	secret []byte
	hash   []byte
}

// NewAuthenticator builds an authenticator from the session config. A
// configured hash takes precedence over the plain secret.
func NewAuthenticator(cfg models.SessionConfig) *SecretAuthenticator {
	a := &SecretAuthenticator{}
	if cfg.SecretHash != "" {
		a.hash = []byte(cfg.SecretHash)
	} else {
		a.secret = []byte(cfg.Secret)
	}
	return a
}

// Verify reports whether line is the secret.
func (a *SecretAuthenticator) Verify(line string) bool {
	if a.hash != nil {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(line)) == nil
	}
	if len(a.secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a.secret, []byte(line)) == 1
}
