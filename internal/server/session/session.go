// Package session carries the operator's authentication state between
// requests. A Session starts unauthenticated and becomes authenticated once
// the shared password is presented; there is no expiry and no logout.
package session

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/clientadmin/internal/common"
	"github.com/google/uuid"
)

type Session struct {
	ID            string
	Authenticated bool
}

// New returns an unauthenticated session with a fresh id.
func New() *Session {
	return &Session{ID: uuid.NewString()}
}

// Gate checks the shared password.
type Gate struct {
	digest [sha256.Size]byte
}

func NewGate(password string) *Gate {
	return &Gate{digest: sha256.Sum256([]byte(password))}
}

// Authenticate marks sess authenticated when password matches. On mismatch
// sess is left as it was and ErrUnauthorized is returned. An already
// authenticated session passes without a check.
func (g *Gate) Authenticate(_ context.Context, sess *Session, password string) error {
	if sess.Authenticated {
		return nil
	}

	candidate := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(g.digest[:], candidate[:]) != 1 {
		return fmt.Errorf("%w: wrong password", common.ErrUnauthorized)
	}

	sess.Authenticated = true
	return nil
}
