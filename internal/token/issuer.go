// Package token issues opaque session tokens for check-in links.
package token

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// Issuer produces unguessable session tokens. Tokens carry no structure;
// uniqueness is enforced by the sessions.token constraint, and a collision
// there is handled as a retryable conflict by the caller.
type Issuer struct{}

func NewIssuer() *Issuer {
	return &Issuer{}
}

// Issue returns 32 lowercase hex characters (128 bits of randomness).
func (i *Issuer) Issue() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
