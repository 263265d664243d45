package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIssue(t *testing.T) {
	issuer := NewIssuer()

	tok := issuer.Issue()
	assert.Len(t, tok, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", tok)

	// Tokens are unguessable link secrets; two issues must differ.
	assert.NotEqual(t, tok, issuer.Issue())
}
