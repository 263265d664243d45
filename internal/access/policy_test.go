package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "maria@uni.example.edu", Normalize("  Maria@UNI.example.edu "))
	assert.Equal(t, "", Normalize("   "))
}

func TestPolicy(t *testing.T) {
	p := NewPolicy(
		[]string{"Admin@uni.example.edu"},
		[]string{"teach@uni.example.edu", ""},
		[]string{"office@uni.example.edu"},
	)

	t.Run("admin", func(t *testing.T) {
		assert.True(t, p.IsAdmin("admin@uni.example.edu"))
		assert.True(t, p.IsAdmin(" ADMIN@uni.example.edu "))
		assert.False(t, p.IsAdmin("teach@uni.example.edu"))
		assert.False(t, p.IsAdmin(""))
	})

	t.Run("instructor set includes admins", func(t *testing.T) {
		assert.True(t, p.IsInstructor("teach@uni.example.edu"))
		assert.True(t, p.IsInstructor("admin@uni.example.edu"))
		assert.False(t, p.IsInstructor("office@uni.example.edu"))
		assert.False(t, p.IsInstructor(""))
	})

	t.Run("secretary set includes admins", func(t *testing.T) {
		assert.True(t, p.IsSecretary("office@uni.example.edu"))
		assert.True(t, p.IsSecretary("admin@uni.example.edu"))
		assert.False(t, p.IsSecretary("teach@uni.example.edu"))
		assert.False(t, p.IsSecretary(""))
	})
}
