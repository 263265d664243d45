package app

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderResolver(t *testing.T) {
	t.Run("no headers means anonymous", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin", nil)
		ident := HeaderResolver{}.Resolve(r)
		assert.True(t, ident.Anonymous())
		assert.False(t, ident.Verified)
	})

	t.Run("proxy headers produce a verified identity", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin", nil)
		r.Header.Set("X-Auth-Request-Email", "Maria.Pap@UNI.example.edu")
		r.Header.Set("X-Auth-Request-User", "Maria Pap")

		ident := HeaderResolver{}.Resolve(r)
		assert.Equal(t, "maria.pap@uni.example.edu", ident.Email)
		assert.Equal(t, "Maria Pap", ident.Name)
		assert.True(t, ident.Verified)
	})

	t.Run("fallback email headers are tried in order", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin", nil)
		r.Header.Set("X-Forwarded-Email", "john.doe@uni.example.edu")

		ident := HeaderResolver{}.Resolve(r)
		assert.Equal(t, "john.doe@uni.example.edu", ident.Email)
		assert.True(t, ident.Verified)
	})

	t.Run("missing name is derived from the email local part", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin", nil)
		r.Header.Set("X-Email", "john.doe@uni.example.edu")

		ident := HeaderResolver{}.Resolve(r)
		assert.Equal(t, "John Doe", ident.Name)
	})
}

func TestParamResolver(t *testing.T) {
	t.Run("reads query params and stays unverified", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin?email=Maria.Pap@uni.example.edu&name=Maria+Pap", nil)

		ident := ParamResolver{}.Resolve(r)
		assert.Equal(t, "maria.pap@uni.example.edu", ident.Email)
		assert.Equal(t, "Maria Pap", ident.Name)
		assert.False(t, ident.Verified)
	})

	t.Run("no params means anonymous", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/v1/checkin", nil)
		ident := ParamResolver{}.Resolve(r)
		assert.True(t, ident.Anonymous())
	})
}
