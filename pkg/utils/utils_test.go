package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	t.Run("RemoteAddr", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:54321"
		assert.Equal(t, "203.0.113.9", GetClientIP(r))
	})

	t.Run("ForwardedForWins", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		r.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
		assert.Equal(t, "198.51.100.4", GetClientIP(r))
	})
}

func TestToNullString(t *testing.T) {
	assert.False(t, ToNullString("").Valid)
	ns := ToNullString("value")
	assert.True(t, ns.Valid)
	assert.Equal(t, "value", ns.String)
}
