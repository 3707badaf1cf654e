package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/carts", nil)
	r.RemoteAddr = "10.0.0.9:4312"
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")

	require.Equal(t, "203.0.113.7", ClientIP(r))
}

func TestClientIPFallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/carts", nil)
	r.RemoteAddr = "10.0.0.9:4312"
	r.Header.Set("X-Real-IP", "198.51.100.2")

	require.Equal(t, "198.51.100.2", ClientIP(r))
}

func TestClientIPStripsPortFromRemoteAddr(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/carts", nil)
	r.RemoteAddr = "192.0.2.44:58812"

	require.Equal(t, "192.0.2.44", ClientIP(r))
}

func TestClientIPNilRequest(t *testing.T) {
	require.Equal(t, "", ClientIP(nil))
}
