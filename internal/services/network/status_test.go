package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStatusChecker_Defaults(t *testing.T) {
	checker := NewStatusChecker("")
	require.NotNil(t, checker)
	assert.True(t, checker.IsOnline(), "starts optimistically online")
	assert.Equal(t, defaultCheckHost, checker.checkURL)
	assert.True(t, checker.LastCheck().IsZero(), "no probe has happened yet")
}

func TestCheck_ProbesConfiguredHost(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL)
	online := checker.Check(context.Background())

	assert.True(t, online)
	assert.True(t, checker.IsOnline())
	assert.Equal(t, http.MethodHead, method)
	assert.False(t, checker.LastCheck().IsZero())
}

func TestCheck_RedirectStillCountsAsOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL)
	assert.True(t, checker.Check(context.Background()))
}

func TestCheck_ServerErrorMeansOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL)
	assert.False(t, checker.Check(context.Background()))
	assert.False(t, checker.IsOnline())
}

func TestCheck_UnreachableHostMeansOffline(t *testing.T) {
	// A server that is already closed refuses the connection.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	checker := NewStatusChecker(url)
	assert.False(t, checker.Check(context.Background()))
	assert.False(t, checker.IsOnline())
}

func TestCheck_RecoversAfterOutage(t *testing.T) {
	healthy := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL)
	assert.False(t, checker.Check(context.Background()))

	healthy = true
	assert.True(t, checker.Check(context.Background()))
	assert.True(t, checker.IsOnline())
}

func TestCheckCmd_ReturnsStatusMsg(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := NewStatusChecker(server.URL)
	msg := checker.CheckCmd()()

	status, ok := msg.(StatusMsg)
	require.True(t, ok, "expected StatusMsg, got %T", msg)
	assert.True(t, status.Online)
}
