package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, 180*time.Second, c.Timeout)

	c = New(Options{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, c.Timeout)
}

func TestResponseHeaderTimeoutFollowsTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, 5 * time.Second, 300 * time.Second} {
		c := New(Options{Timeout: timeout})
		lt, ok := c.Transport.(*loggingTransport)
		require.True(t, ok)
		tr, ok := lt.next.(*http.Transport)
		require.True(t, ok)
		assert.Equal(t, c.Timeout, tr.ResponseHeaderTimeout, "timeout %s", timeout)
	}
}

func TestUserAgent(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "pixelgen-test"})

	resp, err := c.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, []string{"pixelgen-test", "custom"}, got)
}
