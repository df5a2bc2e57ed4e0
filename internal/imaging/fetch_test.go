package imaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherReturnsBody(t *testing.T) {
	t.Parallel()

	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.UserAgent()
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(Config{UserAgent: "discimg-test/1.0", Timeout: 5 * time.Second})
	got, err := f.Fetch(context.Background(), srv.URL+"/img/x.png")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "discimg-test/1.0", gotAgent)
}

func TestFetcherRejectsNonSuccessStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(Config{Timeout: 5 * time.Second})
	_, err := f.Fetch(context.Background(), srv.URL+"/img/missing.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestFetcherRejectsUnreachableHost(t *testing.T) {
	t.Parallel()

	f := NewFetcher(Config{Timeout: time.Second})
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:1/img/x.png")
	require.Error(t, err)
}
