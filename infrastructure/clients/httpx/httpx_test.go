package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPage_OK(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	c := NewClient(time.Second, "ratings-test/1.0")
	body, found, err := c.GetPage(context.Background(), srv.URL, "test")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "<html>ok</html>", string(body))
	assert.Equal(t, "ratings-test/1.0", gotUA)
	assert.Equal(t, "en-US,en;q=0.9", gotLang)
}

func TestGetPage_NotFoundIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	body, found, err := NewClient(time.Second, "").GetPage(context.Background(), srv.URL, "test")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, body)
}

func TestGetPage_ServerErrorIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, err := NewClient(time.Second, "").GetPage(context.Background(), srv.URL, "test")
	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestGetPage_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, _, err := NewClient(50*time.Millisecond, "").GetPage(context.Background(), srv.URL, "test")
	assert.Error(t, err)
}

type flakyTransport struct {
	calls atomic.Int32
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.calls.Add(1) == 1 {
		return nil, errors.New("connection reset")
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestTransport_RetriesNetworkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	flaky := &flakyTransport{}
	client := &http.Client{Transport: &Transport{Base: flaky, RetryMax: 1}}
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, int32(2), flaky.calls.Load())
}
