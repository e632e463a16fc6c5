package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPost(t *testing.T) {
	var gotHeader, gotContentType string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Test")
		gotContentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":false}`))
	}))
	defer srv.Close()

	client := NewClient(2 * time.Second)
	resp, err := client.Post(context.Background(), Request{
		URL:         srv.URL,
		ContentType: "application/x-amz-json-1.1",
		Headers:     map[string]string{"X-Test": "yes"},
		Body:        map[string]string{"hello": "world"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"ok":false}`, string(resp.Body))
	assert.Equal(t, "yes", gotHeader)
	assert.Equal(t, "application/x-amz-json-1.1", gotContentType)
	assert.Equal(t, "world", gotBody["hello"])
}

func TestClientPostCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).Post(ctx, Request{URL: "http://127.0.0.1:1", Body: struct{}{}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientPostUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(time.Second).Post(context.Background(), Request{URL: url, Body: struct{}{}})
	assert.Error(t, err)
}

func TestEffectiveTimeout(t *testing.T) {
	c := NewClient(10 * time.Second)

	got, err := c.effectiveTimeout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, got)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err = c.effectiveTimeout(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, time.Second)

	expired, cancel2 := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel2()
	_, err = c.effectiveTimeout(expired)
	assert.ErrorIs(t, err, ErrDeadlineExceeded)
}
