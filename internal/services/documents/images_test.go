package documents

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/logo.png" {
			w.Write([]byte("png-bytes"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "127.0.0.1")

	got, err := f.Fetch(context.Background(), srv.URL+"/logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), got)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)
}

func TestHTTPFetcherDataURL(t *testing.T) {
	f := NewHTTPFetcher(time.Second)
	url := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("abc"))

	got, err := f.Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	_, err = f.Fetch(context.Background(), "data:text/plain,hello")
	assert.Error(t, err)
}

func TestHTTPFetcherAllowList(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, "http://169.254.169.254/latest/meta-data/", http.StatusFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, "127.0.0.1", "cdn.example.com")

	for _, u := range []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:6379/",
		"file:///etc/passwd",
		"gopher://127.0.0.1/",
		"https://cdn.example.com.attacker.net/x.png",
	} {
		_, err := f.Fetch(context.Background(), u)
		assert.ErrorIs(t, err, ErrImageNotAllowed, u)
	}
	assert.Zero(t, hits.Load())

	_, err := f.Fetch(context.Background(), srv.URL+"/logo.png")
	assert.ErrorIs(t, err, ErrImageNotAllowed, "redirect off the allow list")
	assert.EqualValues(t, 1, hits.Load())

	assert.NoError(t, f.Allowed("https://CDN.example.com/foto.jpg"))
	assert.NoError(t, f.Allowed("data:image/png;base64,AAAA"))
}
