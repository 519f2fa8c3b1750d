package hackernews

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[1, 2, 3, 4]`)
	})
	mux.HandleFunc("/newstories.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[4, 5]`)
	})
	mux.HandleFunc("/item/1.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"type":"story","title":"Go 1.24","url":"https://go.dev/blog/go1.24","time":1700000000}`)
	})
	mux.HandleFunc("/item/2.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":2,"type":"story","title":"Ask HN: Tabs?","text":"<p>Tabs &amp; spaces</p>","time":1700000100}`)
	})
	mux.HandleFunc("/item/3.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":3,"deleted":true}`)
	})
	mux.HandleFunc("/item/4.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	mux.HandleFunc("/item/5.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":5,"type":"story","title":"Newest","url":"https://example.com/5","time":1700000200}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.URL, "top", "new")
	assert.Equal(t, "hackernews", c.Name())

	got, err := c.Fetch(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Go 1.24", got[0].Headline)
	assert.Equal(t, "https://go.dev/blog/go1.24", got[0].Link)
	assert.Equal(t, "Tabs & spaces", got[1].Summary)
	assert.Equal(t, "https://news.ycombinator.com/item?id=2", got[1].Link)
	assert.Equal(t, "Newest", got[2].Headline)
	assert.Equal(t, int64(1700000200), got[2].PublishedAt.Unix())
}

func TestFetchLimit(t *testing.T) {
	srv := newServer(t)
	got, err := NewClient(srv.URL, "top").Fetch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFetchAllListsFail(t *testing.T) {
	srv := newServer(t)
	_, err := NewClient(srv.URL, "best").Fetch(context.Background(), 10)
	assert.Error(t, err)
}
