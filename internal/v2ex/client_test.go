package v2ex

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchByNode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/topics/show.json", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("node_name") {
		case "go":
			fmt.Fprint(w, `[{"id":10,"title":"Generics tips","content":"use <b>constraints</b>","created":1700000000},
				{"id":11,"title":"Modules","url":"https://www.v2ex.com/t/11","created":1700000100}]`)
		default:
			http.Error(w, "no such node", http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", "go", "missing")
	assert.Equal(t, "v2ex", c.Name())
	got, err := c.Fetch(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Generics tips", got[0].Headline)
	assert.Equal(t, "use constraints", got[0].Summary)
	assert.Equal(t, srv.URL+"/t/10", got[0].Link)
	assert.Equal(t, "https://www.v2ex.com/t/11", got[1].Link)

	one, err := c.Fetch(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestFetchLatestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Fetch(context.Background(), 10)
	assert.ErrorContains(t, err, "status 502")
}
