package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "cardscraper/pkg/errors"
)

const testUserAgent = "cardscraper-test/1.0"

func newTestClient(serverURL string) *Client {
	return NewClient(serverURL, testUserAgent, 5*time.Second, 1, nil)
}

func TestClientGetHTML(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	body, err := client.GetHTML(context.Background(), "/page")
	require.NoError(t, err)
	assert.Contains(t, body, "ok")
	assert.Equal(t, testUserAgent, gotUserAgent)
}

func TestClientGetHTMLNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetHTML(context.Background(), "/missing")
	require.Error(t, err)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr), "expected a typed pipeline error")
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, 404, apiErr.Code)
}

func TestClientFetchCardinals(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(listingPageHTML))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	rows, err := client.FetchCardinals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/cardinals/?_voting_status=voting", gotPath)
	require.Len(t, rows, 2)
	assert.Equal(t, "First Cardinal", rows[0].Name)
}

func TestClientFetchProfileText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="cardinals-summary-block">Summary here.</div>
<div class="dynamic-entry-content">Narrative here.</div>`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.FetchProfileText(context.Background(), "/cardinals/test/")
	require.NoError(t, err)

	assert.Equal(t, "Summary here.", text.Summary)
	assert.Equal(t, "Narrative here.", text.Narrative)
}
