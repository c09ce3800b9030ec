package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "imgcrawler/pkg/errors"
	"imgcrawler/pkg/headers"
	"imgcrawler/pkg/logger"
)

func TestFetchOK(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><img src="/a.jpg"></body></html>`))
	}))
	defer server.Close()

	f := New(logger.NewNopLogger())
	page, err := f.Fetch(context.Background(), server.URL+"/gallery", Options{
		Headers: map[string]string{"Cookie": "sid=abc", "User-Agent": "custom-agent"},
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)

	assert.True(t, page.OK())
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.Equal(t, server.URL+"/gallery", page.URL)
	assert.Contains(t, string(page.Body), `<img src="/a.jpg">`)
	assert.Contains(t, page.ContentType, "text/html")

	assert.Equal(t, headers.AcceptHTML, got.Get("Accept"))
	assert.Equal(t, headers.AcceptLanguage, got.Get("Accept-Language"))
	assert.Equal(t, "sid=abc", got.Get("Cookie"))
	assert.Equal(t, "custom-agent", got.Get("User-Agent"))
}

func TestFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer server.Close()

	page, err := New(logger.NewNopLogger()).Fetch(context.Background(), server.URL, Options{})
	require.Error(t, err)
	require.NotNil(t, page)

	assert.False(t, page.OK())
	assert.Equal(t, errs.ErrorTypeHTTPStatus, errs.TypeOf(err))
	assert.Equal(t, http.StatusNotFound, errs.StatusCode(err))
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	page, err := New(logger.NewNopLogger()).Fetch(context.Background(), addr, Options{Timeout: 2 * time.Second})
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, errs.ErrorTypeNetwork, errs.TypeOf(err))
	assert.Zero(t, errs.StatusCode(err))
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	page, err := New(logger.NewNopLogger()).Fetch(context.Background(), server.URL, Options{Timeout: 100 * time.Millisecond})
	require.Error(t, err)
	assert.Nil(t, page)
	assert.Equal(t, errs.ErrorTypeTimeout, errs.TypeOf(err))
}

func TestPageOK(t *testing.T) {
	var nilPage *Page
	assert.False(t, nilPage.OK())
	assert.True(t, (&Page{StatusCode: 204}).OK())
	assert.False(t, (&Page{StatusCode: 301}).OK())
}
