package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientEnvelope(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/ok":
			require.Equal(t, "q=1", r.URL.RawQuery)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"amount":"40.5"}}`))
		case "/fail":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":{"type":"already_reviewed","message":"payment has already been reviewed"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := New(ts.URL, WithToken("tok-123"))

	var out struct {
		Amount string `json:"amount"`
	}
	err := c.Get(context.Background(), "/ok", url.Values{"q": {"1"}}, &out)
	require.NoError(t, err)
	require.Equal(t, "40.5", out.Amount)
	require.Equal(t, "Bearer tok-123", gotAuth)

	err = c.Post(context.Background(), "/fail", map[string]string{"x": "y"}, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "already_reviewed", apiErr.Type)
}

func TestClientDecodesRawBodyOnUnexpectedError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer ts.Close()

	err := New(ts.URL).Get(context.Background(), "/x", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.Status)
	require.Equal(t, "unknown", apiErr.Type)
}

func TestClientUpload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "ticket.png", header.Filename)
		require.Equal(t, "12.34", r.FormValue("amount"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"url": "/uploads/abc.png"}})
	}))
	defer ts.Close()

	var out struct {
		URL string `json:"url"`
	}
	err := New(ts.URL).Upload(context.Background(), "/upload", "ticket.png", strings.NewReader("pngbytes"), map[string]string{"amount": "12.34"}, &out)
	require.NoError(t, err)
	require.Equal(t, "/uploads/abc.png", out.URL)
}
