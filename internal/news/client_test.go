package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Everything(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/everything", r.URL.Path)
		assert.Equal(t, "news-key", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "forex currency market", r.URL.Query().Get("q"))
		assert.Equal(t, "publishedAt", r.URL.Query().Get("sortBy"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok","totalResults":1,"articles":[
			{"source":{"id":null,"name":"FXStreet"},"title":"EUR/USD rallies","url":"https://fx.example.com/1","publishedAt":"2025-03-01T10:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	client := NewClient("news-key", srv.URL, time.Second)
	articles, err := client.Everything(context.Background(), "forex currency market")
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "EUR/USD rallies", articles[0].Title)
	assert.Equal(t, "FXStreet", articles[0].Source.Name)
}

func TestClient_Everything_Errors(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		_, err := NewClient("", "http://unused", time.Second).Everything(context.Background(), "forex")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("api error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid"}`))
		}))
		defer srv.Close()

		_, err := NewClient("bad", srv.URL, time.Second).Everything(context.Background(), "forex")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "apiKeyInvalid")
	})

	t.Run("not json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`<html>bad gateway</html>`))
		}))
		defer srv.Close()

		_, err := NewClient("key", srv.URL, time.Second).Everything(context.Background(), "forex")
		require.Error(t, err)
	})
}
