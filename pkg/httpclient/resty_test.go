package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestyClient_GetAndPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"value": 42}`))
		case http.MethodPost:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"value": ` + body["n"] + `}`))
		}
	}))
	defer srv.Close()

	client := New(srv.URL, time.Second, WithHeaders(map[string]string{"User-Agent": "test-agent"}))

	var got struct {
		Value int `json:"value"`
	}
	resp, err := client.Get(context.Background(), "/quote", map[string]string{"symbol": "AAPL"}, nil, &got)
	require.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, 42, got.Value)

	resp, err = client.Post(context.Background(), "/echo", map[string]string{"n": "7"}, nil, &got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 7, got.Value)
}

func TestRestyClient_NonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	resp, err := New(srv.URL, time.Second).Get(context.Background(), "/", nil, nil, nil)
	require.NoError(t, err)
	assert.False(t, resp.IsSuccess())
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestRestyClient_TransportErrorHidesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	_, err := New(baseURL, time.Second).Get(context.Background(), "/query", map[string]string{"apikey": "SECRET"}, nil, nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
	assert.Contains(t, err.Error(), "/query")
}
