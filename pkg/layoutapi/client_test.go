package layoutapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dashboard "github.com/goliatone/go-visualsync/components/dashboard"
)

func TestClientLoadLayout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user/dashboard", r.URL.Path)
		assert.Equal(t, "Bearer viewer", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"visualOrder":["dynamic-7","store-sales"],"selectedDynamicReports":[7]}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL + "/api/"})
	require.NoError(t, err)
	ctx := dashboard.ContextWithBearerToken(context.Background(), "viewer")
	ctx = dashboard.ContextWithRequestID(ctx, "req-1")

	doc, err := client.LoadLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dynamic-7", "store-sales"}, doc.VisualOrder)
	assert.Equal(t, []dashboard.ReportKey{"7"}, doc.SelectedDynamicReports)
}

func TestClientLoadLayoutNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, TokenSource: dashboard.StaticToken("svc")})
	require.NoError(t, err)
	_, err = client.LoadLayout(context.Background())
	assert.ErrorIs(t, err, dashboard.ErrLayoutNotFound)
}

func TestClientSaveLayout(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "Bearer svc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, TokenSource: dashboard.StaticToken("svc")})
	require.NoError(t, err)
	require.NoError(t, client.SaveLayout(context.Background(), dashboard.LayoutDocument{VisualOrder: []string{"store-sales"}}))
	assert.Equal(t, []any{"store-sales"}, received["visualOrder"])
	assert.Equal(t, []any{}, received["selectedDynamicReports"])
}

func TestClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, TokenSource: dashboard.StaticToken("svc")})
	require.NoError(t, err)
	err = client.SaveLayout(context.Background(), dashboard.LayoutDocument{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.False(t, errors.Is(err, dashboard.ErrLayoutNotFound))
}

func TestClientRequiresToken(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.LoadLayout(context.Background())
	assert.ErrorIs(t, err, dashboard.ErrMissingToken)
	assert.Zero(t, calls)
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
