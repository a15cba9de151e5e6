package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func stubSearchServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "test-key", user)
		require.Equal(t, "/search/companies", r.URL.Path)
		fmt.Fprint(w, body)
	}))
}

func TestResolveNumberExactMatch(t *testing.T) {
	srv := stubSearchServer(t, `{
		"items": [
			{"title": "ACME TRADING HOLDINGS LTD", "company_number": "09999999", "company_status": "active"},
			{"title": "ACME TRADING LIMITED", "company_number": "01234567", "company_status": "liquidation"}
		]
	}`)
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	number, err := c.ResolveNumber(context.Background(), "Acme Trading Ltd")
	require.NoError(t, err)
	require.Equal(t, "01234567", number)
}

func TestResolveNumberNoConfidentMatch(t *testing.T) {
	srv := stubSearchServer(t, `{
		"items": [
			{"title": "ACME TRADING HOLDINGS LTD", "company_number": "09999999"}
		]
	}`)
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	number, err := c.ResolveNumber(context.Background(), "Acme Trading Ltd")
	require.NoError(t, err)
	require.Empty(t, number)
}

func TestResolveNumberServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test-key", srv.URL)
	_, err := c.ResolveNumber(context.Background(), "Acme Trading Ltd")
	require.Error(t, err)
}

func TestResolveNumberBlankName(t *testing.T) {
	c := NewClientWithBaseURL("test-key", "http://127.0.0.1:0")
	number, err := c.ResolveNumber(context.Background(), "   ")
	require.NoError(t, err)
	require.Empty(t, number)
}
