package cep

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ws/13010000/json/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"13010-000","logradouro":"Rua Barão de Jaguara","bairro":"Centro","localidade":"Campinas","uf":"SP"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	addr, err := c.Lookup(context.Background(), "13010-000")
	require.NoError(t, err)
	assert.Equal(t, "Rua Barão de Jaguara", addr.Street)
	assert.Equal(t, "Centro", addr.Neighborhood)
	assert.Equal(t, "Campinas", addr.City)
	assert.Equal(t, "SP", addr.State)
}

func TestLookupInvalidCode(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Lookup(context.Background(), "1301")
	assert.ErrorIs(t, err, ErrInvalidCEP)
	assert.Equal(t, int32(0), hits.Load(), "invalid codes never reach the upstream")
}

func TestLookupUnknownCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Lookup(context.Background(), "99999999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLookupBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.Lookup(ctx, "13010000")
		require.Error(t, err)
		assert.NotErrorIs(t, err, gobreaker.ErrOpenState)
	}

	_, err := c.Lookup(ctx, "13010000")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load(), "open breaker short-circuits")
}

func TestLookupNotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := c.Lookup(ctx, "99999999")
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
