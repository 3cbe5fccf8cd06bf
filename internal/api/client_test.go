package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func setupBackend(t *testing.T, routes func(r chi.Router)) *Client {
	r := chi.NewRouter()
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(Config{BaseURL: srv.URL, Timeout: 2 * time.Second}, TokenFunc(func(context.Context) string {
		return "token-123"
	}), srv.Client())
}

func TestDo_SuccessFlag(t *testing.T) {
	var gotAuth string
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"pong":1}}`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/ping", nil, nil)
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "Bearer token-123", gotAuth)

	var data struct {
		Pong int `json:"pong"`
	}
	require.NoError(t, env.Decode(&data))
	assert.Equal(t, 1, data.Pong)
}

func TestDo_LegacyStatusShape(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/legacy", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"status":"success","data":[]}`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/legacy", nil, nil)
	require.NoError(t, err)
	assert.True(t, env.Success)
}

func TestDo_MissingMarkerFailsClosed(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/bare", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"data":{"id":"1"}}`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/bare", nil, nil)
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestDo_BusinessRejectionIsReturnedNotRaised(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Post("/reject", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnprocessableEntity, `{"success":false,"message":"invalid","errors":{"email":["taken","bad"],"phone":["required"]}}`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodPost, "/reject", nil, map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, "invalid", env.Message)
	assert.Equal(t, map[string]string{"email": "taken", "phone": "required"}, env.FieldErrorMap())
	assert.False(t, IsTransient(env, nil))
}

func TestDo_SuccessFlagWithErrorStatus(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/odd", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, `{"success":true}`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/odd", nil, nil)
	require.NoError(t, err)
	assert.False(t, env.Success)
}

func TestDo_ServerErrorIsTransient(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/boom", nil, nil)
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusBadGateway, env.StatusCode)
	assert.True(t, IsTransient(env, nil))
}

func TestDo_MalformedBodyIsTransportError(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/garbage", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `not json`)
		})
	})

	env, err := c.Do(context.Background(), http.MethodGet, "/garbage", nil, nil)
	assert.Nil(t, env)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.True(t, IsTransient(env, err))
}

func TestDo_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := NewClientWithHTTP(Config{BaseURL: srv.URL}, nil, &http.Client{})

	_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDo_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/down", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"success":false,"message":"down"}`)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()
	c := NewClientWithHTTP(Config{BaseURL: srv.URL, BreakerThreshold: 2, BreakerCooldown: time.Minute}, nil, srv.Client())

	for i := 0; i < 2; i++ {
		env, err := c.Do(context.Background(), http.MethodGet, "/down", nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "down", env.Message)
	}

	_, err := c.Do(context.Background(), http.MethodGet, "/down", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestProducts_NormalizesDiscountAndQuery(t *testing.T) {
	var gotQuery string
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/products", func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"products":[
				{"id":"1","name":"a","price":100,"discount_price":80},
				{"id":"2","name":"b","price":100,"discount":70},
				{"id":"3","name":"c","price":100,"discount":0},
				{"id":"4","name":"d","price":100,"discount":150}
			],"page":2,"limit":4,"total":9,"total_pages":3}}`)
		})
	})

	min := decimal.NewFromInt(10)
	resp, err := c.Products(context.Background(), ProductQuery{Page: 2, Limit: 4, Category: "shoes", MinPrice: &min, Sort: "price_asc"})
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, resp.Data.Products, 4)

	assert.True(t, decimal.NewFromInt(80).Equal(resp.Data.Products[0].EffectivePrice()))
	assert.True(t, decimal.NewFromInt(70).Equal(resp.Data.Products[1].EffectivePrice()))
	assert.Nil(t, resp.Data.Products[2].DiscountedPrice)
	assert.Nil(t, resp.Data.Products[3].DiscountedPrice)
	assert.Equal(t, 3, resp.Data.TotalPages)
	assert.Equal(t, "category=shoes&limit=4&min_price=10&page=2&sort=price_asc", gotQuery)
}

func TestShippingQuote_ConvertsPercentToFraction(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Get("/shipping/quote", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "city-1", r.URL.Query().Get("city_id"))
			assert.Equal(t, "express", r.URL.Query().Get("method"))
			writeJSON(w, http.StatusOK, `{"success":true,"data":{"shipping_fee":500,"tax_rate":5}}`)
		})
	})

	resp, err := c.ShippingQuote(context.Background(), "city-1", "express")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(resp.Data.Fee))
	assert.True(t, decimal.RequireFromString("0.05").Equal(resp.Data.TaxRate))
}

func TestSyncWishlist_SendsIDs(t *testing.T) {
	c := setupBackend(t, func(r chi.Router) {
		r.Post("/wishlist/sync", func(w http.ResponseWriter, r *http.Request) {
			var body map[string][]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"p1", "p2"}, body["product_ids"])
			writeJSON(w, http.StatusOK, `{"success":true,"data":[{"id":"p1","price":10},{"id":"p2","price":20},{"id":"p9","price":30}]}`)
		})
	})

	resp, err := c.SyncWishlist(context.Background(), []string{"p1", "p2"})
	require.NoError(t, err)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "p9", resp.Data[2].ID)
}
