package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"shopfront/internal/api"
	"shopfront/internal/config"
	"shopfront/internal/model"
	"shopfront/internal/storage"
	"shopfront/internal/stubapi"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requestCounter wraps a handler and counts requests by method and path.
type requestCounter struct {
	inner http.Handler

	mu     sync.Mutex
	counts map[string]int
}

func newRequestCounter(inner http.Handler) *requestCounter {
	return &requestCounter{inner: inner, counts: make(map[string]int)}
}

func (c *requestCounter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.counts[r.Method+" "+r.URL.Path]++
	c.mu.Unlock()
	c.inner.ServeHTTP(w, r)
}

func (c *requestCounter) count(methodAndPath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[methodAndPath]
}

func (c *requestCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

func newClient(t *testing.T, baseURL string, store storage.Store) *api.Client {
	t.Helper()
	return api.NewClient(config.APIConfig{
		BaseURL:  baseURL,
		Hostname: "localhost",
		Timeout:  5,
	}, store, api.NotifierFunc(func(string) {}), zerolog.Nop())
}

// newCartEnv spins up the stub backend with a logged-in account and two
// seeded products, returning the cart store and everything needed for
// assertions.
func newCartEnv(t *testing.T) (*Store, *stubapi.Server, *requestCounter, storage.Store, []model.Product) {
	t.Helper()

	backend := stubapi.New()
	backend.AddAccount("alice", "secret", "alice@example.com")
	products := []model.Product{
		backend.AddProduct(model.Product{Name: "Widget", Price: 50, Stock: 10}),
		backend.AddProduct(model.Product{Name: "Gadget", Price: 30, Stock: 5}),
	}

	counter := newRequestCounter(backend.Handler())
	server := httptest.NewServer(counter)
	t.Cleanup(server.Close)

	store := storage.NewMemoryStore()
	access, refresh := backend.MintTokens("alice")
	store.Set(storage.KeyAccessToken, access)
	store.Set(storage.KeyRefreshToken, refresh)

	return New(newClient(t, server.URL, store), store, zerolog.Nop()), backend, counter, store, products
}

func TestStore_FetchComputesTotals(t *testing.T) {
	cart, _, _, _, products := newCartEnv(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, products[0].ID, 2))
	require.NoError(t, cart.Add(ctx, products[1].ID, 1))

	assert.Equal(t, 3, cart.TotalItems())
	assert.InDelta(t, 130.0, cart.TotalAmount(), 1e-9)
	assert.Len(t, cart.Items(), 2)
}

func TestStore_AddRejectsInvalidQuantityLocally(t *testing.T) {
	cart, _, counter, _, products := newCartEnv(t)

	err := cart.Add(context.Background(), products[0].ID, 0)

	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Zero(t, counter.total(), "invalid quantity must not reach the network")
}

func TestStore_UpdateItemRejectsInvalidQuantityLocally(t *testing.T) {
	cart, _, counter, _, _ := newCartEnv(t)

	err := cart.UpdateItem(context.Background(), "ci-1", -1)

	assert.ErrorIs(t, err, model.ErrInvalidQuantity)
	assert.Zero(t, counter.total())
}

func TestStore_UpdateItemResyncs(t *testing.T) {
	cart, _, _, _, products := newCartEnv(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, products[0].ID, 1))
	items := cart.Items()
	require.Len(t, items, 1)

	require.NoError(t, cart.UpdateItem(ctx, items[0].ID, 4))

	assert.Equal(t, 4, cart.TotalItems())
	assert.InDelta(t, 200.0, cart.TotalAmount(), 1e-9)
}

func TestStore_RemoveResyncs(t *testing.T) {
	cart, _, _, _, products := newCartEnv(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, products[0].ID, 2))
	require.NoError(t, cart.Add(ctx, products[1].ID, 1))
	items := cart.Items()
	require.Len(t, items, 2)

	require.NoError(t, cart.Remove(ctx, items[0].ID))

	assert.Equal(t, 1, cart.TotalItems())
	assert.InDelta(t, 30.0, cart.TotalAmount(), 1e-9)
}

func TestStore_ClearSkipsResync(t *testing.T) {
	cart, _, counter, _, products := newCartEnv(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, products[0].ID, 2))
	fetchesBefore := counter.count("GET /cart/")

	require.NoError(t, cart.Clear(ctx))

	assert.Empty(t, cart.Items())
	assert.Zero(t, cart.TotalItems())
	assert.Zero(t, cart.TotalAmount())
	assert.Equal(t, fetchesBefore, counter.count("GET /cart/"),
		"clearing has a known post-state and must not refetch")
}

func TestStore_WriteFailureLeavesMirrorUntouched(t *testing.T) {
	cart, _, _, _, products := newCartEnv(t)
	ctx := context.Background()

	require.NoError(t, cart.Add(ctx, products[1].ID, 3))

	// Stock ceiling is 5, so this write is rejected server-side.
	err := cart.Add(ctx, products[1].ID, 4)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	assert.Equal(t, 3, cart.TotalItems(), "rejected write must not change the mirror")
	assert.InDelta(t, 90.0, cart.TotalAmount(), 1e-9)
}

func TestStore_StaleFetchResponseIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	firstArrived := make(chan struct{})

	var calls int
	var mu sync.Mutex
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		stale := model.Cart{
			Items: []model.CartItem{{
				ID:       "ci-old",
				Product:  model.Product{ID: "p1", Price: 10},
				Quantity: 1,
				Subtotal: 10,
			}},
			TotalItems:  1,
			TotalAmount: 10,
		}
		fresh := model.Cart{
			Items: []model.CartItem{{
				ID:       "ci-new",
				Product:  model.Product{ID: "p1", Price: 10},
				Quantity: 5,
				Subtotal: 50,
			}},
			TotalItems:  5,
			TotalAmount: 50,
		}

		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			close(firstArrived)
			<-release
			_ = json.NewEncoder(w).Encode(stale)
			return
		}
		_ = json.NewEncoder(w).Encode(fresh)
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	store := storage.NewMemoryStore()
	cart := New(newClient(t, server.URL, store), store, zerolog.Nop())
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- cart.Fetch(ctx) }()
	<-firstArrived

	require.NoError(t, cart.Fetch(ctx))
	assert.Equal(t, 5, cart.TotalItems())

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 5, cart.TotalItems(), "older in-flight response must not overwrite a newer one")
	items := cart.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "ci-new", items[0].ID)
}

func TestStore_MismatchedTotalsAreRecomputed(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(model.Cart{
			Items: []model.CartItem{{
				ID:       "ci-1",
				Product:  model.Product{ID: "p1", Price: 25},
				Quantity: 2,
				Subtotal: 50,
			}},
			TotalItems:  7,
			TotalAmount: 999,
		})
	})

	server := httptest.NewServer(handler)
	defer server.Close()

	store := storage.NewMemoryStore()
	cart := New(newClient(t, server.URL, store), store, zerolog.Nop())

	require.NoError(t, cart.Fetch(context.Background()))

	assert.Equal(t, 2, cart.TotalItems())
	assert.InDelta(t, 50.0, cart.TotalAmount(), 1e-9)
}

func TestStore_Rehydrate(t *testing.T) {
	t.Run("restores persisted snapshot", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, storage.SetJSON(store, storage.KeyCart, model.Cart{
			Items: []model.CartItem{{
				ID:       "ci-1",
				Product:  model.Product{ID: "p1", Price: 20},
				Quantity: 2,
				Subtotal: 40,
			}},
			TotalItems:  2,
			TotalAmount: 40,
		}))

		cart := New(newClient(t, "http://127.0.0.1:1", store), store, zerolog.Nop())
		cart.Rehydrate()

		assert.Equal(t, 2, cart.TotalItems())
		assert.InDelta(t, 40.0, cart.TotalAmount(), 1e-9)
	})

	t.Run("corrupt snapshot is ignored", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.KeyCart, "{broken")

		cart := New(newClient(t, "http://127.0.0.1:1", store), store, zerolog.Nop())
		cart.Rehydrate()

		assert.Zero(t, cart.TotalItems())
		assert.Empty(t, cart.Items())
	})
}

func TestStore_Invalidate(t *testing.T) {
	cart, _, _, _, products := newCartEnv(t)
	require.NoError(t, cart.Add(context.Background(), products[0].ID, 2))

	cart.Invalidate()

	assert.Empty(t, cart.Items())
	assert.Zero(t, cart.TotalItems())
	assert.Zero(t, cart.TotalAmount())
}
