package order

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
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

type orderEnv struct {
	orders  *Client
	backend *stubapi.Server
	client  *api.Client
	address model.Address
}

// newOrderEnv builds a logged-in environment with one address, two
// products and those products already in the cart.
func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()

	backend := stubapi.New()
	backend.AddAccount("alice", "secret", "alice@example.com")
	address := backend.AddAddress("alice", model.Address{
		ReceiverName:  "Alice",
		ReceiverPhone: "555-0100",
		Province:      "Province",
		City:          "City",
		District:      "District",
		Detail:        "1 Main St",
	})
	p1 := backend.AddProduct(model.Product{Name: "Widget", Price: 50, Stock: 10})
	p2 := backend.AddProduct(model.Product{Name: "Gadget", Price: 30, Stock: 5})

	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	store := storage.NewMemoryStore()
	access, refresh := backend.MintTokens("alice")
	store.Set(storage.KeyAccessToken, access)
	store.Set(storage.KeyRefreshToken, refresh)

	client := api.NewClient(config.APIConfig{
		BaseURL:  server.URL,
		Hostname: "localhost",
		Timeout:  5,
	}, store, api.NotifierFunc(func(string) {}), zerolog.Nop())

	ctx := context.Background()
	require.NoError(t, client.Post(ctx, "/cart/items/", model.AddItemRequest{ProductID: p1.ID, Quantity: 2}, nil))
	require.NoError(t, client.Post(ctx, "/cart/items/", model.AddItemRequest{ProductID: p2.ID, Quantity: 1}, nil))

	return &orderEnv{
		orders:  New(client, zerolog.Nop()),
		backend: backend,
		client:  client,
		address: address,
	}
}

func TestClient_Create(t *testing.T) {
	env := newOrderEnv(t)

	order, err := env.orders.Create(context.Background(), env.address.ID, "leave at door")
	require.NoError(t, err)

	assert.NotEmpty(t, order.OrderNo)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "leave at door", order.Remarks)
	assert.Len(t, order.Items, 2)
	assert.InDelta(t, 130.0, order.TotalAmount, 1e-9)
	assert.InDelta(t, 10.0, order.ShippingFee, 1e-9, "130 is under the free-shipping threshold")
	assert.InDelta(t, 140.0, order.ActualAmount, 1e-9)

	var cart model.Cart
	require.NoError(t, env.client.Get(context.Background(), "/cart/", &cart))
	assert.Empty(t, cart.Items, "checkout consumes the cart")
}

func TestClient_CreateWithoutAddressSendsNothing(t *testing.T) {
	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := api.NewClient(config.APIConfig{
		BaseURL:  server.URL,
		Hostname: "localhost",
		Timeout:  5,
	}, storage.NewMemoryStore(), api.NotifierFunc(func(string) {}), zerolog.Nop())
	orders := New(client, zerolog.Nop())

	_, err := orders.Create(context.Background(), "", "")

	assert.ErrorIs(t, err, model.ErrMissingAddress)
	assert.Zero(t, requests.Load())
}

func TestClient_ListAndGet(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	created, err := env.orders.Create(ctx, env.address.ID, "")
	require.NoError(t, err)

	orders, err := env.orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.ID, orders[0].ID)

	got, err := env.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNo, got.OrderNo)
}

func TestClient_Pay(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	created, err := env.orders.Create(ctx, env.address.ID, "")
	require.NoError(t, err)

	receipt, err := env.orders.Pay(ctx, created.ID, "")
	require.NoError(t, err)

	assert.True(t, receipt.Success)
	assert.Equal(t, created.OrderNo, receipt.OrderNo)
	assert.InDelta(t, created.ActualAmount, receipt.Amount, 1e-9)
	require.NotNil(t, receipt.PaidAt)

	got, err := env.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status)
	assert.NotNil(t, got.PaidAt)
}

func TestClient_Cancel(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	created, err := env.orders.Create(ctx, env.address.ID, "")
	require.NoError(t, err)

	cancelled, err := env.orders.Cancel(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
}

func TestClient_CancelPaidOrderIsRejected(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	created, err := env.orders.Create(ctx, env.address.ID, "")
	require.NoError(t, err)
	_, err = env.orders.Pay(ctx, created.ID, "alipay")
	require.NoError(t, err)

	_, err = env.orders.Cancel(ctx, created.ID)

	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	got, err := env.orders.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, got.Status, "a rejected cancel must not change the order")
}

func TestClient_Addresses(t *testing.T) {
	env := newOrderEnv(t)
	ctx := context.Background()

	addresses, err := env.orders.Addresses(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
	assert.Equal(t, env.address.ID, addresses[0].ID)

	created, err := env.orders.CreateAddress(ctx, model.AddressRequest{
		ReceiverName:  "Alice Work",
		ReceiverPhone: "555-0101",
		Province:      "Province",
		City:          "City",
		District:      "District",
		Detail:        "2 Office Rd",
		IsDefault:     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	addresses, err = env.orders.Addresses(ctx)
	require.NoError(t, err)
	assert.Len(t, addresses, 2)
}
