// Package order wraps the order and address endpoints. Status
// transitions are server-authoritative: the client requests them and
// reflects the returned state, never flipping status locally.
package order

import (
	"context"
	"fmt"

	"shopfront/internal/api"
	"shopfront/internal/model"

	"github.com/rs/zerolog"
)

const (
	ordersPath      = "/orders/"
	createOrderPath = "/orders/create/"
	addressesPath   = "/auth/addresses/"
)

// Client exposes order operations for the authenticated user.
type Client struct {
	api    *api.Client
	logger zerolog.Logger
}

// New creates an order client.
func New(apiClient *api.Client, logger zerolog.Logger) *Client {
	return &Client{
		api:    apiClient,
		logger: logger.With().Str("component", "order").Logger(),
	}
}

// List retrieves the current user's orders, newest first.
func (c *Client) List(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := c.api.Get(ctx, ordersPath, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Get retrieves a single order.
func (c *Client) Get(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := c.api.Get(ctx, ordersPath+id+"/", &order); err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &order, nil
}

// Create submits a checkout: the server assembles the order from the
// current cart snapshot and the selected address.
func (c *Client) Create(ctx context.Context, addressID, remarks string) (*model.Order, error) {
	if addressID == "" {
		return nil, model.ErrMissingAddress
	}

	var order model.Order
	err := c.api.Post(ctx, createOrderPath, model.CreateOrderRequest{
		AddressID: addressID,
		Remarks:   remarks,
	}, &order)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("order_no", order.OrderNo).
		Float64("actual_amount", order.ActualAmount).
		Msg("order created")
	return &order, nil
}

// Cancel requests cancellation. Only pending orders are cancellable;
// the server enforces this and a rejection leaves local state alone.
func (c *Client) Cancel(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	if err := c.api.Post(ctx, ordersPath+id+"/cancel/", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Pay runs the simulated payment for a pending order.
func (c *Client) Pay(ctx context.Context, id, paymentMethod string) (*model.PaymentReceipt, error) {
	if paymentMethod == "" {
		paymentMethod = "alipay"
	}

	var receipt model.PaymentReceipt
	err := c.api.Post(ctx, ordersPath+id+"/pay/", model.PaymentRequest{
		PaymentMethod: paymentMethod,
	}, &receipt)
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("order_no", receipt.OrderNo).
		Float64("amount", receipt.Amount).
		Msg("payment completed")
	return &receipt, nil
}

// Addresses retrieves the user's address book.
func (c *Client) Addresses(ctx context.Context) ([]model.Address, error) {
	var addresses []model.Address
	if err := c.api.Get(ctx, addressesPath, &addresses); err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	return addresses, nil
}

// CreateAddress adds an address to the user's address book.
func (c *Client) CreateAddress(ctx context.Context, req model.AddressRequest) (*model.Address, error) {
	var address model.Address
	if err := c.api.Post(ctx, addressesPath, req, &address); err != nil {
		return nil, err
	}
	return &address, nil
}
