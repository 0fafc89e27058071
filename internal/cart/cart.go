// Package cart holds the local mirror of the server-side cart. Every
// write goes through to the server and then resynchronises the whole
// mirror; the server is the source of truth and the mirror is always
// replaceable by the next successful fetch.
package cart

import (
	"context"
	"math"
	"sync"

	"shopfront/internal/api"
	"shopfront/internal/model"
	"shopfront/internal/storage"

	"github.com/rs/zerolog"
)

const (
	cartPath  = "/cart/"
	itemsPath = "/cart/items/"
	clearPath = "/cart/clear/"
)

// Store is the cart state container. Fetches are generation-tagged so a
// slow, superseded response can never overwrite a newer one.
type Store struct {
	client  *api.Client
	storage storage.Store
	logger  zerolog.Logger

	mu          sync.Mutex
	items       []model.CartItem
	totalItems  int
	totalAmount float64
	loading     bool
	fetchSeq    uint64
	appliedSeq  uint64
}

// New creates a cart store backed by the given API client.
func New(client *api.Client, store storage.Store, logger zerolog.Logger) *Store {
	return &Store{
		client:  client,
		storage: store,
		logger:  logger.With().Str("component", "cart").Logger(),
	}
}

// Rehydrate restores the last persisted cart snapshot for immediate
// display. The snapshot is still replaced by the next fetch.
func (s *Store) Rehydrate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snapshot model.Cart
	found, err := storage.GetJSON(s.storage, storage.KeyCart, &snapshot)
	if !found {
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("persisted cart snapshot is corrupt, ignoring")
		return
	}

	s.fetchSeq++
	s.applyLocked(s.fetchSeq, snapshot)
}

// Fetch replaces the entire local mirror from the server. Safe to call
// concurrently with pending writes: only the newest response is
// applied, older in-flight responses are discarded.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.loading = true
	s.mu.Unlock()

	var cart model.Cart
	err := s.client.Get(ctx, cartPath, &cart)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		return err
	}

	if seq <= s.appliedSeq {
		s.logger.Debug().
			Uint64("seq", seq).
			Uint64("applied", s.appliedSeq).
			Msg("discarding superseded cart response")
		return nil
	}

	s.applyLocked(seq, cart)
	return nil
}

// Add sends an add request and resynchronises. Quantities below one are
// rejected locally without any network call.
func (s *Store) Add(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	err := s.client.Post(ctx, itemsPath, model.AddItemRequest{
		ProductID: productID,
		Quantity:  quantity,
	}, nil)
	if err != nil {
		return err
	}

	return s.Fetch(ctx)
}

// UpdateItem patches an item's quantity and resynchronises. Callers are
// responsible for clamping against the stock ceiling; the store only
// refuses quantities below one.
func (s *Store) UpdateItem(ctx context.Context, itemID string, quantity int) error {
	if quantity < 1 {
		return model.ErrInvalidQuantity
	}

	err := s.client.Patch(ctx, itemsPath+itemID+"/", model.UpdateItemRequest{
		Quantity: quantity,
	}, nil)
	if err != nil {
		return err
	}

	return s.Fetch(ctx)
}

// Remove deletes an item and resynchronises.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	if err := s.client.Delete(ctx, itemsPath+itemID+"/", nil); err != nil {
		return err
	}

	return s.Fetch(ctx)
}

// Clear empties the server cart. The post-state is known, so the mirror
// is set to empty directly without a resync round trip.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Delete(ctx, clearPath, nil); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchSeq++
	s.applyLocked(s.fetchSeq, model.Cart{})
	return nil
}

// Invalidate resets the mirror locally, used when the session ends.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchSeq++
	s.applyLocked(s.fetchSeq, model.Cart{})
}

// Items returns a copy of the current item lines.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// TotalItems returns the current total item count.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalItems
}

// TotalAmount returns the current total monetary amount.
func (s *Store) TotalAmount() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalAmount
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Snapshot returns the current mirror as a Cart value.
func (s *Store) Snapshot() model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return model.Cart{
		Items:       items,
		TotalItems:  s.totalItems,
		TotalAmount: s.totalAmount,
	}
}

// applyLocked installs a cart state and persists the snapshot. The
// totals invariant (count == sum of quantities, amount == sum of
// quantity * unit price) is checked against the item lines; a mismatch
// means the server summary is stale and the recomputed values win.
func (s *Store) applyLocked(seq uint64, cart model.Cart) {
	count, amount := cart.ComputeTotals()
	if count != cart.TotalItems || math.Abs(amount-cart.TotalAmount) > 1e-9 {
		s.logger.Warn().
			Int("reported_count", cart.TotalItems).
			Int("computed_count", count).
			Float64("reported_amount", cart.TotalAmount).
			Float64("computed_amount", amount).
			Msg("cart totals do not match item lines, using recomputed totals")
		cart.TotalItems = count
		cart.TotalAmount = amount
	}

	s.appliedSeq = seq
	s.items = cart.Items
	s.totalItems = cart.TotalItems
	s.totalAmount = cart.TotalAmount

	if err := storage.SetJSON(s.storage, storage.KeyCart, cart); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode cart snapshot")
		return
	}
	if err := s.storage.Save(); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist cart snapshot")
	}
}
