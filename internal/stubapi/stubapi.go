// Package stubapi is an in-memory stand-in for the storefront backend.
// It implements just enough of the REST contract for the client stack
// to run against in tests and local demos: JWT auth with refresh,
// catalogue reads, the cart, and the order state machine.
package stubapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"shopfront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type account struct {
	password  string
	user      model.User
	addresses []model.Address
}

// Server holds the fake backend state. All fields are guarded by mu;
// the handler is safe for concurrent use.
type Server struct {
	mu sync.Mutex

	key      []byte
	accounts map[string]*account
	refresh  map[string]string // refresh token -> username
	products []model.Product
	carts    map[string][]model.CartItem
	orders   map[string][]*model.Order
	seq      int

	// AccessTTL controls minted access token lifetime. Negative values
	// mint already-expired tokens, which forces the client through the
	// refresh path.
	AccessTTL time.Duration

	// Request counters for assertions.
	LoginCalls   int
	RefreshCalls int
}

// New creates an empty stub backend.
func New() *Server {
	return &Server{
		key:       []byte("stub-signing-key"),
		accounts:  make(map[string]*account),
		refresh:   make(map[string]string),
		carts:     make(map[string][]model.CartItem),
		orders:    make(map[string][]*model.Order),
		AccessTTL: time.Hour,
	}
}

// AddAccount registers a user without going through the register
// endpoint. Returns the created identity.
func (s *Server) AddAccount(username, password, email string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := model.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
	}
	s.accounts[username] = &account{password: password, user: user}
	return user
}

// AddAddress attaches an address to an account.
func (s *Server) AddAddress(username string, addr model.Address) model.Address {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr.ID == "" {
		addr.ID = uuid.NewString()
	}
	acct := s.accounts[username]
	acct.addresses = append(acct.addresses, addr)
	return addr
}

// AddProduct seeds a catalogue entry.
func (s *Server) AddProduct(p model.Product) model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.InStock = p.Stock > 0
	s.products = append(s.products, p)
	return p
}

// MintTokens issues a token pair for a user, bypassing login.
func (s *Server) MintTokens(username string) (access, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mintLocked(username)
}

func (s *Server) mintLocked(username string) (access, refreshToken string) {
	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(s.AccessTTL).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	access, err := token.SignedString(s.key)
	if err != nil {
		panic(fmt.Sprintf("stubapi: failed to sign token: %v", err))
	}

	refreshClaims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(24 * time.Hour).Unix(),
		"jti": uuid.NewString(),
	}
	refreshToken, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(s.key)
	if err != nil {
		panic(fmt.Sprintf("stubapi: failed to sign refresh token: %v", err))
	}

	s.refresh[refreshToken] = username
	return access, refreshToken
}

// Handler returns the HTTP handler implementing the API surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login/{$}", s.handleLogin)
	mux.HandleFunc("POST /auth/register/{$}", s.handleRegister)
	mux.HandleFunc("POST /auth/refresh/{$}", s.handleRefresh)
	mux.HandleFunc("GET /auth/me/{$}", s.handleMe)
	mux.HandleFunc("PATCH /auth/me/update/{$}", s.handleUpdateMe)
	mux.HandleFunc("GET /auth/addresses/{$}", s.handleListAddresses)
	mux.HandleFunc("POST /auth/addresses/{$}", s.handleCreateAddress)

	mux.HandleFunc("GET /cart/{$}", s.handleCart)
	mux.HandleFunc("POST /cart/items/{$}", s.handleAddItem)
	mux.HandleFunc("PATCH /cart/items/{id}/{$}", s.handleUpdateItem)
	mux.HandleFunc("DELETE /cart/items/{id}/{$}", s.handleRemoveItem)
	mux.HandleFunc("DELETE /cart/clear/{$}", s.handleClearCart)

	mux.HandleFunc("GET /products/{$}", s.handleProducts)
	mux.HandleFunc("GET /products/featured/{$}", s.handleFeatured)
	mux.HandleFunc("GET /products/{id}/{$}", s.handleProduct)
	mux.HandleFunc("GET /categories/{$}", s.handleCategories)

	mux.HandleFunc("GET /orders/{$}", s.handleOrders)
	mux.HandleFunc("POST /orders/create/{$}", s.handleCreateOrder)
	mux.HandleFunc("GET /orders/{id}/{$}", s.handleOrder)
	mux.HandleFunc("POST /orders/{id}/cancel/{$}", s.handleCancelOrder)
	mux.HandleFunc("POST /orders/{id}/pay/{$}", s.handlePayOrder)

	return mux
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDetail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// authenticate resolves the bearer token to an account. Expired or
// unparseable tokens yield a 401 with the DRF-style detail envelope.
func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (*account, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return nil, false
	}

	raw := strings.TrimPrefix(header, "Bearer ")
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
		return nil, false
	}

	sub, _ := claims.GetSubject()
	acct, ok := s.accounts[sub]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "User not found")
		return nil, false
	}
	return acct, true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LoginCalls++

	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	acct, ok := s.accounts[req.Username]
	if !ok || acct.password != req.Password {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, refreshToken := s.mintLocked(req.Username)
	writeJSON(w, http.StatusOK, model.LoginResponse{
		Access:  access,
		Refresh: refreshToken,
		User:    acct.user,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" || req.Email == "" {
		writeDetail(w, http.StatusBadRequest, "username, email and password are required")
		return
	}
	if req.Password != req.PasswordConfirm {
		writeDetail(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	if _, exists := s.accounts[req.Username]; exists {
		writeDetail(w, http.StatusBadRequest, "A user with that username already exists")
		return
	}

	s.accounts[req.Username] = &account{
		password: req.Password,
		user: model.User{
			ID:       uuid.NewString(),
			Username: req.Username,
			Email:    req.Email,
			Nickname: req.Nickname,
			Phone:    req.Phone,
		},
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "registered"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RefreshCalls++

	var req model.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	username, ok := s.refresh[req.Refresh]
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}

	claims := jwt.MapClaims{
		"sub": username,
		"exp": time.Now().Add(time.Hour).Unix(),
		"jti": uuid.NewString(),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	writeJSON(w, http.StatusOK, model.RefreshResponse{Access: access})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if v, ok := fields["nickname"]; ok {
		acct.user.Nickname = v
	}
	if v, ok := fields["phone"]; ok {
		acct.user.Phone = v
	}
	if v, ok := fields["avatar"]; ok {
		acct.user.Avatar = v
	}
	writeJSON(w, http.StatusOK, acct.user)
}

func (s *Server) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	addresses := acct.addresses
	if addresses == nil {
		addresses = []model.Address{}
	}
	writeJSON(w, http.StatusOK, addresses)
}

func (s *Server) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req model.AddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	addr := model.Address{
		ID:            uuid.NewString(),
		ReceiverName:  req.ReceiverName,
		ReceiverPhone: req.ReceiverPhone,
		Province:      req.Province,
		City:          req.City,
		District:      req.District,
		Detail:        req.Detail,
		PostalCode:    req.PostalCode,
		IsDefault:     req.IsDefault,
	}
	acct.addresses = append(acct.addresses, addr)
	writeJSON(w, http.StatusCreated, addr)
}

func (s *Server) cartSummaryLocked(username string) model.Cart {
	items := s.carts[username]
	if items == nil {
		items = []model.CartItem{}
	}

	cart := model.Cart{Items: items}
	cart.TotalItems, cart.TotalAmount = cart.ComputeTotals()
	return cart
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.cartSummaryLocked(acct.user.Username))
}

func (s *Server) findProductLocked(id string) *model.Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req model.AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}

	product := s.findProductLocked(req.ProductID)
	if product == nil {
		writeError(w, http.StatusNotFound, "Product not found or not active")
		return
	}

	username := acct.user.Username
	items := s.carts[username]
	for i := range items {
		if items[i].Product.ID == req.ProductID {
			if items[i].Quantity+req.Quantity > product.Stock {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Only %d items available in stock", product.Stock))
				return
			}
			items[i].Quantity += req.Quantity
			items[i].Subtotal = float64(items[i].Quantity) * product.Price
			writeJSON(w, http.StatusOK, items[i])
			return
		}
	}

	if req.Quantity > product.Stock {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Only %d items available in stock", product.Stock))
		return
	}

	s.seq++
	item := model.CartItem{
		ID:       fmt.Sprintf("ci-%d", s.seq),
		Product:  *product,
		Quantity: req.Quantity,
		Subtotal: float64(req.Quantity) * product.Price,
	}
	s.carts[username] = append(items, item)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req model.UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}

	id := r.PathValue("id")
	items := s.carts[acct.user.Username]
	for i := range items {
		if items[i].ID == id {
			if req.Quantity > items[i].Product.Stock {
				writeError(w, http.StatusBadRequest,
					fmt.Sprintf("Only %d items available in stock", items[i].Product.Stock))
				return
			}
			items[i].Quantity = req.Quantity
			items[i].Subtotal = float64(req.Quantity) * items[i].Product.Price
			writeJSON(w, http.StatusOK, items[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	items := s.carts[acct.user.Username]
	for i := range items {
		if items[i].ID == id {
			s.carts[acct.user.Username] = append(items[:i], items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Cart item not found")
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	s.carts[acct.user.Username] = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := r.URL.Query().Get("search")
	results := []model.Product{}
	for _, p := range s.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		results = append(results, p)
	}

	writeJSON(w, http.StatusOK, model.Page[model.Product]{
		Count:   len(results),
		Results: results,
	})
}

func (s *Server) handleFeatured(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	featured := []model.Product{}
	for _, p := range s.products {
		if p.IsFeatured {
			featured = append(featured, p)
		}
	}
	writeJSON(w, http.StatusOK, featured)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	product := s.findProductLocked(r.PathValue("id"))
	if product == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := map[string]int{}
	order := []string{}
	for _, p := range s.products {
		if _, ok := seen[p.Category]; !ok {
			order = append(order, p.Category)
		}
		seen[p.Category]++
	}

	categories := []model.Category{}
	for _, name := range order {
		categories = append(categories, model.Category{
			ID:           name,
			Name:         name,
			ProductCount: seen[name],
		})
	}

	writeJSON(w, http.StatusOK, model.Page[model.Category]{
		Count:   len(categories),
		Results: categories,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	orders := []model.Order{}
	for _, o := range s.orders[acct.user.Username] {
		orders = append(orders, *o)
	}
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	var req model.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var address *model.Address
	for i := range acct.addresses {
		if acct.addresses[i].ID == req.AddressID {
			address = &acct.addresses[i]
			break
		}
	}
	if address == nil {
		writeError(w, http.StatusBadRequest, "Address not found")
		return
	}

	username := acct.user.Username
	cart := s.cartSummaryLocked(username)
	if len(cart.Items) == 0 {
		writeError(w, http.StatusBadRequest, "Cart is empty")
		return
	}

	items := make([]model.OrderItem, len(cart.Items))
	for i, line := range cart.Items {
		items[i] = model.OrderItem{
			ID:           uuid.NewString(),
			Product:      line.Product.ID,
			ProductName:  line.Product.Name,
			ProductImage: line.Product.MainImage,
			Price:        line.Product.Price,
			Quantity:     line.Quantity,
			Subtotal:     line.Subtotal,
		}
	}

	shippingFee := 10.0
	if cart.TotalAmount >= 199 {
		shippingFee = 0
	}

	s.seq++
	now := time.Now().UTC()
	order := &model.Order{
		ID:           uuid.NewString(),
		OrderNo:      fmt.Sprintf("ORD%s%04d", now.Format("20060102150405"), s.seq),
		Address:      *address,
		TotalAmount:  cart.TotalAmount,
		ShippingFee:  shippingFee,
		ActualAmount: cart.TotalAmount + shippingFee,
		Status:       model.OrderStatusPending,
		Remarks:      req.Remarks,
		Items:        items,
		CreatedAt:    now,
	}

	s.orders[username] = append([]*model.Order{order}, s.orders[username]...)
	s.carts[username] = nil

	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) findOrderLocked(username, id string) *model.Order {
	for _, o := range s.orders[username] {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	order := s.findOrderLocked(acct.user.Username, r.PathValue("id"))
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	order := s.findOrderLocked(acct.user.Username, r.PathValue("id"))
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.Status != model.OrderStatusPending {
		writeError(w, http.StatusBadRequest, "Only pending orders can be cancelled")
		return
	}

	now := time.Now().UTC()
	order.Status = model.OrderStatusCancelled
	order.CancelledAt = &now
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handlePayOrder(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.authenticate(w, r)
	if !ok {
		return
	}

	order := s.findOrderLocked(acct.user.Username, r.PathValue("id"))
	if order == nil {
		writeError(w, http.StatusNotFound, "Order not found")
		return
	}
	if order.Status != model.OrderStatusPending {
		writeError(w, http.StatusBadRequest, "Order cannot be paid in its current state")
		return
	}

	now := time.Now().UTC()
	order.Status = model.OrderStatusPaid
	order.PaidAt = &now

	writeJSON(w, http.StatusOK, model.PaymentReceipt{
		Success:   true,
		Message:   "Payment successful",
		OrderID:   order.ID,
		OrderNo:   order.OrderNo,
		Amount:    order.ActualAmount,
		PaidAt:    &now,
		PaymentNo: fmt.Sprintf("PAY%d%s", now.Unix(), strings.ToUpper(uuid.NewString()[:8])),
	})
}
