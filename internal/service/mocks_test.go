package service

import (
	"context"
	"errors"
	"sync"

	"github.com/dukerupert/wicket/internal/api"
	"github.com/dukerupert/wicket/internal/domain"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// mockCatalog implements ProductCatalog for testing
type mockCatalog struct {
	products map[string]domain.Product
	err      error
	calls    int
}

func newMockCatalog(products ...domain.Product) *mockCatalog {
	m := &mockCatalog{products: map[string]domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, &api.ResponseError{Method: "GET", Path: "/products/" + id, StatusCode: 404, Message: "Product not found"}
	}
	return &p, nil
}

// mockOrders implements OrderBackend for testing
type mockOrders struct {
	mu sync.Mutex

	CreateOrderFunc func(ctx context.Context, req domain.OrderRequest) (*domain.OrderConfirmation, error)
	ByReferenceFunc func(ctx context.Context, ref string) (*domain.Order, error)
	CancelOrderFunc func(ctx context.Context, id, reason string) (*domain.Order, error)

	orders        []domain.Order
	created       []domain.OrderRequest
	cancelCalls   []string
	cancelReasons []string
}

func (m *mockOrders) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderConfirmation, error) {
	m.mu.Lock()
	m.created = append(m.created, req)
	m.mu.Unlock()

	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, req)
	}
	return &domain.OrderConfirmation{
		Message: "Order placed successfully",
		Order:   domain.Order{ID: "ord_1", Status: domain.OrderStatusPlaced, TotalAmount: req.TotalAmount},
	}, nil
}

func (m *mockOrders) GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error) {
	if m.ByReferenceFunc != nil {
		return m.ByReferenceFunc(ctx, ref)
	}
	return nil, nil
}

func (m *mockOrders) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.orders, nil
}

func (m *mockOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			o := o
			return &o, nil
		}
	}
	return nil, &api.ResponseError{Method: "GET", Path: "/orders/" + id, StatusCode: 404, Message: "Order not found"}
}

func (m *mockOrders) CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error) {
	m.cancelCalls = append(m.cancelCalls, id)
	m.cancelReasons = append(m.cancelReasons, reason)
	if m.CancelOrderFunc != nil {
		return m.CancelOrderFunc(ctx, id, reason)
	}
	return &domain.Order{ID: id, Status: domain.OrderStatusCancelled, CancelReason: reason}, nil
}

func (m *mockOrders) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

// mockAddressBook implements AddressBook for testing
type mockAddressBook struct {
	addresses []domain.Address
	listErr   error
	createErr error
	created   []domain.Address
}

func (m *mockAddressBook) ListAddresses(ctx context.Context) ([]domain.Address, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.addresses, nil
}

func (m *mockAddressBook) CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, addr)
	addr.ID = "addr_new"
	return &addr, nil
}

// mockAuth implements Authenticator for testing
type mockAuth struct {
	user  *domain.User
	err   error
	calls []api.Credentials
}

func (m *mockAuth) Login(ctx context.Context, creds api.Credentials) (*domain.User, error) {
	m.calls = append(m.calls, creds)
	if m.err != nil {
		return nil, m.err
	}
	u := *m.user
	return &u, nil
}

// recordingNotifier captures every message by level.
type recordingNotifier struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.infos = append(n.infos, msg)
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warns = append(n.warns, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

// recordingNavigator captures every route.
type recordingNavigator struct {
	mu     sync.Mutex
	routes []Route
}

func (n *recordingNavigator) Navigate(to Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, to)
}

func (n *recordingNavigator) last() (Route, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return Route{}, false
	}
	return n.routes[len(n.routes)-1], true
}

var errBackendDown = errors.New("dial tcp: connection refused")

// ============================================================================
// Test Fixtures
// ============================================================================

func makeTestProduct(id string, price int64, stock int) domain.Product {
	return domain.Product{ID: id, Title: "Bat " + id, Image: id + ".jpg", Price: price, Stock: stock}
}

func makeTestAddress(id string, isDefault bool) domain.Address {
	return domain.Address{
		ID:        id,
		FullName:  "Asha Rao",
		Phone:     "9876543210",
		Street:    "12 MG Road",
		City:      "Bengaluru",
		State:     "Karnataka",
		Pincode:   "560001",
		Country:   "India",
		IsDefault: isDefault,
	}
}
