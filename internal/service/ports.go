package service

import (
	"context"

	"github.com/dukerupert/wicket/internal/api"
	"github.com/dukerupert/wicket/internal/domain"
)

// ProductCatalog reads live product data.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

// OrderBackend submits and reads orders.
type OrderBackend interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderConfirmation, error)
	GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CancelOrder(ctx context.Context, id, reason string) (*domain.Order, error)
}

// AddressBook reads and saves delivery addresses.
type AddressBook interface {
	ListAddresses(ctx context.Context) ([]domain.Address, error)
	CreateAddress(ctx context.Context, addr domain.Address) (*domain.Address, error)
}

// Authenticator exchanges credentials for an identity.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*domain.User, error)
}

// The REST client is the production implementation of every port.
var (
	_ ProductCatalog = (*api.Client)(nil)
	_ OrderBackend   = (*api.Client)(nil)
	_ AddressBook    = (*api.Client)(nil)
	_ Authenticator  = (*api.Client)(nil)
)

// =============================================================================
// UI COLLABORATORS
// =============================================================================

// Notifier surfaces transient messages (toasts, inline notices).
type Notifier interface {
	Info(msg string)
	Warn(msg string)
	Error(msg string)
}

// View names a destination the flow can send the user to.
type View string

const (
	ViewCart              View = "cart"
	ViewAddressForm       View = "address_form"
	ViewOrderConfirmation View = "order_confirmation"
	ViewOrderHistory      View = "order_history"
)

// Route is a navigation target. OrderID is set for the confirmation view.
type Route struct {
	View    View
	OrderID string
}

// Navigator moves the user between views.
type Navigator interface {
	Navigate(to Route)
}

// NopNotifier discards every message.
type NopNotifier struct{}

func (NopNotifier) Info(string)  {}
func (NopNotifier) Warn(string)  {}
func (NopNotifier) Error(string) {}

// NopNavigator ignores navigation.
type NopNavigator struct{}

func (NopNavigator) Navigate(Route) {}
