package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukerupert/wicket/internal/cart"
	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// CartService wraps the cart store with the stock checks the store itself
// leaves to its callers.
type CartService interface {
	// AddToCart adds one unit after confirming the backend has stock for it.
	AddToCart(ctx context.Context, productID string) (domain.CartState, error)
	// IncreaseQty adds one unit to an existing line, with the same stock check.
	IncreaseQty(ctx context.Context, productID string) (domain.CartState, error)
	DecreaseQty(productID string) domain.CartState
	RemoveFromCart(productID string) domain.CartState
	ClearCart() domain.CartState
	Cart() domain.CartState
}

type cartService struct {
	store    *cart.Store
	catalog  ProductCatalog
	notifier Notifier
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewCartService creates a new CartService instance
func NewCartService(store *cart.Store, catalog ProductCatalog, notifier Notifier, logger *slog.Logger, metrics *telemetry.BusinessMetrics) CartService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger.With(slog.String("service", "cart")),
		metrics:  metrics,
	}
}

func (s *cartService) AddToCart(ctx context.Context, productID string) (domain.CartState, error) {
	const op = "cart.add"

	product, err := s.checkStock(ctx, op, productID)
	if err != nil {
		return s.store.Snapshot(), err
	}

	s.store.Add(cart.ProductRef{
		ProductID: productID,
		Title:     product.Title,
		Image:     product.Image,
		Price:     product.Price,
	})
	s.notifier.Info(fmt.Sprintf("%s added to cart", product.Title))
	telemetry.AddBreadcrumb("cart", "add", map[string]interface{}{"product_id": productID})

	return s.store.Snapshot(), nil
}

func (s *cartService) IncreaseQty(ctx context.Context, productID string) (domain.CartState, error) {
	const op = "cart.increase"

	if s.store.Quantity(productID) == 0 {
		return s.store.Snapshot(), nil
	}

	if _, err := s.checkStock(ctx, op, productID); err != nil {
		return s.store.Snapshot(), err
	}

	s.store.Increase(productID)
	return s.store.Snapshot(), nil
}

func (s *cartService) DecreaseQty(productID string) domain.CartState {
	s.store.Decrease(productID)
	return s.store.Snapshot()
}

func (s *cartService) RemoveFromCart(productID string) domain.CartState {
	s.store.Remove(productID)
	return s.store.Snapshot()
}

func (s *cartService) ClearCart() domain.CartState {
	s.store.Clear()
	s.metrics.CartClear("manual")
	return s.store.Snapshot()
}

func (s *cartService) Cart() domain.CartState {
	return s.store.Snapshot()
}

// checkStock fetches the product and verifies one more unit can be bought.
// On rejection the store is untouched and the user has been notified.
func (s *cartService) checkStock(ctx context.Context, op, productID string) (*domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		var reject error
		if domain.IsCode(err, domain.ENOTFOUND) {
			reject = domain.WithOp(ErrProductNotFound, op)
		} else {
			reject = domain.WrapError(err, domain.EUNAVAILABLE, op, stockCheckFailedMsg)
		}
		s.logger.Warn("stock lookup failed",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
		s.metrics.CartReject("lookup_failed")
		s.notifier.Error(domain.ErrorMessage(reject))
		return nil, reject
	}

	// the line is keyed on the requested id, so the record must be that product
	if product.ID != "" && product.ID != productID {
		reject := domain.WithOp(ErrProductNotFound, op)
		s.logger.Warn("product lookup returned a different product",
			slog.String("product_id", productID),
			slog.String("returned_id", product.ID),
		)
		s.metrics.CartReject("lookup_failed")
		s.notifier.Error(domain.ErrorMessage(reject))
		return nil, reject
	}

	current := s.store.Quantity(productID)
	switch {
	case !product.InStock():
		err = domain.WithOp(ErrOutOfStock, op)
		s.metrics.CartReject("out_of_stock")
	case !product.CanFulfil(current + 1):
		err = domain.WithOp(ErrInsufficientStock, op)
		s.metrics.CartReject("insufficient_stock")
	}
	if err != nil {
		s.logger.Info("cart mutation rejected",
			slog.String("product_id", productID),
			slog.Int("stock", product.Stock),
			slog.Int("in_cart", current),
		)
		if errors.Is(err, ErrInsufficientStock) {
			s.notifier.Warn(fmt.Sprintf("Only %d of %s available", product.Stock, product.Title))
		} else {
			s.notifier.Warn(domain.ErrorMessage(err))
		}
		return nil, err
	}

	return product, nil
}
