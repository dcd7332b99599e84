package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// OrderService provides order history and cancellation
type OrderService interface {
	// History lists the user's orders, newest first as the backend returns them.
	History(ctx context.Context) ([]domain.Order, error)

	// GetOrder retrieves a single order by ID
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// Cancel asks the backend to cancel order. The client checks the status
	// and the reason first and never calls the backend when they fail.
	// otherText is required, and sent verbatim, when reason is OTHER.
	Cancel(ctx context.Context, order domain.Order, reason domain.CancelReason, otherText string) (*domain.Order, error)
}

type orderService struct {
	backend  OrderBackend
	notifier Notifier
	logger   *slog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewOrderService creates a new OrderService instance
func NewOrderService(backend OrderBackend, notifier Notifier, logger *slog.Logger, metrics *telemetry.BusinessMetrics) OrderService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &orderService{
		backend:  backend,
		notifier: notifier,
		logger:   logger.With(slog.String("service", "order")),
		metrics:  metrics,
	}
}

func (s *orderService) History(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.backend.ListOrders(ctx)
	if err != nil {
		s.logger.Error("failed to list orders", slog.String("error", err.Error()))
		return nil, err
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	const op = "order.get"

	order, err := s.backend.GetOrder(ctx, orderID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.WithOp(ErrOrderNotFound, op)
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) Cancel(ctx context.Context, order domain.Order, reason domain.CancelReason, otherText string) (*domain.Order, error) {
	const op = "order.cancel"

	if !order.Status.Cancellable() {
		return nil, s.reject(domain.WithOp(ErrOrderNotCancellable, op))
	}

	var wireReason string
	switch {
	case reason == "":
		return nil, s.reject(domain.WithOp(ErrCancelReasonRequired, op))
	case !reason.Valid():
		return nil, s.reject(domain.Errorf(domain.EINVALID, op, "Unknown cancellation reason"))
	case reason == domain.CancelReasonOther:
		wireReason = strings.TrimSpace(otherText)
		if wireReason == "" {
			return nil, s.reject(domain.WithOp(ErrCancelDetailRequired, op))
		}
	default:
		wireReason = reason.Label()
	}

	updated, err := s.backend.CancelOrder(ctx, order.ID, wireReason)
	if err != nil {
		s.logger.Error("cancel failed",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
		s.notifier.Error(userMessage(err, "We couldn't cancel your order. Please try again."))
		return nil, err
	}

	s.metrics.OrderCancel(string(reason))
	s.logger.Info("order cancelled", slog.String("order_id", order.ID), slog.String("reason", string(reason)))
	s.notifier.Info("Your order has been cancelled")

	if updated == nil {
		cancelled := order
		cancelled.Status = domain.OrderStatusCancelled
		cancelled.CancelReason = wireReason
		updated = &cancelled
	}
	return updated, nil
}

func (s *orderService) reject(err error) error {
	s.notifier.Warn(domain.ErrorMessage(err))
	return err
}
