package service

import (
	"context"
	"log/slog"

	"github.com/dukerupert/wicket/internal/address"
	"github.com/dukerupert/wicket/internal/domain"
)

// AddressService manages saved delivery addresses
type AddressService interface {
	List(ctx context.Context) ([]domain.Address, error)
	// Create validates addr and saves it. Invalid addresses never reach
	// the backend.
	Create(ctx context.Context, addr domain.Address) (*domain.Address, error)
}

type addressService struct {
	book      AddressBook
	validator address.Validator
	notifier  Notifier
	logger    *slog.Logger
}

// NewAddressService creates a new AddressService instance
func NewAddressService(book AddressBook, validator address.Validator, notifier Notifier, logger *slog.Logger) AddressService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &addressService{
		book:      book,
		validator: validator,
		notifier:  notifier,
		logger:    logger.With(slog.String("service", "address")),
	}
}

func (s *addressService) List(ctx context.Context) ([]domain.Address, error) {
	return s.book.ListAddresses(ctx)
}

func (s *addressService) Create(ctx context.Context, addr domain.Address) (*domain.Address, error) {
	const op = "address.create"

	result, err := s.validator.Validate(ctx, addr)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINTERNAL, op, "address validation failed")
	}
	if verr := result.Err(op); verr != nil {
		s.notifier.Warn(domain.ErrorMessage(verr))
		return nil, verr
	}

	if result.NormalizedAddress != nil {
		addr = *result.NormalizedAddress
	}

	created, err := s.book.CreateAddress(ctx, addr)
	if err != nil {
		s.logger.Error("failed to save address", slog.String("error", err.Error()))
		s.notifier.Error(userMessage(err, "We couldn't save your address. Please try again."))
		return nil, err
	}

	s.notifier.Info("Address saved")
	return created, nil
}
