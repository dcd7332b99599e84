package service

import (
	"github.com/dukerupert/wicket/internal/domain"
)

// Product/stock errors
var (
	ErrProductNotFound   = domain.Errorf(domain.ENOTFOUND, "", "Product not found")
	ErrOutOfStock        = domain.Errorf(domain.ECONFLICT, "", "This product is out of stock")
	ErrInsufficientStock = domain.Errorf(domain.ECONFLICT, "", "No more units of this product are available")
	ErrStockCheckFailed  = domain.Errorf(domain.EUNAVAILABLE, "", stockCheckFailedMsg)
)

// Checkout errors - each guard that stops PlaceOrder has its own sentinel
var (
	ErrSubmissionInProgress     = domain.Errorf(domain.ECONFLICT, "", "Your order is already being placed")
	ErrEmptyCart                = domain.Errorf(domain.EINVALID, "", "Your cart is empty")
	ErrNoAddresses              = domain.Errorf(domain.EINVALID, "", "Please add a delivery address to continue")
	ErrNoAddressSelected        = domain.Errorf(domain.EINVALID, "", "Please select a delivery address")
	ErrPaymentMethodUnavailable = domain.Errorf(domain.ENOTIMPL, "", "Online payment is coming soon. Please choose Cash on Delivery.")
	ErrNoPaymentMethod          = domain.Errorf(domain.EINVALID, "", "Please choose a payment method")
	ErrAddressNotFound          = domain.Errorf(domain.ENOTFOUND, "", "Address not found")
	ErrDeliveryUnavailable      = domain.Errorf(domain.EUNAVAILABLE, "", "Delivery is not available for this order")
)

// Order-related errors
var (
	ErrOrderNotFound        = domain.Errorf(domain.ENOTFOUND, "", "Order not found")
	ErrOrderNotCancellable  = domain.Errorf(domain.ECONFLICT, "", "This order can no longer be cancelled")
	ErrCancelReasonRequired = domain.Errorf(domain.EINVALID, "", "Please choose a reason for cancelling")
	ErrCancelDetailRequired = domain.Errorf(domain.EINVALID, "", "Please tell us why you are cancelling")
)

// Session errors
var (
	ErrNotLoggedIn        = domain.Errorf(domain.EUNAUTHORIZED, "", "Please log in to continue")
	ErrMissingCredentials = domain.Errorf(domain.EINVALID, "", "Email and password are required")
)

const stockCheckFailedMsg = "Couldn't check availability right now. Please try again."

// genericOrderFailure is shown when a failed submission carries no message.
const genericOrderFailure = "We couldn't place your order. Please try again."
