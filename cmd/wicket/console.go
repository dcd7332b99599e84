package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/dukerupert/wicket/internal/service"
)

// consoleNotifier prints notices to the terminal.
type consoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func (n *consoleNotifier) Info(msg string)  { n.print("", msg) }
func (n *consoleNotifier) Warn(msg string)  { n.print("warning: ", msg) }
func (n *consoleNotifier) Error(msg string) { n.print("error: ", msg) }

func (n *consoleNotifier) print(prefix, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintln(n.w, prefix+msg)
}

// consoleNavigator has no views to switch between, so it tells the user
// which command shows the destination.
type consoleNavigator struct {
	mu   sync.Mutex
	w    io.Writer
	last service.Route
}

func (n *consoleNavigator) Navigate(to service.Route) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.last = to

	switch to.View {
	case service.ViewCart:
		fmt.Fprintln(n.w, "See your cart with: wicket cart")
	case service.ViewAddressForm:
		fmt.Fprintln(n.w, "Add an address with: wicket address-add --help")
	case service.ViewOrderConfirmation:
		fmt.Fprintf(n.w, "Order %s confirmed. Track it with: wicket orders\n", to.OrderID)
	case service.ViewOrderHistory:
		fmt.Fprintln(n.w, "See your orders with: wicket orders")
	}
}
