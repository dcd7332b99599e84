// Package cart holds the client-side cart: an in-memory mapping of product
// IDs to line items, mirrored to persistent storage after every mutation.
//
// The store performs no stock or price checks. Callers that need them (see
// service.CartService) check before mutating.
package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/storage"
	"github.com/dukerupert/wicket/internal/telemetry"
)

// persistTimeout bounds a single write of the mirror.
const persistTimeout = 5 * time.Second

// ProductRef is what a caller knows about a product when adding it.
type ProductRef struct {
	ProductID string
	Title     string
	Image     string
	Price     int64
}

// Listener receives a snapshot after every mutation.
type Listener func(domain.CartState)

// Store is the single shared cart instance. All methods are safe for
// concurrent use; none of them fail.
type Store struct {
	mu    sync.Mutex
	order []string
	items map[string]domain.CartItem

	storage storage.Storage // nil for memory-only
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics

	subMu     sync.Mutex
	nextSub   int
	listeners map[int]Listener
}

// Option configures a Store.
type Option func(*Store)

// WithMetrics records mutations on m.
func WithMetrics(m *telemetry.BusinessMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns an empty, memory-only store.
func New(logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		items:     make(map[string]domain.CartItem),
		logger:    logger.With(slog.String("component", "cart")),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open returns a store backed by st, rehydrated from the persisted mirror
// before it is handed out. Entries that break the cart invariants are
// dropped (empty ID, quantity below one) or merged (duplicate IDs).
//
// A corrupt mirror is logged and replaced by an empty cart. Only a failure
// to reach storage at all is returned.
func Open(ctx context.Context, st storage.Storage, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := New(logger, opts...)
	s.storage = st

	var persisted domain.CartState
	found, err := storage.LoadJSON(ctx, st, storage.KeyCart, &persisted)
	if err != nil {
		if !storage.IsCorrupt(err) {
			return nil, err
		}
		s.logger.Warn("discarding unreadable persisted cart", slog.String("error", err.Error()))
		return s, nil
	}
	if !found {
		return s, nil
	}

	dropped := 0
	for _, it := range persisted.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.Price < 0 {
			dropped++
			continue
		}
		if existing, ok := s.items[it.ProductID]; ok {
			existing.Quantity += it.Quantity
			s.items[it.ProductID] = existing
			continue
		}
		s.items[it.ProductID] = it
		s.order = append(s.order, it.ProductID)
	}
	if dropped > 0 {
		s.logger.Warn("dropped invalid persisted cart entries", slog.Int("count", dropped))
	}

	s.logger.Debug("cart rehydrated", slog.Int("lines", len(s.order)))
	return s, nil
}

// Add inserts a new line with quantity 1, or increments an existing one.
// Title, image and price of an existing line are kept from the first add.
func (s *Store) Add(p ProductRef) {
	if p.ProductID == "" {
		return
	}
	s.mutate("add", func() bool {
		if it, ok := s.items[p.ProductID]; ok {
			it.Quantity++
			s.items[p.ProductID] = it
			return true
		}
		s.items[p.ProductID] = domain.CartItem{
			ProductID: p.ProductID,
			Title:     p.Title,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  1,
		}
		s.order = append(s.order, p.ProductID)
		return true
	})
}

// Increase adds one unit to an existing line. No-op if absent.
func (s *Store) Increase(productID string) {
	s.mutate("increase", func() bool {
		it, ok := s.items[productID]
		if !ok {
			return false
		}
		it.Quantity++
		s.items[productID] = it
		return true
	})
}

// Decrease removes one unit; a line reaching zero is deleted.
// No-op if absent.
func (s *Store) Decrease(productID string) {
	s.mutate("decrease", func() bool {
		it, ok := s.items[productID]
		if !ok {
			return false
		}
		if it.Quantity <= 1 {
			s.deleteLocked(productID)
			return true
		}
		it.Quantity--
		s.items[productID] = it
		return true
	})
}

// Remove deletes a line regardless of quantity. No-op if absent.
func (s *Store) Remove(productID string) {
	s.mutate("remove", func() bool {
		if _, ok := s.items[productID]; !ok {
			return false
		}
		s.deleteLocked(productID)
		return true
	})
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mutate("clear", func() bool {
		s.items = make(map[string]domain.CartItem)
		s.order = nil
		return true
	})
}

// Snapshot returns a copy of the current cart in insertion order.
func (s *Store) Snapshot() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Quantity returns the quantity of a line, 0 if absent.
func (s *Store) Quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[productID].Quantity
}

// Subscribe registers fn to receive a snapshot after every mutation.
// Listeners run on the mutating goroutine after the store lock is released,
// so they may read the store but must not block.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Store) deleteLocked(productID string) {
	delete(s.items, productID)
	for i, id := range s.order {
		if id == productID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) snapshotLocked() domain.CartState {
	items := make([]domain.CartItem, 0, len(s.order))
	for _, id := range s.order {
		items = append(items, s.items[id])
	}
	return domain.CartState{Items: items}
}

// mutate applies fn under the lock. When fn reports a change the mirror is
// written and listeners are notified.
func (s *Store) mutate(action string, fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	// Persist while still holding the lock so mirror writes land in
	// mutation order.
	s.persistLocked(snap)
	s.mu.Unlock()

	s.metrics.CartUpdate(action)

	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s *Store) persistLocked(snap domain.CartState) {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if snap.IsEmpty() {
		err = s.storage.Delete(ctx, storage.KeyCart)
	} else {
		err = storage.SaveJSON(ctx, s.storage, storage.KeyCart, snap)
	}
	if err != nil {
		// The in-memory cart stays authoritative; the next mutation retries.
		s.logger.Error("failed to persist cart", slog.String("error", err.Error()))
	}
}
