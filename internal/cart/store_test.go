package cart

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/wicket/internal/domain"
	"github.com/dukerupert/wicket/internal/storage"
	"github.com/dukerupert/wicket/internal/telemetry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	bat  = ProductRef{ProductID: "bat-1", Title: "English Willow Bat", Image: "bat.jpg", Price: 8999}
	ball = ProductRef{ProductID: "ball-1", Title: "Leather Ball", Image: "ball.jpg", Price: 650}
)

func TestStore_AddIsIncrementOrInsert(t *testing.T) {
	s := New(testLogger())

	s.Add(bat)
	assert.Equal(t, 1, s.Quantity("bat-1"))

	// second add with a different price keeps the first price
	later := bat
	later.Price = 9999
	later.Title = "Renamed"
	s.Add(later)

	item, ok := s.Snapshot().Item("bat-1")
	require.True(t, ok)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, int64(8999), item.Price)
	assert.Equal(t, "English Willow Bat", item.Title)
}

func TestStore_AddIgnoresEmptyID(t *testing.T) {
	s := New(testLogger())
	s.Add(ProductRef{Title: "nameless", Price: 10})
	assert.True(t, s.Snapshot().IsEmpty())
}

func TestStore_RemoveIsIdempotent(t *testing.T) {
	s := New(testLogger())
	s.Add(bat)
	s.Add(ball)

	s.Remove("bat-1")
	once := s.Snapshot()
	s.Remove("bat-1")
	twice := s.Snapshot()

	assert.Equal(t, once, twice)
	_, ok := twice.Item("bat-1")
	assert.False(t, ok)

	// removing an id that was never there is a no-op
	s.Remove("missing")
	assert.Equal(t, once, s.Snapshot())
}

func TestStore_QuantityFloor(t *testing.T) {
	s := New(testLogger())
	for i := 0; i < 3; i++ {
		s.Add(ball)
	}

	for i := 0; i < 10; i++ {
		s.Decrease("ball-1")
		for _, it := range s.Snapshot().Items {
			require.GreaterOrEqual(t, it.Quantity, 1, "no line may hold quantity < 1")
		}
	}
	_, ok := s.Snapshot().Item("ball-1")
	assert.False(t, ok)
	assert.Equal(t, 0, s.Quantity("ball-1"))
}

func TestStore_IncreaseAbsentIsNoop(t *testing.T) {
	s := New(testLogger())
	s.Increase("bat-1")
	s.Decrease("bat-1")
	assert.True(t, s.Snapshot().IsEmpty())
}

func TestStore_InsertionOrder(t *testing.T) {
	s := New(testLogger())
	s.Add(bat)
	s.Add(ball)
	s.Add(bat)

	items := s.Snapshot().Items
	require.Len(t, items, 2)
	assert.Equal(t, "bat-1", items[0].ProductID)
	assert.Equal(t, "ball-1", items[1].ProductID)
	assert.Equal(t, 2, s.Snapshot().ItemCount())
	assert.Equal(t, 3, s.Snapshot().Units())
}

func TestStore_TotalsConsistency(t *testing.T) {
	s := New(testLogger())
	products := []ProductRef{bat, ball, {ProductID: "pad-1", Price: 1200}, {ProductID: "grip-1", Price: 150}}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(5) {
		case 0, 1:
			s.Add(p)
		case 2:
			s.Increase(p.ProductID)
		case 3:
			s.Decrease(p.ProductID)
		case 4:
			s.Remove(p.ProductID)
		}

		snap := s.Snapshot()
		var want int64
		for _, it := range snap.Items {
			want += it.Price * int64(it.Quantity)
			require.GreaterOrEqual(t, it.Quantity, 1)
		}
		require.Equal(t, want, snap.Subtotal(), "step %d", i)
	}
}

func TestStore_Clear(t *testing.T) {
	s := New(testLogger())
	s.Add(bat)
	s.Add(ball)
	s.Clear()
	assert.True(t, s.Snapshot().IsEmpty())
	assert.Equal(t, int64(0), s.Snapshot().Subtotal())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := New(testLogger())
	s.Add(bat)

	snap := s.Snapshot()
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, s.Quantity("bat-1"))
}

func TestStore_Subscribe(t *testing.T) {
	s := New(testLogger())

	var got []int
	unsubscribe := s.Subscribe(func(st domain.CartState) {
		got = append(got, st.Units())
	})

	s.Add(bat)
	s.Add(bat)
	s.Increase("missing") // no change, no notification
	s.Decrease("bat-1")
	unsubscribe()
	s.Add(ball)

	assert.Equal(t, []int{1, 2, 1}, got)
}

func TestStore_ConcurrentMutations(t *testing.T) {
	s := New(testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(ball)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Quantity("ball-1"))
}

func TestStore_PersistsAndRehydrates(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()

	s, err := Open(ctx, st, testLogger())
	require.NoError(t, err)
	s.Add(bat)
	s.Add(ball)
	s.Add(ball)

	reopened, err := Open(ctx, st, testLogger())
	require.NoError(t, err)
	assert.Equal(t, s.Snapshot(), reopened.Snapshot())

	reopened.Clear()
	_, err = st.Get(ctx, storage.KeyCart)
	assert.True(t, storage.IsNotFound(err), "an empty cart leaves nothing persisted")
}

func TestStore_RehydrateDropsInvalidEntries(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Put(ctx, storage.KeyCart, []byte(`{"items":[
		{"productId":"bat-1","price":8999,"quantity":1},
		{"productId":"","price":10,"quantity":1},
		{"productId":"ball-1","price":650,"quantity":0},
		{"productId":"pad-1","price":1200,"quantity":-2},
		{"productId":"bat-1","price":1,"quantity":2}
	]}`)))

	s, err := Open(ctx, st, testLogger())
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "bat-1", snap.Items[0].ProductID)
	assert.Equal(t, 3, snap.Items[0].Quantity)
	assert.Equal(t, int64(8999), snap.Items[0].Price)
}

func TestStore_RehydrateCorruptMirror(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemoryStorage()
	require.NoError(t, st.Put(ctx, storage.KeyCart, []byte(`not json`)))

	s, err := Open(ctx, st, testLogger())
	require.NoError(t, err)
	assert.True(t, s.Snapshot().IsEmpty())
}

// failingStorage errors on every call.
type failingStorage struct {
	err error
}

func (f failingStorage) Get(context.Context, string) ([]byte, error)  { return nil, f.err }
func (f failingStorage) Put(context.Context, string, []byte) error    { return f.err }
func (f failingStorage) Delete(context.Context, string) error         { return f.err }

func TestStore_OpenFailsWhenStorageUnreachable(t *testing.T) {
	_, err := Open(context.Background(), failingStorage{err: errors.New("connection refused")}, testLogger())
	assert.Error(t, err)
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	s := New(testLogger())
	s.storage = failingStorage{err: errors.New("disk full")}

	s.Add(bat)
	assert.Equal(t, 1, s.Quantity("bat-1"))
}

func TestStore_RecordsMetrics(t *testing.T) {
	m := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
	s := New(testLogger(), WithMetrics(m))

	s.Add(bat)
	s.Add(bat)
	s.Remove("missing")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CartUpdated.WithLabelValues("add")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.CartUpdated.WithLabelValues("remove")))
}
