package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/cart/infra/memory"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

type brokenStorage struct {
	getErr error
	setErr error
	value  []byte
	sets   int
}

func (b *brokenStorage) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	if b.getErr != nil {
		return nil, false, b.getErr
	}
	return b.value, b.value != nil, nil
}

func (b *brokenStorage) Set(ctx context.Context, scope, key string, value []byte) error {
	b.sets++
	return b.setErr
}

func newTestService(storage Storage) *Service {
	return NewService(storage, DefaultStorageKey, logger.Discard())
}

func TestAddItemPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	kv := memory.NewKV()
	svc := newTestService(kv)

	snap, notice, err := svc.AddItem(ctx, "s1", "1", "Remera", 10)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if notice.Message != "Remera añadido al carrito" {
		t.Fatalf("unexpected notice %q", notice.Message)
	}
	if snap.Count != 1 || snap.Total != 10 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	raw, ok, _ := kv.Get(ctx, "s1", DefaultStorageKey)
	if !ok {
		t.Fatal("expected cart to be persisted")
	}
	restored, _, err := domain.Decode(raw)
	if err != nil {
		t.Fatalf("decode persisted: %v", err)
	}
	if diff := cmp.Diff(snap.Items, restored.Items()); diff != "" {
		t.Fatalf("persisted cart differs (-want +got):\n%s", diff)
	}
}

func TestOperationsAcrossRequests(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewKV())

	_, _, _ = svc.AddItem(ctx, "s1", "1", "A", 10)
	_, _, _ = svc.AddItem(ctx, "s1", "1", "A", 10)
	_, _, _ = svc.AddItem(ctx, "s1", "2", "B", 5)

	snap, err := svc.GetCart(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(snap.Items) != 2 || snap.Items[0].Quantity != 2 {
		t.Fatalf("expected merged line item, got %+v", snap.Items)
	}
	if snap.Total != 25 || snap.Count != 3 {
		t.Fatalf("expected total 25 count 3, got %v %d", snap.Total, snap.Count)
	}

	t.Run("set quantity clamps", func(t *testing.T) {
		snap, _ := svc.SetItemQuantity(ctx, "s1", "2", -5)
		if snap.Items[1].Quantity != 1 {
			t.Fatalf("expected clamp to 1, got %d", snap.Items[1].Quantity)
		}
	})

	t.Run("remove missing is noop", func(t *testing.T) {
		before, _ := svc.GetCart(ctx, "s1")
		after, _ := svc.RemoveItem(ctx, "s1", "404")
		if diff := cmp.Diff(before, after); diff != "" {
			t.Fatalf("cart changed:\n%s", diff)
		}
	})

	t.Run("other scope isolated", func(t *testing.T) {
		other, _ := svc.GetCart(ctx, "s2")
		if !other.Empty() {
			t.Fatalf("expected empty cart for new scope, got %+v", other)
		}
	})

	t.Run("clear", func(t *testing.T) {
		snap, _ := svc.ClearCart(ctx, "s1")
		if !snap.Empty() || snap.Total != 0 {
			t.Fatalf("expected empty cart, got %+v", snap)
		}
		again, _ := svc.GetCart(ctx, "s1")
		if !again.Empty() {
			t.Fatal("clear was not persisted")
		}
	})
}

func TestInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(memory.NewKV())

	if _, _, err := svc.AddItem(ctx, "s1", "  ", "x", 1); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
	if _, err := svc.GetCart(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty scope, got %v", err)
	}
	if _, err := svc.ClearCart(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty scope, got %v", err)
	}
}

func TestRestoreFailuresYieldEmptyCart(t *testing.T) {
	ctx := context.Background()

	t.Run("corrupt value", func(t *testing.T) {
		svc := newTestService(&brokenStorage{value: []byte(`{corrupt`)})
		snap, err := svc.GetCart(ctx, "s1")
		if err != nil {
			t.Fatalf("corrupt value must not surface: %v", err)
		}
		if !snap.Empty() {
			t.Fatalf("expected empty cart, got %+v", snap)
		}
	})

	t.Run("bad entry keeps the rest", func(t *testing.T) {
		raw := []byte(`[{"nombre":"no id"},{"id":"2","nombre":"Gorra","precio":5,"cantidad":1}]`)
		svc := newTestService(&brokenStorage{value: raw})
		snap, err := svc.GetCart(ctx, "s1")
		if err != nil {
			t.Fatalf("get cart: %v", err)
		}
		if len(snap.Items) != 1 || snap.Items[0].ID != "2" {
			t.Fatalf("expected only item 2, got %+v", snap.Items)
		}
	})

	t.Run("read error", func(t *testing.T) {
		svc := newTestService(&brokenStorage{getErr: errors.New("disk gone")})
		snap, err := svc.GetCart(ctx, "s1")
		if err != nil || !snap.Empty() {
			t.Fatalf("expected empty cart without error, got %+v %v", snap, err)
		}
	})
}

func TestWriteFailureIsSwallowed(t *testing.T) {
	storage := &brokenStorage{setErr: errors.New("quota exceeded")}
	svc := newTestService(storage)

	snap, _, err := svc.AddItem(context.Background(), "s1", "1", "A", 3)
	if err != nil {
		t.Fatalf("write failure must not surface: %v", err)
	}
	if storage.sets != 1 {
		t.Fatalf("expected one write attempt, got %d", storage.sets)
	}
	if snap.Count != 1 {
		t.Fatalf("expected in-memory mutation to apply, got %+v", snap)
	}
}

func TestSetQuantityOnMissingSkipsWrite(t *testing.T) {
	storage := &brokenStorage{}
	svc := newTestService(storage)

	if _, err := svc.SetItemQuantity(context.Background(), "s1", "nope", 3); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if storage.sets != 0 {
		t.Fatalf("expected no write, got %d", storage.sets)
	}
}

func TestConcurrentAddsSameScope(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	svc := newTestService(memory.NewKV())

	const n = 50
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			_, _, err := svc.AddItem(gctx, "s1", "1", "A", 1)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent add: %v", err)
	}

	snap, _ := svc.GetCart(ctx, "s1")
	if len(snap.Items) != 1 || snap.Items[0].Quantity != n {
		t.Fatalf("expected quantity %d, got %+v", n, snap.Items)
	}

	svc.mu.Lock()
	leaked := len(svc.locks)
	svc.mu.Unlock()
	if leaked != 0 {
		t.Fatalf("expected scope locks to be released, got %d", leaked)
	}
}

func TestDefaultKey(t *testing.T) {
	svc := NewService(memory.NewKV(), " ", nil)
	if svc.key != DefaultStorageKey {
		t.Fatalf("expected default key, got %q", svc.key)
	}
}
