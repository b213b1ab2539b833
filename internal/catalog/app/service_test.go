package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/pkg/logger"
	"go.uber.org/goleak"
)

type fakeSource struct {
	calls    atomic.Int32
	gotLimit atomic.Int32
	err      error
	delay    time.Duration
	products []domain.Product
}

func (f *fakeSource) List(ctx context.Context, limit int) ([]domain.Product, error) {
	f.calls.Add(1)
	f.gotLimit.Store(int32(limit))
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func TestListProductsLimits(t *testing.T) {
	cases := []struct {
		name string
		in   int
		want int32
	}{
		{"zero -> default", 0, DefaultLimit},
		{"negative -> default", -4, DefaultLimit},
		{"too large -> max", 500, MaxLimit},
		{"in range", 3, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := &fakeSource{}
			svc := NewService(src, logger.Discard())
			if _, err := svc.ListProducts(context.Background(), tc.in); err != nil {
				t.Fatalf("list: %v", err)
			}
			if got := src.gotLimit.Load(); got != tc.want {
				t.Fatalf("expected limit %d, got %d", tc.want, got)
			}
		})
	}
}

func TestListProductsTruncatesOversizedPage(t *testing.T) {
	src := &fakeSource{products: []domain.Product{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	svc := NewService(src, logger.Discard())

	got, err := svc.ListProducts(context.Background(), 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 products, got %d", len(got))
	}
}

func TestListProductsFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("HTTP 500")}
	svc := NewService(src, logger.Discard())

	_, err := svc.ListProducts(context.Background(), 8)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
	if svc.Ready() {
		t.Fatal("service must not report ready after a failure")
	}
	if src.calls.Load() != 1 {
		t.Fatalf("expected no retry, got %d calls", src.calls.Load())
	}
}

func TestReadyFollowsLastFetch(t *testing.T) {
	src := &fakeSource{}
	svc := NewService(src, logger.Discard())
	if svc.Ready() {
		t.Fatal("not ready before first fetch")
	}
	_, _ = svc.ListProducts(context.Background(), 8)
	if !svc.Ready() {
		t.Fatal("expected ready after success")
	}
}

func TestListProductsSharesInflightRequest(t *testing.T) {
	defer goleak.VerifyNone(t)
	src := &fakeSource{delay: 100 * time.Millisecond, products: []domain.Product{{ID: "1"}}}
	svc := NewService(src, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ListProducts(context.Background(), 8)
		}()
	}
	wg.Wait()

	if calls := src.calls.Load(); calls >= 10 {
		t.Fatalf("expected concurrent calls to be collapsed, got %d upstream calls", calls)
	}
}
