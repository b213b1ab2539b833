package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"golang.org/x/sync/singleflight"
)

var ErrCatalogUnavailable = errors.New("catalog unavailable")

const (
	DefaultLimit = 8
	MaxLimit     = 100
)

type Service struct {
	source ProductSource
	log    *slog.Logger

	group singleflight.Group
	ready atomic.Bool
}

func NewService(source ProductSource, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		source: source,
		log:    log,
	}
}

// ListProducts fetches one page of products. Concurrent callers asking for
// the same limit share a single upstream request. Failures are not retried.
func (s *Service) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	v, err, _ := s.group.Do(strconv.Itoa(limit), func() (any, error) {
		return s.source.List(ctx, limit)
	})
	if err != nil {
		s.ready.Store(false)
		s.log.Error("catalog fetch failed", slog.Any("err", err), slog.Int("limit", limit))
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	s.ready.Store(true)

	products := v.([]domain.Product)
	if len(products) > limit {
		products = products[:limit]
	}
	out := make([]domain.Product, len(products))
	copy(out, products)
	return out, nil
}

// Ready reports whether the most recent fetch succeeded.
func (s *Service) Ready() bool {
	return s.ready.Load()
}
