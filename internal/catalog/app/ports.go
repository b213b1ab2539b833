package app

import (
	"context"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
)

type ProductSource interface {
	List(ctx context.Context, limit int) ([]domain.Product, error)
}
