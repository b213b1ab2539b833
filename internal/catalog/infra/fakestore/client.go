// Package fakestore reads products from a Fake Store API compatible endpoint.
package fakestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	cartdomain "github.com/dwikikusuma/storefront/internal/cart/domain"
)

const DefaultURL = "https://fakestoreapi.com/products"

// maxBody bounds how much of an upstream response is read.
const maxBody = 4 << 20

type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type productDTO struct {
	ID    any    `json:"id"`
	Title string `json:"title"`
	Price any    `json:"price"`
	Image string `json:"image"`
}

// toDomain normalizes ids sent as numbers or strings and coerces prices
// that are missing or unparseable to 0.
func (p productDTO) toDomain() domain.Product {
	var price float64
	switch v := p.Price.(type) {
	case float64:
		price = cartdomain.SanitizePrice(v)
	case string:
		price = cartdomain.ParsePrice(v)
	}
	return domain.Product{
		ID:    cartdomain.NormalizeID(p.ID),
		Title: p.Title,
		Price: price,
		Image: p.Image,
	}
}

// List issues GET <base>?limit=N and decodes the product array.
func (c *Client) List(ctx context.Context, limit int) ([]domain.Product, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBody))
		return nil, fmt.Errorf("HTTP %d", res.StatusCode)
	}

	var dtos []productDTO
	if err := json.NewDecoder(io.LimitReader(res.Body, maxBody)).Decode(&dtos); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	out := make([]domain.Product, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}
