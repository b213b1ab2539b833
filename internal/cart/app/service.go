package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dwikikusuma/storefront/internal/cart/domain"
)

var ErrInvalidInput = errors.New("invalid input")

const DefaultStorageKey = "carrito"

// Notice is a transient confirmation shown after a cart mutation.
type Notice struct {
	Message string
}

// Snapshot is a read-only view of a cart at one point in time.
type Snapshot struct {
	Items []domain.LineItem
	Total float64
	Count int
}

func (s Snapshot) Empty() bool {
	return len(s.Items) == 0
}

// Store owns the cart of one scope and writes it back to storage after
// every mutation. A Store is not safe for concurrent use; Service serializes
// access per scope.
type Store struct {
	storage Storage
	scope   string
	key     string
	log     *slog.Logger
	cart    *domain.Cart
}

func (st *Store) Add(ctx context.Context, id, name string, price float64) Notice {
	st.cart.Add(id, name, price)
	st.persist(ctx)
	return Notice{Message: fmt.Sprintf("%s añadido al carrito", name)}
}

func (st *Store) Remove(ctx context.Context, id string) {
	if !st.cart.Remove(id) {
		return
	}
	st.persist(ctx)
}

func (st *Store) SetQuantity(ctx context.Context, id string, qty int) {
	if !st.cart.SetQuantity(id, qty) {
		return
	}
	st.persist(ctx)
}

func (st *Store) Clear(ctx context.Context) {
	st.cart.Clear()
	st.persist(ctx)
}

func (st *Store) Snapshot() Snapshot {
	return Snapshot{
		Items: st.cart.Items(),
		Total: st.cart.Total(),
		Count: st.cart.Count(),
	}
}

// persist writes the full line-item sequence. Failures are logged and
// absorbed; the in-memory cart stays authoritative for this request.
func (st *Store) persist(ctx context.Context) {
	data, err := st.cart.Encode()
	if err != nil {
		st.log.Error("cart encode failed", slog.Any("err", err), slog.String("scope", st.scope))
		return
	}
	if err := st.storage.Set(ctx, st.scope, st.key, data); err != nil {
		st.log.Error("cart save failed", slog.Any("err", err), slog.String("scope", st.scope))
	}
}

type scopeLock struct {
	mu   sync.Mutex
	refs int
}

type Service struct {
	storage Storage
	key     string
	log     *slog.Logger

	mu    sync.Mutex
	locks map[string]*scopeLock
}

func NewService(storage Storage, key string, log *slog.Logger) *Service {
	if strings.TrimSpace(key) == "" {
		key = DefaultStorageKey
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		storage: storage,
		key:     key,
		log:     log,
		locks:   make(map[string]*scopeLock),
	}
}

// Open restores the cart for scope. A missing value yields an empty cart; a
// storage error or corrupt value is logged and also yields an empty cart.
func (s *Service) Open(ctx context.Context, scope string) *Store {
	st := &Store{storage: s.storage, scope: scope, key: s.key, log: s.log, cart: domain.NewCart()}

	raw, ok, err := s.storage.Get(ctx, scope, s.key)
	if err != nil {
		s.log.Error("cart read failed", slog.Any("err", err), slog.String("scope", scope))
		return st
	}
	if !ok {
		return st
	}

	cart, skipped, err := domain.Decode(raw)
	if err != nil {
		s.log.Error("cart restore failed", slog.Any("err", err), slog.String("scope", scope))
		return st
	}
	if skipped > 0 {
		s.log.Warn("cart restore skipped entries", slog.Int("skipped", skipped), slog.String("scope", scope))
	}
	st.cart = cart
	return st
}

// Update runs fn against the scope's store while holding the scope lock, so
// concurrent requests from one session never lose each other's writes.
func (s *Service) Update(ctx context.Context, scope string, fn func(st *Store)) (Snapshot, error) {
	if strings.TrimSpace(scope) == "" {
		return Snapshot{}, ErrInvalidInput
	}
	unlock := s.lock(scope)
	defer unlock()

	st := s.Open(ctx, scope)
	fn(st)
	return st.Snapshot(), nil
}

func (s *Service) GetCart(ctx context.Context, scope string) (Snapshot, error) {
	if strings.TrimSpace(scope) == "" {
		return Snapshot{}, ErrInvalidInput
	}
	return s.Open(ctx, scope).Snapshot(), nil
}

func (s *Service) AddItem(ctx context.Context, scope, id, name string, price float64) (Snapshot, Notice, error) {
	if strings.TrimSpace(id) == "" {
		return Snapshot{}, Notice{}, ErrInvalidInput
	}
	var notice Notice
	snap, err := s.Update(ctx, scope, func(st *Store) {
		notice = st.Add(ctx, id, name, price)
	})
	if err != nil {
		return Snapshot{}, Notice{}, err
	}
	return snap, notice, nil
}

func (s *Service) RemoveItem(ctx context.Context, scope, id string) (Snapshot, error) {
	return s.Update(ctx, scope, func(st *Store) {
		st.Remove(ctx, id)
	})
}

func (s *Service) SetItemQuantity(ctx context.Context, scope, id string, qty int) (Snapshot, error) {
	return s.Update(ctx, scope, func(st *Store) {
		st.SetQuantity(ctx, id, qty)
	})
}

func (s *Service) ClearCart(ctx context.Context, scope string) (Snapshot, error) {
	return s.Update(ctx, scope, func(st *Store) {
		st.Clear(ctx)
	})
}

func (s *Service) lock(scope string) func() {
	s.mu.Lock()
	l, ok := s.locks[scope]
	if !ok {
		l = &scopeLock{}
		s.locks[scope] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, scope)
		}
		s.mu.Unlock()
	}
}
