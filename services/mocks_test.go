package services

import (
	"context"
	"sort"
	"sync"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func copyCart(c *models.Cart) *models.Cart {
	dup := *c
	dup.Products = append([]models.CartItem(nil), c.Products...)
	return &dup
}

func copySession(s *models.CheckoutSession) *models.CheckoutSession {
	dup := *s
	dup.CheckoutItems = append([]models.CartItem(nil), s.CheckoutItems...)
	return &dup
}

func copyOrder(o *models.Order) *models.Order {
	dup := *o
	dup.OrderItems = append([]models.CartItem(nil), o.OrderItems...)
	return &dup
}

type mockCartStore struct {
	mu    sync.Mutex
	carts map[primitive.ObjectID]*models.Cart
	// conflicts makes the next n Updates fail with ErrVersionConflict.
	conflicts int
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[primitive.ObjectID]*models.Cart)}
}

func (m *mockCartStore) GetByOwner(_ context.Context, owner models.CartOwner) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if owner.IsUser() && c.UserID == owner.UserID {
			return copyCart(c), nil
		}
		if !owner.IsUser() && c.GuestID != "" && c.GuestID == owner.GuestID {
			return copyCart(c), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockCartStore) Insert(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the unique owner indexes on the carts collection.
	for _, c := range m.carts {
		if !cart.UserID.IsZero() && c.UserID == cart.UserID {
			return store.ErrDuplicate
		}
		if cart.GuestID != "" && c.GuestID == cart.GuestID {
			return store.ErrDuplicate
		}
	}
	cart.ID = primitive.NewObjectID()
	cart.Version = 1
	m.carts[cart.ID] = copyCart(cart)
	return nil
}

func (m *mockCartStore) Update(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return store.ErrVersionConflict
	}
	stored, ok := m.carts[cart.ID]
	if !ok || stored.Version != cart.Version {
		return store.ErrVersionConflict
	}
	cart.Version++
	m.carts[cart.ID] = copyCart(cart)
	return nil
}

func (m *mockCartStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.carts, id)
	return nil
}

func (m *mockCartStore) DeleteByUser(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.carts {
		if c.UserID == userID {
			delete(m.carts, id)
			return nil
		}
	}
	return store.ErrNotFound
}

type mockCheckoutStore struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*models.CheckoutSession
}

func newMockCheckoutStore() *mockCheckoutStore {
	return &mockCheckoutStore{sessions: make(map[primitive.ObjectID]*models.CheckoutSession)}
}

func (m *mockCheckoutStore) Insert(_ context.Context, session *models.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session.ID = primitive.NewObjectID()
	session.Version = 1
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *mockCheckoutStore) Get(_ context.Context, id primitive.ObjectID) (*models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copySession(s), nil
}

func (m *mockCheckoutStore) Update(_ context.Context, session *models.CheckoutSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[session.ID]
	if !ok || stored.Version != session.Version {
		return store.ErrVersionConflict
	}
	session.Version++
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *mockCheckoutStore) SetOrderID(_ context.Context, id, orderID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return store.ErrNotFound
	}
	s.OrderID = orderID
	return nil
}

func (m *mockCheckoutStore) ListFinalizedWithoutOrder(_ context.Context) ([]models.CheckoutSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CheckoutSession
	for _, s := range m.sessions {
		if s.IsFinalized && s.OrderID.IsZero() {
			out = append(out, *copySession(s))
		}
	}
	return out, nil
}

type mockOrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]*models.Order
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[primitive.ObjectID]*models.Order)}
}

func (m *mockOrderStore) Insert(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Mirrors the unique index on orders.checkout_id.
	if !order.CheckoutID.IsZero() {
		for _, o := range m.orders {
			if o.CheckoutID == order.CheckoutID {
				return store.ErrDuplicate
			}
		}
	}
	order.ID = primitive.NewObjectID()
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderStore) Get(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderStore) FindByCheckout(_ context.Context, checkoutID primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.CheckoutID == checkoutID {
			return copyOrder(o), nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockOrderStore) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderStore) ListAll(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		out = append(out, *copyOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderStore) Update(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return store.ErrNotFound
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

type mockUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *mockUserStore) Insert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ID = primitive.NewObjectID()
	dup := *user
	m.users[user.ID] = &dup
	return nil
}

func (m *mockUserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			dup := *u
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := *u
	return &dup, nil
}

func (m *mockUserStore) FindByVerificationToken(_ context.Context, token string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.VerificationToken == token {
			dup := *u
			return &dup, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockUserStore) EmailExists(_ context.Context, email string) (bool, error) {
	_, err := m.FindByEmail(context.Background(), email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (m *mockUserStore) MarkVerified(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return store.ErrNotFound
	}
	u.IsVerified = true
	u.VerificationToken = ""
	return nil
}

func (m *mockUserStore) List(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserStore) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	dup := *user
	m.users[user.ID] = &dup
	return nil
}

func (m *mockUserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type mockCatalog struct {
	products map[primitive.ObjectID]*models.Product
}

func newMockCatalog(products ...*models.Product) *mockCatalog {
	m := &mockCatalog{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockCatalog) Product(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, NotFoundf("Product not found")
	}
	return p, nil
}
