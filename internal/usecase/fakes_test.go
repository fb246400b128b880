package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// =====================
// インメモリのストア（Tx はスナップショットで巻き戻す）
// =====================

type memStore struct {
	// WithinTx 全体を直列化する（advisory lock の代わり）
	mu sync.Mutex

	products    map[string]model.Product
	cart        []model.CartItem
	orders      map[string]model.Order
	lines       map[string][]model.OrderLineItem
	addresses   map[string]model.Address
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment
	outbox      []model.OutboxEvent

	// 失敗の注入
	failInsert  error
	failEnqueue error

	lockCalls int
}

func newMemStore() *memStore {
	return &memStore{
		products:  map[string]model.Product{},
		orders:    map[string]model.Order{},
		lines:     map[string][]model.OrderLineItem{},
		addresses: map[string]model.Address{},
	}
}

type memSnapshot struct {
	products    map[string]model.Product
	cart        []model.CartItem
	orders      map[string]model.Order
	lines       map[string][]model.OrderLineItem
	addresses   map[string]model.Address
	audits      []model.AuditLog
	adjustments []model.InventoryAdjustment
	outbox      []model.OutboxEvent
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		products:    copyMap(s.products),
		cart:        append([]model.CartItem(nil), s.cart...),
		orders:      copyMap(s.orders),
		lines:       copyMap(s.lines),
		addresses:   copyMap(s.addresses),
		audits:      append([]model.AuditLog(nil), s.audits...),
		adjustments: append([]model.InventoryAdjustment(nil), s.adjustments...),
		outbox:      append([]model.OutboxEvent(nil), s.outbox...),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.products = snap.products
	s.cart = snap.cart
	s.orders = snap.orders
	s.lines = snap.lines
	s.addresses = snap.addresses
	s.audits = snap.audits
	s.adjustments = snap.adjustments
	s.outbox = snap.outbox
}

func (s *memStore) WithinTx(_ context.Context, fn func(r repo.TxRepos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memStore) Orders() repo.OrderRepository { return memOrders{s} }
func (s *memStore) CartItems() repo.CartItemRepository { return memCart{s} }
func (s *memStore) Products() repo.ProductRepository { return memProducts{s} }
func (s *memStore) Inventory() repo.InventoryOracle { return memInventory{s} }
func (s *memStore) Adjustments() repo.InventoryAdjustmentRepository { return memInventory{s} }
func (s *memStore) Addresses() repo.AddressRepository { return memAddresses{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository { return memAudit{s} }
func (s *memStore) Outbox() repo.OutboxRepository { return memOutbox{s} }

// テストデータ投入
func (s *memStore) seedProduct(name, price string, stock int64, category string, tags ...string) model.Product {
	p := model.Product{
		ID:                uuid.NewString(),
		Name:              name,
		Price:             decimal.RequireFromString(price),
		AvailableQuantity: stock,
		Category:          category,
		Tags:              tags,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	s.products[p.ID] = p
	return p
}

func (s *memStore) seedCart(userID, productID string, qty int64) {
	s.cart = append(s.cart, model.CartItem{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  qty,
	})
}

func (s *memStore) cartOf(userID string) []model.CartItem {
	out := []model.CartItem{}
	for _, it := range s.cart {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out
}

// =====================
// cart
// =====================

type memCart struct{ s *memStore }

func (m memCart) LockUser(_ context.Context, _ string) error {
	m.s.lockCalls++
	return nil
}

func (m memCart) ListByUserID(_ context.Context, userID string) ([]model.CartItem, error) {
	return m.s.cartOf(userID), nil
}

func (m memCart) FindByUserAndProduct(_ context.Context, userID, productID string) (model.CartItem, error) {
	for _, it := range m.s.cart {
		if it.UserID == userID && it.ProductID == productID {
			return it, nil
		}
	}
	return model.CartItem{}, repo.ErrNotFound
}

func (m memCart) Merge(_ context.Context, item model.CartItem) (model.CartItem, error) {
	for i, it := range m.s.cart {
		if it.UserID == item.UserID && it.ProductID == item.ProductID {
			m.s.cart[i].Quantity += item.Quantity
			m.s.cart[i].UpdatedAt = item.UpdatedAt
			return m.s.cart[i], nil
		}
	}
	m.s.cart = append(m.s.cart, item)
	return item, nil
}

func (m memCart) UpdateQuantity(_ context.Context, userID, productID string, qty int64) error {
	for i, it := range m.s.cart {
		if it.UserID == userID && it.ProductID == productID {
			m.s.cart[i].Quantity = qty
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m memCart) Delete(_ context.Context, userID, productID string) error {
	for i, it := range m.s.cart {
		if it.UserID == userID && it.ProductID == productID {
			m.s.cart = append(m.s.cart[:i:i], m.s.cart[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (m memCart) ClearByUserID(_ context.Context, userID string) (int64, error) {
	kept := []model.CartItem{}
	var n int64
	for _, it := range m.s.cart {
		if it.UserID == userID {
			n++
			continue
		}
		kept = append(kept, it)
	}
	m.s.cart = kept
	return n, nil
}

// =====================
// products / inventory
// =====================

type memProducts struct{ s *memStore }

func (m memProducts) List(_ context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	out := []model.Product{}
	for _, p := range m.s.products {
		if p.DeletedAt.Valid {
			continue
		}
		if q.Term != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Term)) && !hasTag(p, q.Term) {
			continue
		}
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	if q.Limit > 0 {
		if q.Offset >= len(out) {
			return []model.Product{}, nil
		}
		end := q.Offset + q.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[q.Offset:end]
	}
	return out, nil
}

func hasTag(p model.Product, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (m memProducts) FindByID(_ context.Context, id string) (model.Product, error) {
	p, ok := m.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m memProducts) Create(_ context.Context, p model.Product) (model.Product, error) {
	m.s.products[p.ID] = p
	return p, nil
}

func (m memProducts) Update(_ context.Context, p model.Product) error {
	cur, ok := m.s.products[p.ID]
	if !ok || cur.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	m.s.products[p.ID] = p
	return nil
}

func (m memProducts) SoftDelete(_ context.Context, id string) error {
	p, ok := m.s.products[id]
	if !ok || p.DeletedAt.Valid {
		return repo.ErrNotFound
	}
	p.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	m.s.products[id] = p
	return nil
}

type memInventory struct{ s *memStore }

func (m memInventory) PriceAndStock(_ context.Context, productID string) (model.StockQuote, error) {
	p, ok := m.s.products[productID]
	if !ok || p.DeletedAt.Valid {
		return model.StockQuote{}, repo.ErrNotFound
	}
	return model.StockQuote{
		ProductID:         p.ID,
		Name:              p.Name,
		UnitPrice:         p.Price,
		AvailableQuantity: p.AvailableQuantity,
	}, nil
}

func (m memInventory) CreateAdjustment(_ context.Context, adj model.InventoryAdjustment) error {
	adj.ID = int64(len(m.s.adjustments) + 1)
	m.s.adjustments = append(m.s.adjustments, adj)
	return nil
}

// =====================
// orders
// =====================

type memOrders struct{ s *memStore }

func (m memOrders) Insert(_ context.Context, order model.Order, items []model.OrderLineItem) (string, error) {
	if m.s.failInsert != nil {
		return "", m.s.failInsert
	}
	m.s.orders[order.ID] = order
	m.s.lines[order.ID] = append([]model.OrderLineItem(nil), items...)
	return order.ID, nil
}

func (m memOrders) UpdateStatus(_ context.Context, orderID string, status model.OrderStatus) (int64, error) {
	o, ok := m.s.orders[orderID]
	if !ok {
		return 0, nil
	}
	o.Status = status
	m.s.orders[orderID] = o
	return 1, nil
}

func (m memOrders) FindByID(_ context.Context, orderID string) (model.Order, error) {
	o, ok := m.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m memOrders) FindByIDForUpdate(ctx context.Context, orderID string) (model.Order, error) {
	return m.FindByID(ctx, orderID)
}

func (m memOrders) ListLineItems(_ context.Context, orderID string) ([]model.OrderLineItem, error) {
	return append([]model.OrderLineItem{}, m.s.lines[orderID]...), nil
}

func (m memOrders) ListByUserID(_ context.Context, userID string, limit, offset int) ([]model.Order, error) {
	out := []model.Order{}
	for _, o := range m.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return []model.Order{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// =====================
// addresses / audit / outbox
// =====================

type memAddresses struct{ s *memStore }

func (m memAddresses) Create(_ context.Context, a model.Address) (model.Address, error) {
	m.s.addresses[a.ID] = a
	return a, nil
}

func (m memAddresses) ListByUserID(_ context.Context, userID string) ([]model.Address, error) {
	out := []model.Address{}
	for _, a := range m.s.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m memAddresses) FindByID(_ context.Context, id string) (model.Address, error) {
	a, ok := m.s.addresses[id]
	if !ok {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (m memAddresses) Update(_ context.Context, a model.Address) error {
	if _, ok := m.s.addresses[a.ID]; !ok {
		return repo.ErrNotFound
	}
	m.s.addresses[a.ID] = a
	return nil
}

func (m memAddresses) Delete(_ context.Context, id string) error {
	if _, ok := m.s.addresses[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.s.addresses, id)
	return nil
}

func (m memAddresses) LatestByUserID(ctx context.Context, userID string) (model.Address, error) {
	list, _ := m.ListByUserID(ctx, userID)
	if len(list) == 0 {
		return model.Address{}, repo.ErrNotFound
	}
	return list[0], nil
}

type memAudit struct{ s *memStore }

func (m memAudit) Create(_ context.Context, l model.AuditLog) error {
	l.ID = int64(len(m.s.audits) + 1)
	m.s.audits = append(m.s.audits, l)
	return nil
}

type memOutbox struct{ s *memStore }

func (m memOutbox) Enqueue(_ context.Context, ev model.OutboxEvent) error {
	if m.s.failEnqueue != nil {
		return m.s.failEnqueue
	}
	ev.ID = int64(len(m.s.outbox) + 1)
	m.s.outbox = append(m.s.outbox, ev)
	return nil
}

func (m memOutbox) FetchPending(_ context.Context, limit int) ([]model.OutboxEvent, error) {
	out := []model.OutboxEvent{}
	for _, ev := range m.s.outbox {
		if ev.SentAt == nil && len(out) < limit {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m memOutbox) MarkSent(_ context.Context, id int64, at time.Time) error {
	for i := range m.s.outbox {
		if m.s.outbox[i].ID == id {
			m.s.outbox[i].SentAt = &at
		}
	}
	return nil
}

// =====================
// cache / clock / recorder / logger
// =====================

type memCache struct {
	mu      sync.Mutex
	items   map[string][]model.CartItem
	gets    int
	deletes int
	err     error
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]model.CartItem{}}
}

func (c *memCache) Get(_ context.Context, userID string) ([]model.CartItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	items, ok := c.items[userID]
	if !ok {
		return nil, repo.ErrCacheMiss
	}
	return items, nil
}

func (c *memCache) Set(_ context.Context, userID string, items []model.CartItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items[userID] = items
	return nil
}

func (c *memCache) Delete(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deletes++
	if c.err != nil {
		return c.err
	}
	delete(c.items, userID)
	return nil
}

// 呼ばれるたびに1秒進む
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type countingRecorder struct {
	created   int
	cancelled int
	lastTotal decimal.Decimal
}

func (r *countingRecorder) ObserveOrderCreated(total decimal.Decimal) {
	r.created++
	r.lastTotal = total
}

func (r *countingRecorder) ObserveOrderCancelled() { r.cancelled++ }

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}
