package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// CartUsecase は /cart の業務ロジックです。
// 書き込みはTx内でユーザー単位のロックを取ってから在庫チェックする。
type CartUsecase struct {
	tx        repo.TransactionManager
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	cache     repo.CartCache
	idGen     IDGenerator
	clock     Clock
	logger    Logger
	sfg       singleflight.Group

	// DB読み込み中のユーザー。読み込み中に無効化されたら stale を立てる
	mu      sync.Mutex
	loading map[string]*cartLoad
}

type cartLoad struct {
	stale bool
}

// 共有読み込みは呼び出し元のキャンセルを引き継がないので上限だけ付ける
const cartLoadTimeout = 5 * time.Second

func NewCartUsecase(
	tx repo.TransactionManager,
	cartItems repo.CartItemRepository,
	products repo.ProductRepository,
	cache repo.CartCache,
	idGen IDGenerator,
	clock Clock,
	logger Logger,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		cartItems: cartItems,
		products:  products,
		cache:     cache,
		idGen:     idGen,
		clock:     clock,
		logger:    logger,
		loading:   map[string]*cartLoad{},
	}
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int64  `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	// 商品が削除済みなら false（注文時に ProductNotFound になる）
	Available bool `json:"available"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total string             `json:"total"`
}

type AddCartInput struct {
	ProductID string
	Quantity  int64
}

type UpdateCartItemInput struct {
	ProductID string
	Quantity  int64
}

func validateCartInput(productID string, qty int64) error {
	if strings.TrimSpace(productID) == "" {
		return Validation("product_id is required")
	}
	if qty < 1 {
		return Validation("quantity must be a positive integer")
	}
	return nil
}

// AddItem はカートに追加（同一商品は数量加算）。
// 在庫チェックは加算後の数量で行う。
func (u *CartUsecase) AddItem(ctx context.Context, userID string, in AddCartInput) (model.CartItem, error) {
	if userID == "" {
		return model.CartItem{}, ErrUnauthorized
	}
	if err := validateCartInput(in.ProductID, in.Quantity); err != nil {
		return model.CartItem{}, err
	}
	if !isValidID(in.ProductID) {
		return model.CartItem{}, ErrProductNotFound
	}

	var out model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartItems().LockUser(ctx, userID); err != nil {
			return Internal("lock cart", err)
		}

		quote, err := r.Inventory().PriceAndStock(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return Internal("price and stock", err)
		}

		//既存数量
		var existingQty int64
		existing, err := r.CartItems().FindByUserAndProduct(ctx, userID, in.ProductID)
		switch {
		case err == nil:
			existingQty = existing.Quantity
		case !errors.Is(err, repo.ErrNotFound):
			return Internal("find cart item", err)
		}

		// 加算するとオーバーフローするので引き算で比べる
		if in.Quantity > quote.AvailableQuantity-existingQty {
			return ErrProductUnavailable
		}

		now := u.clock.Now()
		out, err = r.CartItems().Merge(ctx, model.CartItem{
			ID:        u.idGen.NewID(),
			UserID:    userID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return Internal("merge cart item", err)
		}
		return nil
	})
	if err != nil {
		return model.CartItem{}, asUsecaseError("add item", err)
	}

	u.Invalidate(ctx, userID)
	return out, nil
}

// 数量を上書きする（加算しない）。明細が無ければ作らない。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, userID string, in UpdateCartItemInput) (model.CartItem, error) {
	if userID == "" {
		return model.CartItem{}, ErrUnauthorized
	}
	if err := validateCartInput(in.ProductID, in.Quantity); err != nil {
		return model.CartItem{}, err
	}
	if !isValidID(in.ProductID) {
		return model.CartItem{}, ErrItemNotFound
	}

	var out model.CartItem
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.CartItems().LockUser(ctx, userID); err != nil {
			return Internal("lock cart", err)
		}

		item, err := r.CartItems().FindByUserAndProduct(ctx, userID, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrItemNotFound
		}
		if err != nil {
			return Internal("find cart item", err)
		}

		//商品の在庫チェック
		quote, err := r.Inventory().PriceAndStock(ctx, in.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrProductNotFound
		}
		if err != nil {
			return Internal("price and stock", err)
		}
		if in.Quantity > quote.AvailableQuantity {
			return ErrProductUnavailable
		}

		if err := r.CartItems().UpdateQuantity(ctx, userID, in.ProductID, in.Quantity); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrItemNotFound
			}
			return Internal("update cart item", err)
		}

		item.Quantity = in.Quantity
		item.UpdatedAt = u.clock.Now()
		out = item
		return nil
	})
	if err != nil {
		return model.CartItem{}, asUsecaseError("update quantity", err)
	}

	u.Invalidate(ctx, userID)
	return out, nil
}

// 明細削除
func (u *CartUsecase) RemoveItem(ctx context.Context, userID, productID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if !isValidID(productID) {
		return ErrItemNotFound
	}

	err := u.cartItems.Delete(ctx, userID, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return Internal("delete cart item", err)
	}

	u.Invalidate(ctx, userID)
	return nil
}

// 空でもエラーにしない
func (u *CartUsecase) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if _, err := u.cartItems.ClearByUserID(ctx, userID); err != nil {
		return Internal("clear cart", err)
	}
	u.Invalidate(ctx, userID)
	return nil
}

// GetItems はキャッシュ優先で明細を返す。
// 同じユーザーの同時ミスは singleflight で1回のDB読み取りにまとめる。
func (u *CartUsecase) GetItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	// 最初の呼び出し元がキャンセルしても相乗りした側は巻き込まない
	ch := u.sfg.DoChan(userID, func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cartLoadTimeout)
		defer cancel()
		return u.loadItems(loadCtx, userID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		items := res.Val.([]model.CartItem)
		if items == nil {
			items = []model.CartItem{}
		}
		return items, nil
	}
}

func (u *CartUsecase) loadItems(ctx context.Context, userID string) ([]model.CartItem, error) {
	items, err := u.cache.Get(ctx, userID)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, repo.ErrCacheMiss) {
		u.logger.Warnf("cart cache get failed user=%s: %v", userID, err)
	}

	load := u.beginLoad(userID)
	defer u.endLoad(userID)

	items, err = u.cartItems.ListByUserID(ctx, userID)
	if err != nil {
		return nil, Internal("list cart items", err)
	}

	// 読み込み中に書き込みがあった。古い明細はキャッシュしない
	if u.isStale(load) {
		return items, nil
	}
	if err := u.cache.Set(ctx, userID, items); err != nil {
		u.logger.Warnf("cart cache set failed user=%s: %v", userID, err)
		return items, nil
	}
	// Set と無効化が入れ違った場合は消し直す
	if u.isStale(load) {
		if err := u.cache.Delete(ctx, userID); err != nil {
			u.logger.Warnf("cart cache delete failed user=%s: %v", userID, err)
		}
	}
	return items, nil
}

func (u *CartUsecase) beginLoad(userID string) *cartLoad {
	u.mu.Lock()
	defer u.mu.Unlock()
	l := &cartLoad{}
	u.loading[userID] = l
	return l
}

func (u *CartUsecase) endLoad(userID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.loading, userID)
}

func (u *CartUsecase) isStale(l *cartLoad) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return l.stale
}

// GetCart は明細に現在の商品名・価格と合計を付けて返す。
func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	items, err := u.GetItems(ctx, userID)
	if err != nil {
		return CartResponse{}, err
	}

	out := CartResponse{Items: make([]CartLineResponse, 0, len(items))}
	total := decimal.Zero

	for _, it := range items {
		line := CartLineResponse{ProductID: it.ProductID, Quantity: it.Quantity}

		p, err := u.products.FindByID(ctx, it.ProductID)
		switch {
		case err == nil:
			sub := p.Price.Mul(decimal.NewFromInt(it.Quantity))
			line.Name = p.Name
			line.Price = p.Price.StringFixed(2)
			line.Subtotal = sub.StringFixed(2)
			line.Available = it.Quantity <= p.AvailableQuantity
			total = total.Add(sub)
		case errors.Is(err, repo.ErrNotFound):
			line.Price = decimal.Zero.StringFixed(2)
			line.Subtotal = decimal.Zero.StringFixed(2)
		default:
			return CartResponse{}, Internal("find product", err)
		}

		out.Items = append(out.Items, line)
	}

	out.Total = total.StringFixed(2)
	return out, nil
}

// Invalidate はカートのキャッシュを消す。注文確定後にも呼ばれる。
// 削除の失敗はTTLで消えるので警告だけ
func (u *CartUsecase) Invalidate(ctx context.Context, userID string) {
	u.mu.Lock()
	if l, ok := u.loading[userID]; ok {
		l.stale = true
	}
	u.mu.Unlock()

	if err := u.cache.Delete(ctx, userID); err != nil {
		u.logger.Warnf("cart cache delete failed user=%s: %v", userID, err)
	}
}
