package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"github.com/shopspring/decimal"
)

// 履歴は固定で新しい50件
const orderHistoryLimit = 50

type OrderUsecase struct {
	tx       repo.TransactionManager
	orders   repo.OrderRepository
	carts    CartInvalidator
	payments PaymentGateway
	idGen    IDGenerator
	clock    Clock
	recorder OrderRecorder
	logger   Logger
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	orders repo.OrderRepository,
	carts CartInvalidator,
	payments PaymentGateway,
	idGen IDGenerator,
	clock Clock,
	recorder OrderRecorder,
	logger Logger,
) *OrderUsecase {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &OrderUsecase{
		tx:       tx,
		orders:   orders,
		carts:    carts,
		payments: payments,
		idGen:    idGen,
		clock:    clock,
		recorder: recorder,
		logger:   logger,
	}
}

type OrderItemOutput struct {
	ID                  string `json:"id"`
	ProductID           string `json:"product_id"`
	ProductName         string `json:"product_name"`
	Quantity            int64  `json:"quantity"`
	UnitPriceAtPurchase string `json:"unit_price_at_purchase"`
	Subtotal            string `json:"subtotal"`
}

type OrderOutput struct {
	ID                string            `json:"id"`
	UserID            string            `json:"user_id"`
	Status            string            `json:"status"`
	TotalAmount       string            `json:"total_amount"`
	DeliveryAddressID *string           `json:"delivery_address_id"`
	CreatedAt         time.Time         `json:"created_at"`
	Items             []OrderItemOutput `json:"items"`
}

type PaymentOutput struct {
	OrderID   string `json:"order_id"`
	Method    string `json:"payment_method"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// outbox に積むペイロード
type orderEvent struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	ItemCount   int       `json:"item_count"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// CreateOrderFromCart はカートを注文に変換する。
// 明細の読み取りからカートのクリアまで1つのTx。途中で失敗したら何も残らない。
func (u *OrderUsecase) CreateOrderFromCart(ctx context.Context, userID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, ErrUnauthorized
	}

	var out OrderOutput
	var total decimal.Decimal

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//同じユーザーのカート操作と直列化
		if err := r.CartItems().LockUser(ctx, userID); err != nil {
			return Internal("lock cart", err)
		}

		cartItems, err := r.CartItems().ListByUserID(ctx, userID)
		if err != nil {
			return Internal("list cart items", err)
		}
		if len(cartItems) == 0 {
			return ErrEmptyCart
		}

		now := u.clock.Now()
		orderID := u.idGen.NewID()

		//価格は注文時点で取り直す
		lines := make([]model.OrderLineItem, 0, len(cartItems))
		total = decimal.Zero
		for i, ci := range cartItems {
			quote, err := r.Inventory().PriceAndStock(ctx, ci.ProductID)
			if errors.Is(err, repo.ErrNotFound) {
				return ErrProductNotFound
			}
			if err != nil {
				return Internal("price and stock", err)
			}
			if ci.Quantity > quote.AvailableQuantity {
				return ErrProductUnavailable
			}

			subtotal := quote.UnitPrice.Mul(decimal.NewFromInt(ci.Quantity))
			lines = append(lines, model.OrderLineItem{
				ID:          u.idGen.NewID(),
				OrderID:     orderID,
				LineNo:      i + 1,
				ProductID:   ci.ProductID,
				ProductName: quote.Name,
				Quantity:    ci.Quantity,
				UnitPrice:   quote.UnitPrice,
				Subtotal:    subtotal,
				CreatedAt:   now,
			})
			total = total.Add(subtotal)
		}

		//配送先は最新の住所。無くてもよい
		var addressID *string
		addr, err := r.Addresses().LatestByUserID(ctx, userID)
		switch {
		case err == nil:
			addressID = &addr.ID
		case !errors.Is(err, repo.ErrNotFound):
			return Internal("latest address", err)
		}

		order := model.Order{
			ID:                orderID,
			UserID:            userID,
			TotalAmount:       total,
			Status:            model.OrderStatusPending,
			DeliveryAddressID: addressID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if _, err := r.Orders().Insert(ctx, order, lines); err != nil {
			return Internal("insert order", err)
		}

		if err := u.enqueue(ctx, r, model.EventOrderCreated, order, len(lines)); err != nil {
			return err
		}

		if _, err := r.CartItems().ClearByUserID(ctx, userID); err != nil {
			return Internal("clear cart", err)
		}

		out = toOrderOutput(order, lines)
		return nil
	})
	if err != nil {
		return OrderOutput{}, asUsecaseError("create order", err)
	}

	u.carts.Invalidate(ctx, userID)
	u.recorder.ObserveOrderCreated(total)
	u.logger.Infof("order created id=%s user=%s total=%s items=%d", out.ID, userID, out.TotalAmount, len(out.Items))
	return out, nil
}

// CancelOrder はステータスを cancelled にするだけ（在庫戻し・返金なし）。
// キャンセル済みへの再実行は成功扱いで、監査ログ・イベントは最初の1回だけ。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID, orderID string) (OrderOutput, error) {
	if userID == "" {
		return OrderOutput{}, ErrUnauthorized
	}
	if !isValidID(orderID) {
		return OrderOutput{}, ErrOrderNotFound
	}

	var out OrderOutput
	transitioned := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOrderNotFound
		}
		if err != nil {
			return Internal("find order", err)
		}
		if o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return ErrOrderNotFound
		}

		if o.Status != model.OrderStatusCancelled {
			affected, err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled)
			if err != nil {
				return Internal("update order status", err)
			}
			if affected == 0 {
				return ErrOrderNotFound
			}

			before := o.Status
			o.Status = model.OrderStatusCancelled
			o.UpdatedAt = u.clock.Now()
			transitioned = true

			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  userID,
				Action:       model.AuditActionCancelOrder,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   fmt.Sprintf(`{"status":%q}`, before),
				AfterJSON:    fmt.Sprintf(`{"status":%q}`, o.Status),
				CreatedAt:    o.UpdatedAt,
			}); err != nil {
				return Internal("create audit log", err)
			}
		}

		items, err := r.Orders().ListLineItems(ctx, orderID)
		if err != nil {
			return Internal("list line items", err)
		}

		if transitioned {
			if err := u.enqueue(ctx, r, model.EventOrderCancelled, o, len(items)); err != nil {
				return err
			}
		}

		out = toOrderOutput(o, items)
		return nil
	})
	if err != nil {
		return OrderOutput{}, asUsecaseError("cancel order", err)
	}

	if transitioned {
		u.recorder.ObserveOrderCancelled()
		u.logger.Infof("order cancelled id=%s user=%s", orderID, userID)
	}
	return out, nil
}

// 注文と明細（商品名付き）を返す
func (u *OrderUsecase) GetOrderDetails(ctx context.Context, userID, orderID string) (OrderOutput, error) {
	o, err := u.findOwned(ctx, userID, orderID)
	if err != nil {
		return OrderOutput{}, err
	}

	items, err := u.orders.ListLineItems(ctx, orderID)
	if err != nil {
		return OrderOutput{}, Internal("list line items", err)
	}
	return toOrderOutput(o, items), nil
}

// 自分の注文履歴（新しい順）
func (u *OrderUsecase) ListOrders(ctx context.Context, userID string) ([]OrderOutput, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	orders, err := u.orders.ListByUserID(ctx, userID, orderHistoryLimit, 0)
	if err != nil {
		return nil, Internal("list orders", err)
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := u.orders.ListLineItems(ctx, o.ID)
		if err != nil {
			return nil, Internal("list line items", err)
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

// 決済（スタブ）。キャンセル済みの注文は払えない
func (u *OrderUsecase) Pay(ctx context.Context, userID, orderID, method string) (PaymentOutput, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return PaymentOutput{}, Validation("payment_method is required")
	}

	o, err := u.findOwned(ctx, userID, orderID)
	if err != nil {
		return PaymentOutput{}, err
	}
	if o.Status == model.OrderStatusCancelled {
		return PaymentOutput{}, ErrOrderCancelled
	}

	ref, err := u.payments.Charge(ctx, o, method)
	if err != nil {
		return PaymentOutput{}, Internal("charge", err)
	}

	u.logger.Infof("payment processed order=%s method=%s ref=%s", o.ID, method, ref)
	return PaymentOutput{
		OrderID:   o.ID,
		Method:    method,
		Reference: ref,
		Status:    "processed",
	}, nil
}

func (u *OrderUsecase) findOwned(ctx context.Context, userID, orderID string) (model.Order, error) {
	if userID == "" {
		return model.Order{}, ErrUnauthorized
	}
	if !isValidID(orderID) {
		return model.Order{}, ErrOrderNotFound
	}

	o, err := u.orders.FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, Internal("find order", err)
	}
	if o.UserID != userID {
		return model.Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (u *OrderUsecase) enqueue(ctx context.Context, r repo.TxRepos, eventType string, o model.Order, itemCount int) error {
	payload, err := json.Marshal(orderEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.StringFixed(2),
		ItemCount:   itemCount,
		OccurredAt:  u.clock.Now().UTC(),
	})
	if err != nil {
		return Internal("marshal event", err)
	}

	if err := r.Outbox().Enqueue(ctx, model.OutboxEvent{
		EventID:     u.idGen.NewID(),
		EventType:   eventType,
		AggregateID: o.ID,
		Payload:     payload,
		CreatedAt:   u.clock.Now(),
	}); err != nil {
		return Internal("enqueue event", err)
	}
	return nil
}

func toOrderOutput(o model.Order, items []model.OrderLineItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			ID:                  it.ID,
			ProductID:           it.ProductID,
			ProductName:         it.ProductName,
			Quantity:            it.Quantity,
			UnitPriceAtPurchase: it.UnitPrice.StringFixed(2),
			Subtotal:            it.Subtotal.StringFixed(2),
		})
	}

	return OrderOutput{
		ID:                o.ID,
		UserID:            o.UserID,
		Status:            string(o.Status),
		TotalAmount:       o.TotalAmount.StringFixed(2),
		DeliveryAddressID: o.DeliveryAddressID,
		CreatedAt:         o.CreatedAt,
		Items:             outItems,
	}
}
