package repository

import (
	"context"

	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	orders    repo.OrderRepository
	cartItems repo.CartItemRepository
	products  repo.ProductRepository
	inventory *InventoryGormRepository
	addresses repo.AddressRepository
	auditLogs repo.AuditLogRepository
	outbox    repo.OutboxRepository
}

func (r *txReposGorm) Orders() repo.OrderRepository                    { return r.orders }
func (r *txReposGorm) CartItems() repo.CartItemRepository              { return r.cartItems }
func (r *txReposGorm) Products() repo.ProductRepository                { return r.products }
func (r *txReposGorm) Inventory() repo.InventoryOracle                 { return r.inventory }
func (r *txReposGorm) Adjustments() repo.InventoryAdjustmentRepository { return r.inventory }
func (r *txReposGorm) Addresses() repo.AddressRepository               { return r.addresses }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository              { return r.auditLogs }
func (r *txReposGorm) Outbox() repo.OutboxRepository                   { return r.outbox }

type TxManagerGorm struct {
	db *gorm.DB
}

func NewTxManagerGorm(db *gorm.DB) *TxManagerGorm {
	return &TxManagerGorm{db: db}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		r := &txReposGorm{
			orders:    NewOrderGormRepository(tx),
			cartItems: NewCartItemGormRepository(tx),
			products:  NewProductGormRepository(tx),
			inventory: NewInventoryGormRepository(tx),
			addresses: NewAddressGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
			outbox:    NewOutboxGormRepository(tx),
		}
		return fn(r)
	})
}
