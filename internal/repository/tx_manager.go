package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	CartItems() CartItemRepository
	Products() ProductRepository
	Inventory() InventoryOracle
	Adjustments() InventoryAdjustmentRepository
	Addresses() AddressRepository
	AuditLogs() AuditLogRepository
	Outbox() OutboxRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fn がエラーを返したらロールバックし、そのエラーをそのまま返す。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
