package repository

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

// 監査ログの保存の約束。
type AuditLogRepository interface {
	//監査ログを1件保存
	Create(ctx context.Context, log model.AuditLog) error
}
