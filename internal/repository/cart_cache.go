package repository

import (
	"context"
	"errors"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
)

var ErrCacheMiss = errors.New("cache miss")

// カート明細の読み取りキャッシュ。
// 正はDB側。書き込みのたびに Delete する。
type CartCache interface {
	Get(ctx context.Context, userID string) ([]model.CartItem, error)
	Set(ctx context.Context, userID string, items []model.CartItem) error
	Delete(ctx context.Context, userID string) error
}
