package cache

import (
	"context"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
)

// REDIS_ADDR 未設定のとき用。常にミス。
type NoopCartCache struct{}

func (NoopCartCache) Get(context.Context, string) ([]model.CartItem, error) {
	return nil, repo.ErrCacheMiss
}

func (NoopCartCache) Set(context.Context, string, []model.CartItem) error { return nil }

func (NoopCartCache) Delete(context.Context, string) error { return nil }
