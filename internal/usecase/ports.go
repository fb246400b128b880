package usecase

import (
	"context"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// gommon の *log.Logger / echo.Logger が満たす
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// 注文まわりのメトリクス
type OrderRecorder interface {
	ObserveOrderCreated(total decimal.Decimal)
	ObserveOrderCancelled()
}

// カート書き込み後のキャッシュ無効化。CartUsecase が満たす
type CartInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

// 決済。今はスタブのみ
type PaymentGateway interface {
	Charge(ctx context.Context, order model.Order, method string) (reference string, err error)
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// 常に成功する決済
type StubPaymentGateway struct {
	IDGen IDGenerator
}

func (g StubPaymentGateway) Charge(_ context.Context, _ model.Order, _ string) (string, error) {
	if g.IDGen == nil {
		return uuid.NewString(), nil
	}
	return g.IDGen.NewID(), nil
}

type nopRecorder struct{}

func (nopRecorder) ObserveOrderCreated(decimal.Decimal) {}
func (nopRecorder) ObserveOrderCancelled()              {}

// IDはUUID。形式不正はDBに投げずに「存在しない」扱いにする
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
