package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Mock（失敗系だけで使う）
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used")
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	panic("not used")
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id string) error {
	panic("not used")
}

func newProductUC(s *memStore) *usecase.ProductUsecase {
	return usecase.NewProductUsecase(s, memProducts{s}, usecase.UUIDGenerator{}, newStepClock())
}

// =====================
// Public
// =====================

func TestProductUsecase_ListProducts_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	pRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(newMemStore(), pRepo, usecase.UUIDGenerator{}, newStepClock())

	pRepo.On("List", mock.Anything, repo.ProductListQuery{Limit: 50, Offset: 0}).
		Return([]model.Product{{ID: uuid.NewString(), Name: "A", Price: decimal.RequireFromString("1.5")}}, nil)

	out, err := uc.ListProducts(ctx, usecase.ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1.50", out[0].Price)
	assert.Equal(t, []string{}, out[0].Tags)

	pRepo.AssertExpectations(t)
}

func TestProductUsecase_ListProducts_InvalidPaging(t *testing.T) {
	uc := newProductUC(newMemStore())

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{Limit: 101})
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))

	_, err = uc.ListProducts(context.Background(), usecase.ListProductsInput{Limit: 10, Offset: -1})
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
}

func TestProductUsecase_ListProducts_RepoError(t *testing.T) {
	pRepo := new(ProductRepoMock)
	uc := usecase.NewProductUsecase(newMemStore(), pRepo, usecase.UUIDGenerator{}, newStepClock())
	pRepo.On("List", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	_, err := uc.ListProducts(context.Background(), usecase.ListProductsInput{})
	e, ok := usecase.AsError(err)
	require.True(t, ok)
	assert.Equal(t, usecase.KindInternal, e.Kind)
	assert.Equal(t, "internal error", e.Message)
	assert.ErrorContains(t, err, "connection reset")
}

func TestProductUsecase_GetProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	p := s.seedProduct("Funko", "49.90", 2, "toys", "anime")
	uc := newProductUC(s)

	out, err := uc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Funko", out.Name)
	assert.Equal(t, "49.90", out.Price)
	assert.Equal(t, []string{"anime"}, out.Tags)

	_, err = uc.GetProduct(ctx, uuid.NewString())
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)

	_, err = uc.GetProduct(ctx, "12")
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
}

func TestProductUsecase_SearchProducts(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.seedProduct("Zelda Poster", "10.00", 1, "decor")
	s.seedProduct("Mug", "5.00", 1, "home", "zelda")
	s.seedProduct("Chair", "50.00", 1, "home")
	uc := newProductUC(s)

	out, err := uc.SearchProducts(ctx, "zelda")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = uc.SearchProducts(ctx, "pokemon")
	assert.ErrorIs(t, err, usecase.ErrNoProducts)

	_, err = uc.SearchProducts(ctx, "   ")
	assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
}

func TestProductUsecase_ListByCategory(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	s.seedProduct("Mug", "5.00", 1, "home")
	s.seedProduct("Chair", "50.00", 1, "home")
	s.seedProduct("Poster", "10.00", 1, "decor")
	uc := newProductUC(s)

	out, err := uc.ListByCategory(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = uc.ListByCategory(ctx, "games")
	assert.ErrorIs(t, err, usecase.ErrNoProducts)
}

// =====================
// Admin
// =====================

func TestProductUsecase_AdminCreateProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	uc := newProductUC(s)
	admin := uuid.NewString()

	out, err := uc.AdminCreateProduct(ctx, admin, usecase.ProductInput{
		Name:              "  Lightsaber ",
		Price:             decimal.RequireFromString("199.99"),
		AvailableQuantity: 4,
		Category:          "toys",
		Tags:              []string{"starwars", " ", "starwars"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Lightsaber", out.Name)
	assert.Equal(t, "199.99", out.Price)
	assert.Equal(t, []string{"starwars"}, out.Tags)
	assert.Contains(t, s.products, out.ID)

	require.Len(t, s.audits, 1)
	assert.Equal(t, model.AuditActionCreateProduct, s.audits[0].Action)
	assert.Equal(t, admin, s.audits[0].ActorUserID)
	assert.Empty(t, s.audits[0].BeforeJSON)
	assert.Contains(t, s.audits[0].AfterJSON, "Lightsaber")
}

func TestProductUsecase_AdminCreateProduct_Validation(t *testing.T) {
	uc := newProductUC(newMemStore())

	cases := []struct {
		name string
		in   usecase.ProductInput
	}{
		{"empty name", usecase.ProductInput{Name: " ", Price: decimal.RequireFromString("1")}},
		{"negative price", usecase.ProductInput{Name: "x", Price: decimal.RequireFromString("-1")}},
		{"three decimals", usecase.ProductInput{Name: "x", Price: decimal.RequireFromString("1.999")}},
		{"negative stock", usecase.ProductInput{Name: "x", Price: decimal.RequireFromString("1"), AvailableQuantity: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AdminCreateProduct(context.Background(), uuid.NewString(), tc.in)
			assert.Equal(t, usecase.KindValidation, usecase.KindOf(err))
		})
	}
}

func TestProductUsecase_AdminUpdateProduct_RecordsAdjustment(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	p := s.seedProduct("Mug", "5.00", 10, "home")
	uc := newProductUC(s)
	admin := uuid.NewString()

	out, err := uc.AdminUpdateProduct(ctx, admin, p.ID, usecase.ProductInput{
		Name:              "Mug XL",
		Price:             decimal.RequireFromString("6.00"),
		AvailableQuantity: 7,
		Category:          "home",
	})
	require.NoError(t, err)
	assert.Equal(t, "Mug XL", out.Name)
	assert.Equal(t, int64(7), s.products[p.ID].AvailableQuantity)

	require.Len(t, s.adjustments, 1)
	assert.Equal(t, int64(-3), s.adjustments[0].Delta)
	assert.Equal(t, admin, s.adjustments[0].AdminUserID)

	require.Len(t, s.audits, 1)
	assert.Contains(t, s.audits[0].BeforeJSON, `"name":"Mug"`)
	assert.Contains(t, s.audits[0].AfterJSON, `"name":"Mug XL"`)
}

func TestProductUsecase_AdminUpdateProduct_SameStockNoAdjustment(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	p := s.seedProduct("Mug", "5.00", 10, "home")
	uc := newProductUC(s)

	_, err := uc.AdminUpdateProduct(ctx, uuid.NewString(), p.ID, usecase.ProductInput{
		Name:              "Mug",
		Price:             decimal.RequireFromString("5.50"),
		AvailableQuantity: 10,
	})
	require.NoError(t, err)
	assert.Empty(t, s.adjustments)
}

func TestProductUsecase_AdminUpdateProduct_NotFound(t *testing.T) {
	s := newMemStore()
	uc := newProductUC(s)

	_, err := uc.AdminUpdateProduct(context.Background(), uuid.NewString(), uuid.NewString(), usecase.ProductInput{
		Name:  "x",
		Price: decimal.RequireFromString("1"),
	})
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
	assert.Empty(t, s.audits)
}

func TestProductUsecase_AdminDeleteProduct(t *testing.T) {
	ctx := context.Background()
	s := newMemStore()
	p := s.seedProduct("Mug", "5.00", 10, "home")
	uc := newProductUC(s)

	require.NoError(t, uc.AdminDeleteProduct(ctx, uuid.NewString(), p.ID))

	_, err := uc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
	require.Len(t, s.audits, 1)
	assert.Equal(t, model.AuditActionDeleteProduct, s.audits[0].Action)

	// 2回目は存在しない
	err = uc.AdminDeleteProduct(ctx, uuid.NewString(), p.ID)
	assert.ErrorIs(t, err, usecase.ErrProductNotFound)
	assert.Len(t, s.audits, 1)
}
