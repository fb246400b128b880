package repository_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/config"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/domain/model"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/cache"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/db"
	infraRepo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/repository"
	repo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Connect(config.Config{DatabaseURL: dsn, GoEnv: "prod"})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gdb
}

func seedUser(t *testing.T, users repo.UserRepository, email string) *model.User {
	t.Helper()
	now := time.Now()
	u := &model.User{
		ID:           uuid.NewString(),
		Name:         "Player",
		Email:        email,
		PasswordHash: "x",
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, products repo.ProductRepository, name, price string, stock int64, category string, tags ...string) model.Product {
	t.Helper()
	now := time.Now()
	p, err := products.Create(context.Background(), model.Product{
		ID:                uuid.NewString(),
		Name:              name,
		Price:             decimal.RequireFromString(price),
		AvailableQuantity: stock,
		Category:          category,
		Tags:              tags,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	require.NoError(t, err)
	return p
}

// コンテナ起動が重いので1つを使い回す
func TestPostgresRepositories(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()

	users := infraRepo.NewUserGormRepository(gdb)
	products := infraRepo.NewProductGormRepository(gdb)
	carts := infraRepo.NewCartItemGormRepository(gdb)
	orders := infraRepo.NewOrderGormRepository(gdb)
	addresses := infraRepo.NewAddressGormRepository(gdb)
	outbox := infraRepo.NewOutboxGormRepository(gdb)
	txm := infraRepo.NewTxManagerGorm(gdb)

	logger := log.New("test")
	logger.SetOutput(io.Discard)
	idGen := usecase.UUIDGenerator{}
	clock := usecase.SystemClock{}

	cartUC := usecase.NewCartUsecase(txm, carts, products, cache.NoopCartCache{}, idGen, clock, logger)
	orderUC := usecase.NewOrderUsecase(txm, orders, cartUC, usecase.StubPaymentGateway{}, idGen, clock, nil, logger)

	t.Run("user email is unique", func(t *testing.T) {
		seedUser(t, users, "mario@kingdom.com")

		err := users.Create(ctx, &model.User{ID: uuid.NewString(), Name: "x", Email: "mario@kingdom.com", PasswordHash: "x", Role: model.RoleUser})
		assert.ErrorIs(t, err, repo.ErrDuplicate)

		_, err = users.FindByEmail(ctx, "luigi@kingdom.com")
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("product search and soft delete", func(t *testing.T) {
		zelda := seedProduct(t, products, "Zelda 100% Poster", "10.00", 1, "decor")
		seedProduct(t, products, "Mug", "5.00", 1, "kitchen", "zelda")
		seedProduct(t, products, "Chair", "50.00", 1, "kitchen")

		found, err := products.List(ctx, repo.ProductListQuery{Term: "zelda", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, found, 2)

		// % はワイルドカードにならない
		found, err = products.List(ctx, repo.ProductListQuery{Term: "100%", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, found, 1)

		byCategory, err := products.List(ctx, repo.ProductListQuery{Category: "kitchen", Limit: 10})
		require.NoError(t, err)
		assert.Len(t, byCategory, 2)

		require.NoError(t, products.SoftDelete(ctx, zelda.ID))
		_, err = products.FindByID(ctx, zelda.ID)
		assert.ErrorIs(t, err, repo.ErrNotFound)
		assert.ErrorIs(t, products.SoftDelete(ctx, zelda.ID), repo.ErrNotFound)
	})

	t.Run("rollback leaves nothing behind", func(t *testing.T) {
		boom := errors.New("boom")
		var id string

		err := txm.WithinTx(ctx, func(r repo.TxRepos) error {
			p, err := r.Products().Create(ctx, model.Product{
				ID: uuid.NewString(), Name: "Ghost", Price: decimal.RequireFromString("1.00"),
				CreatedAt: time.Now(), UpdatedAt: time.Now(),
			})
			require.NoError(t, err)
			id = p.ID
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = products.FindByID(ctx, id)
		assert.ErrorIs(t, err, repo.ErrNotFound)
	})

	t.Run("checkout flow", func(t *testing.T) {
		u := seedUser(t, users, "link@hyrule.com")
		sword := seedProduct(t, products, "Master Sword", "10.00", 5, "replicas")
		shield := seedProduct(t, products, "Hylian Shield", "2.50", 2, "replicas")

		_, err := addresses.Create(ctx, model.Address{
			ID: uuid.NewString(), UserID: u.ID, Street: "Kakariko 1", City: "Hyrule", PostalCode: "00001",
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		require.NoError(t, err)

		_, err = cartUC.AddItem(ctx, u.ID, usecase.AddCartInput{ProductID: sword.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = cartUC.AddItem(ctx, u.ID, usecase.AddCartInput{ProductID: sword.ID, Quantity: 1})
		require.NoError(t, err)
		_, err = cartUC.AddItem(ctx, u.ID, usecase.AddCartInput{ProductID: shield.ID, Quantity: 2})
		require.NoError(t, err)

		cart, err := cartUC.GetCart(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "25.00", cart.Total)

		order, err := orderUC.CreateOrderFromCart(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "25.00", order.TotalAmount)
		assert.Equal(t, "pending", order.Status)
		assert.NotNil(t, order.DeliveryAddressID)
		assert.Len(t, order.Items, 2)

		// カートは空、在庫は減らない
		items, err := carts.ListByUserID(ctx, u.ID)
		require.NoError(t, err)
		assert.Empty(t, items)
		p, err := products.FindByID(ctx, sword.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5), p.AvailableQuantity)

		cancelled, err := orderUC.CancelOrder(ctx, u.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", cancelled.Status)

		_, err = orderUC.CancelOrder(ctx, u.ID, order.ID)
		require.NoError(t, err)

		pending, err := outbox.FetchPending(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, pending, 2)
	})

	t.Run("deleted address stays on the order", func(t *testing.T) {
		u := seedUser(t, users, "zelda@hyrule.com")
		lantern := seedProduct(t, products, "Lantern", "3.00", 5, "items")

		addr, err := addresses.Create(ctx, model.Address{
			ID: uuid.NewString(), UserID: u.ID, Street: "Castle 1", City: "Hyrule", PostalCode: "00002",
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		require.NoError(t, err)

		_, err = cartUC.AddItem(ctx, u.ID, usecase.AddCartInput{ProductID: lantern.ID, Quantity: 1})
		require.NoError(t, err)
		order, err := orderUC.CreateOrderFromCart(ctx, u.ID)
		require.NoError(t, err)
		require.NotNil(t, order.DeliveryAddressID)

		require.NoError(t, addresses.Delete(ctx, addr.ID))
		_, err = addresses.FindByID(ctx, addr.ID)
		assert.ErrorIs(t, err, repo.ErrNotFound)
		_, err = addresses.LatestByUserID(ctx, u.ID)
		assert.ErrorIs(t, err, repo.ErrNotFound)

		stored, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.DeliveryAddressID)
		assert.Equal(t, addr.ID, *stored.DeliveryAddressID)

		// 注文が参照している住所は物理削除できない
		err = gdb.Exec("DELETE FROM addresses WHERE id = ?", addr.ID).Error
		assert.Error(t, err)
	})

	t.Run("concurrent adds never exceed stock", func(t *testing.T) {
		u := seedUser(t, users, "peach@kingdom.com")
		p := seedProduct(t, products, "Star", "1.00", 3, "items")

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = cartUC.AddItem(ctx, u.ID, usecase.AddCartInput{ProductID: p.ID, Quantity: 2})
			}(i)
		}
		wg.Wait()

		failed := 0
		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, usecase.ErrProductUnavailable)
				failed++
			}
		}
		assert.Equal(t, 1, failed)

		item, err := carts.FindByUserAndProduct(ctx, u.ID, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), item.Quantity)
	})
}
