package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/config"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/handler"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/cache"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/db"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/events"
	infraRepo "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/infra/token"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/metrics"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/repository"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/server"
	"github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase"
	auth "github.com/JoGabriel-Carvalho/santuario-geek-server/internal/usecase/auth_usecase"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newLogger(cfg config.Config) *log.Logger {
	l := log.New("santuario-geek")
	l.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","prefix":"${prefix}"}`)
	if cfg.IsProd() {
		l.SetLevel(log.INFO)
	} else {
		l.SetLevel(log.DEBUG)
	}
	return l
}

func main() {
	//.env は無くてもよい（本番は環境変数）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := newLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
	logger.Infof("server exited")
}

// defer で後片付けするため main から分ける
func run(cfg config.Config, logger *log.Logger) error {
	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("db migrate: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer sqlDB.Close()

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	cartRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	outboxRepo := infraRepo.NewOutboxGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//カートキャッシュ（Redisが無ければ無効）
	var cartCache repository.CartCache = cache.NoopCartCache{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		cartCache = cache.NewRedisCartCache(rdb, cfg.CartCacheTTL)
	}

	//usecaseに渡す部品
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shopMetrics := metrics.New(reg)

	idGen := usecase.UUIDGenerator{}
	clock := usecase.SystemClock{}
	issuer := token.NewJWTIssuer(cfg.JWTSecret, cfg.JWTTTL)
	hasher := auth.NewBcryptPasswordHasher(cfg.BcryptCost)
	verifier := auth.NewBcryptPasswordVerifier()

	//Usecase生成
	registerUC := auth.NewRegisterUserUsecase(userRepo, hasher, issuer, idGen, clock)
	loginUC := auth.NewLoginUsecase(userRepo, verifier, issuer, clock)
	productUC := usecase.NewProductUsecase(txm, productRepo, idGen, clock)
	cartUC := usecase.NewCartUsecase(txm, cartRepo, productRepo, cartCache, idGen, clock, logger)
	orderUC := usecase.NewOrderUsecase(txm, orderRepo, cartUC, usecase.StubPaymentGateway{IDGen: idGen}, idGen, clock, shopMetrics, logger)
	addressUC := usecase.NewAddressUsecase(addressRepo, idGen, clock)

	//Handler生成
	e := server.New(cfg, logger, shopMetrics)
	server.RegisterOpsRoutes(e, sqlDB, reg)
	server.RegisterRoutes(e, server.Handlers{
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Product:      handler.NewProductHandler(productUC),
		AdminProduct: handler.NewAdminProductHandler(productUC),
		Cart:         handler.NewCartHandler(cartUC),
		Order:        handler.NewOrderHandler(orderUC),
		Address:      handler.NewAddressHandler(addressUC),
	}, issuer, userRepo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	//注文イベントの送信（Kafkaが無ければ outbox に溜まるだけ）
	if len(cfg.KafkaBrokers) > 0 {
		writer := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer writer.Close()
		poller := events.NewOutboxPoller(outboxRepo, writer, cfg.OutboxPollInterval, logger)
		g.Go(func() error {
			poller.Run(gctx)
			return nil
		})
	} else {
		logger.Warnf("KAFKA_BROKERS is empty, order events stay in outbox_events")
	}

	//Server起動
	g.Go(func() error {
		return server.Run(gctx, e, cfg.Addr(), shutdownTimeout)
	})

	return g.Wait()
}
