package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/dexsettlement/internal/dex/application"
	"github.com/wyfcoding/dexsettlement/internal/dex/domain"
	"github.com/wyfcoding/dexsettlement/internal/dex/infrastructure/messaging"
	mysqlrepo "github.com/wyfcoding/dexsettlement/internal/dex/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/dexsettlement/internal/dex/infrastructure/persistence/redis"
	"github.com/wyfcoding/dexsettlement/internal/dex/interfaces/consumer"
	httpserver "github.com/wyfcoding/dexsettlement/internal/dex/interfaces/http"
	"github.com/wyfcoding/dexsettlement/pkg/cache"
	"github.com/wyfcoding/dexsettlement/pkg/config"
	"github.com/wyfcoding/dexsettlement/pkg/db"
	"github.com/wyfcoding/dexsettlement/pkg/idgen"
	"github.com/wyfcoding/dexsettlement/pkg/logger"
	"github.com/wyfcoding/dexsettlement/pkg/metrics"
	"github.com/wyfcoding/dexsettlement/pkg/middleware"
	"github.com/wyfcoding/dexsettlement/pkg/mq"
	"github.com/wyfcoding/dexsettlement/pkg/ratelimit"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "configs/config.toml", "config file path")

// systemClock 以 unix 秒为单位的墙钟实现
type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

func main() {
	flag.Parse()

	// 1. 配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. 日志
	if err := logger.Init(logger.Config(cfg.Logger)); err != nil {
		panic(fmt.Sprintf("failed to init logger: %v", err))
	}
	ctx := context.Background()

	// 3. ID 生成器
	if err := idgen.Init(cfg.NodeID); err != nil {
		logger.Fatal(ctx, "failed to init idgen", "error", err)
	}

	// 4. 基础设施
	database, err := db.Init(db.Config(cfg.Database))
	if err != nil {
		logger.Fatal(ctx, "failed to connect database", "error", err)
	}
	defer database.Close()

	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(mysqlrepo.Models()...); err != nil {
			logger.Error(ctx, "failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.New(cache.Config(cfg.Redis))
	if err != nil {
		logger.Fatal(ctx, "failed to connect redis", "error", err)
	}
	defer redisCache.Close()

	producer, err := mq.NewProducer(mq.KafkaConfig(cfg.Kafka))
	if err != nil {
		logger.Fatal(ctx, "failed to create kafka producer", "error", err)
	}
	defer producer.Close()

	oracleConsumerMQ, err := mq.NewConsumer(mq.KafkaConfig(cfg.Kafka), consumer.OracleTopic)
	if err != nil {
		logger.Fatal(ctx, "failed to create kafka consumer", "error", err)
	}
	defer oracleConsumerMQ.Close()

	// 5. 领域组件
	minBond, err := decimal.NewFromString(cfg.Auction.MinBond)
	if err != nil {
		logger.Fatal(ctx, "invalid auction.min_bond", "value", cfg.Auction.MinBond)
	}
	notionalThreshold, err := decimal.NewFromString(cfg.Breaker.NotionalThreshold)
	if err != nil {
		logger.Fatal(ctx, "invalid breaker.notional_threshold", "value", cfg.Breaker.NotionalThreshold)
	}

	damper := domain.NewOracleDamper(cfg.Damper.MaxDeviationBps, cfg.Damper.MaxSampleAge)
	breaker := domain.NewCircuitBreaker(domain.BreakerConfig{
		WindowSeconds:      cfg.Breaker.WindowSeconds,
		NotionalThreshold:  notionalThreshold,
		CooldownSeconds:    cfg.Breaker.CooldownSeconds,
		GuardPeriodSeconds: cfg.Breaker.GuardPeriodSeconds,
	})

	// 6. 应用服务
	repos := application.Repositories{
		Pools:       mysqlrepo.NewPoolRepo(database.DB),
		Commitments: mysqlrepo.NewCommitmentRepo(database.DB),
		Batches:     mysqlrepo.NewBatchRepo(database.DB),
		Positions:   mysqlrepo.NewPositionRepo(database.DB),
		Bonds:       mysqlrepo.NewBondRepo(database.DB),
		Oracle:      redisrepo.NewOracleRepo(redisCache, time.Duration(cfg.Damper.MaxSampleAge)*time.Second),
	}

	m := metrics.New("settlement")
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "failed to register metrics", "error", err)
	}

	service := application.NewDexService(
		repos,
		mysqlrepo.NewUnitOfWork(database.DB),
		messaging.NewInstrumentedPublisher(messaging.NewKafkaEventPublisher(producer), m),
		systemClock{},
		breaker,
		damper,
		application.ServiceConfig{
			CommitDuration:   cfg.Auction.CommitDuration,
			RevealDuration:   cfg.Auction.RevealDuration,
			MinBond:          minBond,
			MaxFeeBps:        cfg.Protocol.MaxFeeBps,
			MinAmplification: cfg.Protocol.MinAmplification,
			MaxAmplification: cfg.Protocol.MaxAmplification,
			Executors:        cfg.Auth.Executors,
			Admins:           cfg.Auth.Admins,
		},
	)

	// 7. 接口层
	gin.SetMode(gin.ReleaseMode)
	if cfg.Environment == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging(), middleware.Metrics(m))
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisLimiter(redisCache.GetClient())
		r.Use(middleware.RateLimit(limiter, ratelimit.PerSecond(cfg.RateLimit.QPS, cfg.RateLimit.Burst)))
	}
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.ServiceName, "version": cfg.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	httpserver.NewHandler(service).RegisterRoutes(r.Group("/api/v1"))

	oracleConsumer := consumer.NewOracleConsumer(oracleConsumerMQ, service)

	// 8. 启动与优雅退出
	g, gctx := errgroup.WithContext(ctx)
	consumerCtx, cancelConsumer := context.WithCancel(gctx)
	defer cancelConsumer()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		oracleConsumer.Run(consumerCtx)
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
			logger.Info(gctx, "shutting down servers...")
		case <-gctx.Done():
			logger.Info(gctx, "context cancelled, shutting down...")
		}
		cancelConsumer()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "server exited with error", "error", err)
	}
}
